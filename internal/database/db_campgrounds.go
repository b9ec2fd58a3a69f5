package database

import (
	"database/sql"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/go-while/go-yelpcamp/internal/models"
)

const campgroundColumns = `id, title, location, image, price, description, author_id, created_at, updated_at`

func scanCampground(row rowScanner) (*models.Campground, error) {
	var (
		c        models.Campground
		id       sql.NullString
		authorID sql.NullString
		price    string
	)
	if err := row.Scan(&id, &c.Title, &c.Location, &c.Image, &price, &c.Description, &authorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = scanID(id); err != nil {
		return nil, err
	}
	if c.AuthorID, err = scanID(authorID); err != nil {
		return nil, err
	}
	if c.Price, err = scanDecimal(price); err != nil {
		return nil, err
	}
	return &c, nil
}

const query_FindCampgrounds = `SELECT ` + campgroundColumns + ` FROM campgrounds ORDER BY created_at DESC, id DESC`

// FindCampgrounds returns all campgrounds, newest first
func (db *Database) FindCampgrounds() ([]*models.Campground, error) {
	rows, err := db.retryableQuery(query_FindCampgrounds)
	if err != nil {
		return nil, fmt.Errorf("failed to query campgrounds: %w", err)
	}
	defer rows.Close()

	out := []*models.Campground{}
	for rows.Next() {
		c, err := scanCampground(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const query_FindCampgroundByID = `SELECT ` + campgroundColumns + ` FROM campgrounds WHERE id = ?`

// FindCampgroundByID loads one campground without populating author or reviews.
// A malformed id is reported as ErrNotFound.
func (db *Database) FindCampgroundByID(hexID string) (*models.Campground, error) {
	id, err := parseLookupID(hexID)
	if err != nil {
		return nil, err
	}
	c, err := scanCampground(db.retryableQueryRow(query_FindCampgroundByID, id.Hex()))
	if err != nil {
		return nil, notFound(err)
	}
	if c.ReviewIDs, err = db.findReviewIDs(c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// FindCampgroundByIDPopulated loads a campground with its author, its reviews
// and every review's author resolved
func (db *Database) FindCampgroundByIDPopulated(hexID string) (*models.Campground, error) {
	c, err := db.FindCampgroundByID(hexID)
	if err != nil {
		return nil, err
	}

	reviews, err := db.FindReviewsByCampground(c.ID)
	if err != nil {
		return nil, err
	}
	c.Reviews = reviews

	if !c.AuthorID.IsZero() {
		authors, err := db.getUsersByIDs([]primitive.ObjectID{c.AuthorID})
		if err != nil {
			return nil, err
		}
		c.Author = authors[c.AuthorID]
	}
	return c, nil
}

const query_InsertCampground = `INSERT INTO campgrounds (` + campgroundColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertCampground stores a new campground and assigns its id and timestamps
func (db *Database) InsertCampground(c *models.Campground) error {
	if c.ID.IsZero() {
		c.ID = models.NewID()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	c.ReviewIDs = []primitive.ObjectID{}

	_, err := db.retryableExec(query_InsertCampground,
		c.ID.Hex(), c.Title, c.Location, c.Image, c.Price.String(), c.Description,
		models.NullableHex(c.AuthorID), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert campground: %w", err)
	}
	return nil
}

const query_UpdateCampground = `UPDATE campgrounds SET title = ?, location = ?, image = ?, price = ?, description = ?, updated_at = ? WHERE id = ?`

// FindCampgroundByIDAndUpdate replaces the editable fields and returns the
// updated record. Author and reviews are never touched.
func (db *Database) FindCampgroundByIDAndUpdate(hexID string, upd models.CampgroundUpdate) (*models.Campground, error) {
	id, err := parseLookupID(hexID)
	if err != nil {
		return nil, err
	}

	result, err := db.retryableExec(query_UpdateCampground,
		upd.Title, upd.Location, upd.Image, upd.Price.String(), upd.Description, now(), id.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to update campground %s: %w", id.Hex(), err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return db.FindCampgroundByID(id.Hex())
}

// FindCampgroundByIDAndDelete removes the campground and its reviews in one
// transaction and returns what was deleted
func (db *Database) FindCampgroundByIDAndDelete(hexID string) (*models.Campground, error) {
	c, err := db.FindCampgroundByID(hexID)
	if err != nil {
		return nil, err
	}

	err = db.retryableTransactionExec(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM reviews WHERE campground_id = ?`, c.ID.Hex()); err != nil {
			return err
		}
		result, err := tx.Exec(`DELETE FROM campgrounds WHERE id = ?`, c.ID.Hex())
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete campground %s: %w", c.ID.Hex(), err)
	}
	return c, nil
}

// CountCampgrounds returns the number of stored campgrounds
func (db *Database) CountCampgrounds() (int64, error) {
	var count int64
	err := db.retryableQueryRowScan(`SELECT COUNT(*) FROM campgrounds`, nil, &count)
	return count, err
}

// DeleteAllCampgrounds wipes campgrounds and, through the cascade, their reviews
func (db *Database) DeleteAllCampgrounds() (int64, error) {
	var deleted int64
	err := db.retryableTransactionExec(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM reviews`); err != nil {
			return err
		}
		result, err := tx.Exec(`DELETE FROM campgrounds`)
		if err != nil {
			return err
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	return deleted, err
}
