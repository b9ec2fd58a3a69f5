package database

import (
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/go-while/go-yelpcamp/internal/models"
)

const reviewColumns = `id, campground_id, body, rating, author_id, created_at`

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		r            models.Review
		id           sql.NullString
		campgroundID sql.NullString
		authorID     sql.NullString
	)
	if err := row.Scan(&id, &campgroundID, &r.Body, &r.Rating, &authorID, &r.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.ID, err = scanID(id); err != nil {
		return nil, err
	}
	if r.CampgroundID, err = scanID(campgroundID); err != nil {
		return nil, err
	}
	if r.AuthorID, err = scanID(authorID); err != nil {
		return nil, err
	}
	return &r, nil
}

const query_InsertReview = `INSERT INTO reviews (` + reviewColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

// InsertReview attaches a review to its campground. ErrNotFound when the
// campground no longer exists.
func (db *Database) InsertReview(r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = models.NewID()
	}
	r.CreatedAt = now()

	return db.retryableTransactionExec(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM campgrounds WHERE id = ?`, r.CampgroundID.Hex()).Scan(&exists)
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.Exec(query_InsertReview,
			r.ID.Hex(), r.CampgroundID.Hex(), r.Body, r.Rating, models.NullableHex(r.AuthorID), r.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return nil
	})
}

const query_FindReviewByID = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

// FindReviewByID loads one review. A malformed id is reported as ErrNotFound.
func (db *Database) FindReviewByID(hexID string) (*models.Review, error) {
	id, err := parseLookupID(hexID)
	if err != nil {
		return nil, err
	}
	r, err := scanReview(db.retryableQueryRow(query_FindReviewByID, id.Hex()))
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

const query_FindReviewsByCampground = `SELECT ` + reviewColumns + ` FROM reviews WHERE campground_id = ? ORDER BY created_at, id`

// FindReviewsByCampground returns a campground's reviews oldest first with authors populated
func (db *Database) FindReviewsByCampground(campgroundID primitive.ObjectID) ([]*models.Review, error) {
	rows, err := db.retryableQuery(query_FindReviewsByCampground, campgroundID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	var authorIDs []primitive.ObjectID
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
		authorIDs = append(authorIDs, r.AuthorID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	authors, err := db.getUsersByIDs(authorIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		r.Author = authors[r.AuthorID]
	}
	return reviews, nil
}

// findReviewIDs lists the review ids referenced by a campground
func (db *Database) findReviewIDs(campgroundID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := db.retryableQuery(`SELECT id FROM reviews WHERE campground_id = ? ORDER BY created_at, id`, campgroundID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []primitive.ObjectID{}
	for rows.Next() {
		var hex sql.NullString
		if err := rows.Scan(&hex); err != nil {
			return nil, err
		}
		id, err := scanID(hex)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteReview removes a review from the given campground only
func (db *Database) DeleteReview(campgroundID, reviewID primitive.ObjectID) error {
	result, err := db.retryableExec(`DELETE FROM reviews WHERE id = ? AND campground_id = ?`, reviewID.Hex(), campgroundID.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", reviewID.Hex(), err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
