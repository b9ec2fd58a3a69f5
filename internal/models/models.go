// Package models defines core data structures for go-yelpcamp
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campground is a listing created by a user
type Campground struct {
	ID          primitive.ObjectID   `json:"id" db:"id"`
	Title       string               `json:"title" db:"title"`
	Location    string               `json:"location" db:"location"`
	Image       string               `json:"image" db:"image"`
	Price       decimal.Decimal      `json:"price" db:"price"`
	Description string               `json:"description" db:"description"`
	AuthorID    primitive.ObjectID   `json:"author" db:"author_id"`
	ReviewIDs   []primitive.ObjectID `json:"reviews" db:"-"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`

	// Populated on demand
	Author  *User     `json:"-" db:"-"`
	Reviews []*Review `json:"-" db:"-"`
}

// IsAuthoredBy reports whether userID created the campground
func (c *Campground) IsAuthoredBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && c.AuthorID == userID
}

// CampgroundUpdate carries the user-editable campground fields
type CampgroundUpdate struct {
	Title       string
	Location    string
	Image       string
	Price       decimal.Decimal
	Description string
}

// Review is a rating left on a campground
type Review struct {
	ID           primitive.ObjectID `json:"id" db:"id"`
	CampgroundID primitive.ObjectID `json:"campground" db:"campground_id"`
	Body         string             `json:"body" db:"body"`
	Rating       int                `json:"rating" db:"rating"`
	AuthorID     primitive.ObjectID `json:"author" db:"author_id"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`

	Author *User `json:"-" db:"-"`
}

// IsAuthoredBy reports whether userID wrote the review
func (r *Review) IsAuthoredBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && r.AuthorID == userID
}

// User represents a web user account
type User struct {
	ID            primitive.ObjectID `json:"id" db:"id"`
	Username      string             `json:"username" db:"username"`
	Email         string             `json:"email" db:"email"`
	PasswordHash  string             `json:"-" db:"password_hash"`
	LoginAttempts int                `json:"-" db:"login_attempts"` // Failed login attempts counter
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// Session represents a browser session; UserID is zero for anonymous visitors
type Session struct {
	ID        string             `json:"id" db:"id"`
	UserID    primitive.ObjectID `json:"user_id" db:"user_id"`
	RemoteIP  string             `json:"remote_ip" db:"remote_ip"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" db:"expires_at"`
}

// SignedIn reports whether a user is attached to the session
func (s *Session) SignedIn() bool {
	return s != nil && !s.UserID.IsZero()
}
