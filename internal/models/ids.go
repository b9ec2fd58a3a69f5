package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned for ids that are not 24 hex characters
var ErrInvalidID = errors.New("invalid id")

// NewID generates a fresh document id
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// ParseID parses the hex form used in URLs and database columns
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// NullableHex returns nil for the zero id so it is stored as NULL
func NullableHex(id primitive.ObjectID) interface{} {
	if id.IsZero() {
		return nil
	}
	return id.Hex()
}
