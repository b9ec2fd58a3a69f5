package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "nope", "123", id.Hex() + "0", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}

func TestNullableHex(t *testing.T) {
	assert.Nil(t, NullableHex(primitive.NilObjectID))

	id := NewID()
	assert.Equal(t, id.Hex(), NullableHex(id))
}

func TestAuthorship(t *testing.T) {
	author := NewID()
	other := NewID()

	c := &Campground{ID: NewID(), AuthorID: author}
	assert.True(t, c.IsAuthoredBy(author))
	assert.False(t, c.IsAuthoredBy(other))
	assert.False(t, c.IsAuthoredBy(primitive.NilObjectID))

	orphan := &Campground{ID: NewID()}
	assert.False(t, orphan.IsAuthoredBy(primitive.NilObjectID), "zero ids never match")

	r := &Review{ID: NewID(), AuthorID: author}
	assert.True(t, r.IsAuthoredBy(author))
	assert.False(t, r.IsAuthoredBy(other))
}

func TestSessionSignedIn(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.SignedIn())
	assert.False(t, (&Session{ID: "abc"}).SignedIn())
	assert.True(t, (&Session{ID: "abc", UserID: NewID()}).SignedIn())
}
