package web

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser("alice")
	camp := env.createCampground(owner, "Maple Ridge")
	bob, reviewer := env.loginAs("bob")
	path := "/campgrounds/" + camp.ID.Hex() + "/reviews"

	r := bob.postForm(path, url.Values{"review[body]": {"Great sunsets"}, "review[rating]": {"5"}})
	require.Equal(t, http.StatusSeeOther, r.Status, r.Body)
	assert.Equal(t, "/campgrounds/"+camp.ID.Hex(), r.Location)

	page := bob.follow(r)
	assert.Contains(t, page.Body, "Created new review!")
	assert.Contains(t, page.Body, "Great sunsets")

	reviews, err := env.db.FindReviewsByCampground(camp.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, reviewer.ID, reviews[0].AuthorID)
	assert.Equal(t, 5, reviews[0].Rating)

	r = bob.postForm(path, url.Values{"review[body]": {"meh"}, "review[rating]": {"9"}})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	r = bob.postForm(path, url.Values{})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Contains(t, r.Body, "Invalid Review Data")

	r = bob.postForm("/campgrounds/"+primitive.NewObjectID().Hex()+"/reviews", url.Values{"review[body]": {"lost"}, "review[rating]": {"3"}})
	assert.Equal(t, http.StatusSeeOther, r.Status)
	assert.Equal(t, "/campgrounds", r.Location)

	r = env.newClient().postForm(path, url.Values{"review[body]": {"anon"}, "review[rating]": {"3"}})
	assert.Equal(t, "/login", r.Location)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser("alice")
	camp := env.createCampground(owner, "Maple Ridge")
	bob, reviewer := env.loginAs("bob")
	carol, _ := env.loginAs("carol")

	review := &models.Review{CampgroundID: camp.ID, Body: "Windy", Rating: 2, AuthorID: reviewer.ID}
	require.NoError(t, env.db.InsertReview(review))
	path := "/campgrounds/" + camp.ID.Hex() + "/reviews/" + review.ID.Hex() + "?_method=DELETE"

	r := carol.postForm(path, url.Values{})
	assert.Equal(t, http.StatusSeeOther, r.Status)
	assert.Contains(t, carol.follow(r).Body, "You do not have permission to do that!")
	_, err := env.db.FindReviewByID(review.ID.Hex())
	require.NoError(t, err)

	other := env.createCampground(owner, "Other Place")
	r = bob.postForm("/campgrounds/"+other.ID.Hex()+"/reviews/"+review.ID.Hex()+"?_method=DELETE", url.Values{})
	assert.Equal(t, http.StatusSeeOther, r.Status)
	assert.Contains(t, bob.follow(r).Body, "Couldn&#39;t find that review")

	r = bob.postForm(path, url.Values{})
	require.Equal(t, http.StatusSeeOther, r.Status)
	assert.Equal(t, "/campgrounds/"+camp.ID.Hex(), r.Location)
	assert.Contains(t, bob.follow(r).Body, "Successfully deleted review")

	_, err = env.db.FindReviewByID(review.ID.Hex())
	assert.ErrorIs(t, err, database.ErrNotFound)
}
