package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const (
	msgReviewCreated = "Created new review!"
	msgReviewDeleted = "Successfully deleted review"
	msgReviewMissing = "Couldn't find that review"
)

// RequireReviewAuthor loads :reviewId of campground :id and lets only the
// review's author through
func (s *WebServer) RequireReviewAuthor() gin.HandlerFunc {
	return wrap(func(c *gin.Context) error {
		campgroundID := c.Param("id")
		review, err := s.DB.FindReviewByID(c.Param("reviewId"))
		if errors.Is(err, database.ErrNotFound) || (err == nil && review.CampgroundID.Hex() != campgroundID) {
			s.flashError(c, msgReviewMissing)
			redirect(c, campgroundPathPrefix+campgroundID)
			c.Abort()
			return nil
		}
		if err != nil {
			return err
		}

		user := s.currentUser(c)
		if user == nil || !review.IsAuthoredBy(user.ID) {
			s.flashError(c, msgPermissionDenied)
			redirect(c, campgroundPathPrefix+campgroundID)
			c.Abort()
			return nil
		}

		c.Set(ctxReviewKey, review)
		return nil
	})
}

// reviewCreate attaches a validated review to the campground
func (s *WebServer) reviewCreate(c *gin.Context) error {
	v, _ := c.Get(ctxReviewFormKey)
	form, ok := v.(*ReviewForm)
	if !ok {
		return NewAppError("Invalid Review Data", http.StatusBadRequest)
	}
	user := s.currentUser(c)
	if user == nil {
		return NewAppError(msgSignInRequired, http.StatusUnauthorized)
	}

	campground, err := s.DB.FindCampgroundByID(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	if err != nil {
		return err
	}

	review := &models.Review{
		CampgroundID: campground.ID,
		Body:         form.Body,
		Rating:       form.RatingValue(),
		AuthorID:     user.ID,
	}
	err = s.DB.InsertReview(review)
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	if err != nil {
		return err
	}
	s.Metrics.CountOp("review_create")

	s.flashSuccess(c, msgReviewCreated)
	redirect(c, campgroundPath(campground))
	return nil
}

// reviewDelete removes the review RequireReviewAuthor loaded
func (s *WebServer) reviewDelete(c *gin.Context) error {
	v, _ := c.Get(ctxReviewKey)
	review, ok := v.(*models.Review)
	if !ok {
		s.flashError(c, msgReviewMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}

	err := s.DB.DeleteReview(review.CampgroundID, review.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	s.Metrics.CountOp("review_delete")

	s.flashSuccess(c, msgReviewDeleted)
	redirect(c, campgroundPathPrefix+review.CampgroundID.Hex())
	return nil
}
