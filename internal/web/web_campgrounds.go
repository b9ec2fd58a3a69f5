package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const (
	msgCampgroundCreated = "New Campground made successfully"
	msgCampgroundMissing = "Couldn't find that campground"
	msgCampgroundUpdated = "Updated Campground successfully"
	msgCampgroundDeleted = "Deleted Successfully"
	msgPermissionDenied  = "You do not have permission to do that!"
	msgSignInRequired    = "You must be signed in first!"
	campgroundsIndexPath = "/campgrounds"
	campgroundPathPrefix = "/campgrounds/"
)

// CampgroundsPageData represents data for the campground list
type CampgroundsPageData struct {
	TemplateData
	Campgrounds []*models.Campground
}

// CampgroundPageData represents data for the detail page
type CampgroundPageData struct {
	TemplateData
	Campground *models.Campground
	CanEdit    bool
}

// CampgroundFormPageData represents data for the new and edit forms
type CampgroundFormPageData struct {
	TemplateData
	Campground *models.Campground
}

func campgroundPath(c *models.Campground) string {
	return campgroundPathPrefix + c.ID.Hex()
}

// RequireCampgroundAuthor loads the campground named by :id and lets only its
// author through. The loaded campground is stored on the context.
func (s *WebServer) RequireCampgroundAuthor() gin.HandlerFunc {
	return wrap(func(c *gin.Context) error {
		campground, err := s.DB.FindCampgroundByID(c.Param("id"))
		if errors.Is(err, database.ErrNotFound) {
			s.flashError(c, msgCampgroundMissing)
			redirect(c, campgroundsIndexPath)
			c.Abort()
			return nil
		}
		if err != nil {
			return err
		}

		user := s.currentUser(c)
		if user == nil || !campground.IsAuthoredBy(user.ID) {
			s.flashError(c, msgPermissionDenied)
			redirect(c, campgroundPath(campground))
			c.Abort()
			return nil
		}

		c.Set(ctxCampgroundKey, campground)
		return nil
	})
}

func campgroundFromContext(c *gin.Context) *models.Campground {
	v, _ := c.Get(ctxCampgroundKey)
	campground, _ := v.(*models.Campground)
	return campground
}

func campgroundFormFromContext(c *gin.Context) (*CampgroundForm, error) {
	v, _ := c.Get(ctxCampgroundFormKey)
	form, ok := v.(*CampgroundForm)
	if !ok {
		return nil, NewAppError("Invalid Campground Data", http.StatusBadRequest)
	}
	return form, nil
}

// campgroundsIndex lists every campground
func (s *WebServer) campgroundsIndex(c *gin.Context) error {
	campgrounds, err := s.DB.FindCampgrounds()
	if err != nil {
		return err
	}
	return s.renderTemplate(c, http.StatusOK, "campgrounds/index", CampgroundsPageData{
		TemplateData: s.getBaseTemplateData(c, "All Campgrounds"),
		Campgrounds:  campgrounds,
	})
}

// campgroundNew renders the creation form
func (s *WebServer) campgroundNew(c *gin.Context) error {
	return s.renderTemplate(c, http.StatusOK, "campgrounds/new", CampgroundFormPageData{
		TemplateData: s.getBaseTemplateData(c, "New Campground"),
	})
}

// campgroundCreate stores a validated campground authored by the requester
func (s *WebServer) campgroundCreate(c *gin.Context) error {
	form, err := campgroundFormFromContext(c)
	if err != nil {
		return err
	}
	user := s.currentUser(c)
	if user == nil {
		return NewAppError(msgSignInRequired, http.StatusUnauthorized)
	}

	upd := form.Update()
	campground := &models.Campground{
		Title:       upd.Title,
		Location:    upd.Location,
		Image:       upd.Image,
		Price:       upd.Price,
		Description: upd.Description,
		AuthorID:    user.ID,
	}
	if err := s.DB.InsertCampground(campground); err != nil {
		return err
	}
	s.Metrics.CountOp("campground_create")

	s.flashSuccess(c, msgCampgroundCreated)
	redirect(c, campgroundPath(campground))
	return nil
}

// campgroundShow renders a campground with its author and reviews
func (s *WebServer) campgroundShow(c *gin.Context) error {
	campground, err := s.DB.FindCampgroundByIDPopulated(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	if err != nil {
		return err
	}

	data := s.getBaseTemplateData(c, campground.Title)
	return s.renderTemplate(c, http.StatusOK, "campgrounds/show", CampgroundPageData{
		TemplateData: data,
		Campground:   campground,
		CanEdit:      data.User != nil && campground.IsAuthoredBy(data.User.ID),
	})
}

// campgroundEdit renders the edit form for the campground RequireCampgroundAuthor loaded
func (s *WebServer) campgroundEdit(c *gin.Context) error {
	campground := campgroundFromContext(c)
	if campground == nil {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	return s.renderTemplate(c, http.StatusOK, "campgrounds/edit", CampgroundFormPageData{
		TemplateData: s.getBaseTemplateData(c, "Edit "+campground.Title),
		Campground:   campground,
	})
}

// campgroundUpdate replaces the editable fields of a campground
func (s *WebServer) campgroundUpdate(c *gin.Context) error {
	form, err := campgroundFormFromContext(c)
	if err != nil {
		return err
	}

	campground, err := s.DB.FindCampgroundByIDAndUpdate(c.Param("id"), form.Update())
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	if err != nil {
		return err
	}
	s.Metrics.CountOp("campground_update")

	s.flashSuccess(c, msgCampgroundUpdated)
	redirect(c, campgroundPath(campground))
	return nil
}

// campgroundDelete removes a campground and its reviews
func (s *WebServer) campgroundDelete(c *gin.Context) error {
	_, err := s.DB.FindCampgroundByIDAndDelete(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgCampgroundMissing)
		redirect(c, campgroundsIndexPath)
		return nil
	}
	if err != nil {
		return err
	}
	s.Metrics.CountOp("campground_delete")

	s.flashSuccess(c, msgCampgroundDeleted)
	redirect(c, campgroundsIndexPath)
	return nil
}
