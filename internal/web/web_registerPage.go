package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const (
	msgWelcome    = "Welcome to Yelp Camp!"
	msgUserExists = "A user with the given username or email is already registered"
)

// RegisterPageData represents data for register page
type RegisterPageData struct {
	TemplateData
	Username string
	Email    string
}

// registerPage displays the registration form
func (s *WebServer) registerPage(c *gin.Context) error {
	// Check if user is already logged in
	if s.currentUser(c) != nil {
		redirect(c, campgroundsIndexPath)
		return nil
	}
	return s.renderTemplate(c, http.StatusOK, "users/register", RegisterPageData{
		TemplateData: s.getBaseTemplateData(c, "Register"),
	})
}

// registerSubmit creates the account and signs it in
func (s *WebServer) registerSubmit(c *gin.Context) error {
	var form RegisterForm
	_ = c.ShouldBind(&form)
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	if err := s.validate.Struct(&form); err != nil {
		var appErr *AppError
		if errors.As(validationError(err), &appErr) {
			s.flashError(c, appErr.Message)
		} else {
			s.flashError(c, "Invalid registration data")
		}
		redirect(c, "/register")
		return nil
	}

	passwordHash, err := hashPassword(form.Password)
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: passwordHash,
	}
	err = s.DB.InsertUser(user)
	if errors.Is(err, database.ErrUserExists) {
		s.flashError(c, msgUserExists)
		redirect(c, "/register")
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("User registered", zap.String("username", user.Username))

	if err := s.signIn(c, user); err != nil {
		return err
	}
	s.flashSuccess(c, msgWelcome)
	redirect(c, campgroundsIndexPath)
	return nil
}
