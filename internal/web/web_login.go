package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/database"
)

const (
	msgWelcomeBack     = "welcome back!"
	msgGoodbye         = "Goodbye!"
	msgBadCredentials  = "Password or username is incorrect"
	msgLockedOut       = "Account temporarily locked due to too many failed attempts. Try again in 15 minutes."
	msgCredentialsNeed = "Username and password are required"
)

// LoginPageData represents data for login page
type LoginPageData struct {
	TemplateData
	Username string
}

// loginPage displays the login form
func (s *WebServer) loginPage(c *gin.Context) error {
	// Check if user is already logged in
	if s.currentUser(c) != nil {
		redirect(c, campgroundsIndexPath)
		return nil
	}
	return s.renderTemplate(c, http.StatusOK, "users/login", LoginPageData{
		TemplateData: s.getBaseTemplateData(c, "Login"),
	})
}

// loginSubmit processes login form submission
func (s *WebServer) loginSubmit(c *gin.Context) error {
	var form LoginForm
	_ = c.ShouldBind(&form)
	form.Username = strings.TrimSpace(form.Username)
	if err := s.validate.Struct(&form); err != nil {
		s.flashError(c, msgCredentialsNeed)
		redirect(c, "/login")
		return nil
	}

	// Check if user is locked out
	lockedOut, err := s.DB.IsUserLockedOut(form.Username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if lockedOut {
		s.flashError(c, msgLockedOut)
		redirect(c, "/login")
		return nil
	}

	user, err := s.DB.GetUserByUsername(form.Username)
	if errors.Is(err, database.ErrNotFound) {
		s.flashError(c, msgBadCredentials)
		redirect(c, "/login")
		return nil
	}
	if err != nil {
		return err
	}

	if !checkPassword(form.Password, user.PasswordHash) {
		if err := s.DB.IncrementLoginAttempts(user.Username); err != nil {
			s.log.Warn("Failed to count login attempt", zap.String("username", user.Username), zap.Error(err))
		}
		s.flashError(c, msgBadCredentials)
		redirect(c, "/login")
		return nil
	}

	if err := s.DB.ResetLoginAttempts(user.ID); err != nil {
		s.log.Warn("Failed to reset login attempts", zap.String("username", user.Username), zap.Error(err))
	}

	returnTo := ""
	if old := s.session(c); old.SessionID != "" {
		returnTo = s.flashes.TakeReturnTo(old.SessionID)
	}
	if err := s.signIn(c, user); err != nil {
		return err
	}
	s.log.Info("User signed in", zap.String("username", user.Username), zap.String("ip", c.ClientIP()))

	s.flashSuccess(c, msgWelcomeBack)
	redirect(c, safeReturnTo(returnTo))
	return nil
}

// logout signs the user out
func (s *WebServer) logout(c *gin.Context) error {
	if err := s.signOut(c); err != nil {
		return err
	}
	s.flashSuccess(c, msgGoodbye)
	redirect(c, campgroundsIndexPath)
	return nil
}

// safeReturnTo only allows local paths as post-login destinations
func safeReturnTo(u string) string {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return campgroundsIndexPath
	}
	return u
}
