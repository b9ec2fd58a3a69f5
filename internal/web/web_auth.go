package web

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const sessionCookieName = "session_id"

// Flash message types
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// flashEntry holds everything kept server side for one session between requests
type flashEntry struct {
	success  []string
	errors   []string
	returnTo string
	touched  time.Time
}

// FlashStore keeps one-time messages per session id in memory
type FlashStore struct {
	mu      sync.Mutex
	entries map[string]*flashEntry
}

// NewFlashStore creates an empty store
func NewFlashStore() *FlashStore {
	return &FlashStore{entries: make(map[string]*flashEntry)}
}

func (f *FlashStore) entry(sessionID string) *flashEntry {
	e := f.entries[sessionID]
	if e == nil {
		e = &flashEntry{}
		f.entries[sessionID] = e
	}
	e.touched = time.Now()
	return e
}

// Add queues a message of the given type for the session
func (f *FlashStore) Add(sessionID, kind, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(sessionID)
	if kind == FlashError {
		e.errors = append(e.errors, msg)
	} else {
		e.success = append(e.success, msg)
	}
}

// GetAndClear returns and removes the queued messages of a session
func (f *FlashStore) GetAndClear(sessionID string) (success, errs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[sessionID]
	if e == nil {
		return nil, nil
	}
	success, errs = e.success, e.errors
	e.success, e.errors = nil, nil
	if e.returnTo == "" {
		delete(f.entries, sessionID)
	}
	return success, errs
}

// SetReturnTo remembers where to send the user after signing in
func (f *FlashStore) SetReturnTo(sessionID, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry(sessionID).returnTo = url
}

// TakeReturnTo returns and clears the remembered URL
func (f *FlashStore) TakeReturnTo(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[sessionID]
	if e == nil {
		return ""
	}
	url := e.returnTo
	e.returnTo = ""
	if len(e.success) == 0 && len(e.errors) == 0 {
		delete(f.entries, sessionID)
	}
	return url
}

// Move hands pending messages from one session id to another
func (f *FlashStore) Move(from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[from]
	if e == nil || from == to {
		return
	}
	delete(f.entries, from)
	dst := f.entry(to)
	dst.success = append(dst.success, e.success...)
	dst.errors = append(dst.errors, e.errors...)
	if dst.returnTo == "" {
		dst.returnTo = e.returnTo
	}
}

// Drop forgets everything stored for the session
func (f *FlashStore) Drop(sessionID string) {
	f.mu.Lock()
	delete(f.entries, sessionID)
	f.mu.Unlock()
}

// Expire removes entries untouched for longer than maxAge
func (f *FlashStore) Expire(maxAge time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, e := range f.entries {
		if e.touched.Before(cutoff) {
			delete(f.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions with pending state
func (f *FlashStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// SessionData is the per-request view of the browser session.
// SessionID is empty until something needs to be stored.
type SessionData struct {
	SessionID string
	UserID    primitive.ObjectID
	User      *models.User
	ExpiresAt time.Time
}

// SignedIn reports whether a user is attached to the session
func (s *SessionData) SignedIn() bool {
	return s != nil && s.User != nil
}

// SessionMiddleware loads the session named by the cookie, if any
func (s *WebServer) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxSessionKey, s.loadSession(c))
		c.Next()
	}
}

func (s *WebServer) loadSession(c *gin.Context) *SessionData {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		return &SessionData{}
	}

	session, err := s.DB.GetSession(sessionID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.log.Warn("Session lookup failed", zap.Error(err))
		}
		return &SessionData{}
	}

	data := &SessionData{SessionID: session.ID, ExpiresAt: session.ExpiresAt}
	if session.SignedIn() {
		user, err := s.DB.GetUserByID(session.UserID)
		if err != nil {
			// account deleted while signed in
			return data
		}
		data.UserID = user.ID
		data.User = user
	}
	return data
}

// session returns the request's session data; never nil
func (s *WebServer) session(c *gin.Context) *SessionData {
	if v, ok := c.Get(ctxSessionKey); ok {
		if data, ok := v.(*SessionData); ok {
			return data
		}
	}
	data := &SessionData{}
	c.Set(ctxSessionKey, data)
	return data
}

// currentUser returns the signed-in user or nil
func (s *WebServer) currentUser(c *gin.Context) *models.User {
	return s.session(c).User
}

// ensureSession creates an anonymous session when the browser has none yet
func (s *WebServer) ensureSession(c *gin.Context) (*SessionData, error) {
	data := s.session(c)
	if data.SessionID != "" {
		return data, nil
	}
	session, err := s.DB.CreateSession(primitive.NilObjectID, c.ClientIP())
	if err != nil {
		return nil, err
	}
	data.SessionID = session.ID
	data.ExpiresAt = session.ExpiresAt
	s.setSessionCookie(c, session.ID)
	return data, nil
}

// signIn replaces the current session with a fresh one owned by user.
// Pending flashes and the return URL move to the new session.
func (s *WebServer) signIn(c *gin.Context, user *models.User) error {
	old := s.session(c)
	session, err := s.DB.CreateSession(user.ID, c.ClientIP())
	if err != nil {
		return err
	}
	if old.SessionID != "" {
		s.flashes.Move(old.SessionID, session.ID)
		if err := s.DB.DeleteSession(old.SessionID); err != nil {
			s.log.Warn("Failed to delete replaced session", zap.Error(err))
		}
	}
	c.Set(ctxSessionKey, &SessionData{
		SessionID: session.ID,
		UserID:    user.ID,
		User:      user,
		ExpiresAt: session.ExpiresAt,
	})
	s.setSessionCookie(c, session.ID)
	return nil
}

// signOut drops the session; later flashes go to a new anonymous session
func (s *WebServer) signOut(c *gin.Context) error {
	old := s.session(c)
	if old.SessionID != "" {
		s.flashes.Drop(old.SessionID)
		if err := s.DB.DeleteSession(old.SessionID); err != nil {
			return err
		}
	}
	c.Set(ctxSessionKey, &SessionData{})
	s.clearSessionCookie(c)
	return nil
}

func (s *WebServer) flash(c *gin.Context, kind, msg string) {
	data, err := s.ensureSession(c)
	if err != nil {
		s.log.Warn("Dropping flash message, no session", zap.String("message", msg), zap.Error(err))
		return
	}
	s.flashes.Add(data.SessionID, kind, msg)
}

// flashSuccess queues a success message for the next rendered page
func (s *WebServer) flashSuccess(c *gin.Context, msg string) {
	s.flash(c, FlashSuccess, msg)
}

// flashError queues an error message for the next rendered page
func (s *WebServer) flashError(c *gin.Context, msg string) {
	s.flash(c, FlashError, msg)
}

// RequireLogin redirects anonymous visitors to the login page.
// The original URL of GET requests is remembered for after sign-in.
func (s *WebServer) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.currentUser(c)
		if user == nil {
			if c.Request.Method == http.MethodGet {
				if data, err := s.ensureSession(c); err == nil {
					s.flashes.SetReturnTo(data.SessionID, c.Request.URL.RequestURI())
				}
			}
			s.flashError(c, msgSignInRequired)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		// Store user in context for handlers
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// hashPassword creates a bcrypt hash of the password
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// HashPassword is hashPassword for the command line tools
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

// checkPassword checks if password matches hash
func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// isHTTPS detects HTTPS from the request or a trusted proxy header
func isHTTPS(c *gin.Context) bool {
	return c.Request != nil && (c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https"))
}

// Helper function to set session cookie
func (s *WebServer) setSessionCookie(c *gin.Context, sessionID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(c),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
}

// Helper function to clear session cookie
func (s *WebServer) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(c),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1, // Delete cookie
	})
}
