package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppError is an error with the HTTP status it should be rendered with
type AppError struct {
	Status  int
	Message string
}

// NewAppError creates an AppError; a zero status means 500
func NewAppError(message string, status int) *AppError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &AppError{Status: status, Message: message}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// handlerFunc is a gin handler that reports failures by returning them
type handlerFunc func(c *gin.Context) error

// wrap adapts a handlerFunc to gin. A returned error is recorded on the
// context and the chain is aborted; errorHandler renders it.
func wrap(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			_ = c.Error(err)
			c.Abort()
		}
	}
}

// errorHandler renders the last error recorded by a handler or middleware
func (s *WebServer) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		message := "Something went wrong"
		var appErr *AppError
		if errors.As(err, &appErr) {
			status = appErr.Status
			message = appErr.Message
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ctxRequestIDKey)),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			s.log.Error("Request failed", fields...)
		} else {
			s.log.Info("Request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		s.renderError(c, status, message, err)
	}
}

// notFoundHandler turns unmatched routes into a 404 error page
func (s *WebServer) notFoundHandler(c *gin.Context) error {
	return NewAppError("Page Not Found", http.StatusNotFound)
}
