package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/go-while/go-yelpcamp/internal/config"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const layoutTemplate = "templates/layouts/boilerplate.html"

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	User        *models.User
	Success     []string
	Errors      []string
	AppVersion  string
	CurrentPath string
	RequestID   string
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// formatPrice renders a price as dollars with grouping, e.g. $1,250.00
func formatPrice(d decimal.Decimal) string {
	return pricePrinter.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// stars renders a 1..5 rating as filled and empty stars
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

var templateFuncs = template.FuncMap{
	"price":      formatPrice,
	"priceInput": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"stars":      stars,
	"hex":        func(id primitive.ObjectID) string { return id.Hex() },
	"authored":   authored,
}

// authored reports whether user wrote the record with authorID
func authored(user *models.User, authorID primitive.ObjectID) bool {
	return user != nil && !authorID.IsZero() && user.ID == authorID
}

// loadTemplates parses every page together with the layout and partials.
// Pages are keyed by their path below templates/ without extension, e.g. "campgrounds/show".
func loadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	partials, err := fs.Glob(fsys, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(fsys, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		if strings.HasPrefix(p, "templates/layouts/") || strings.HasPrefix(p, "templates/partials/") {
			return nil
		}

		files := append([]string{layoutTemplate}, partials...)
		files = append(files, p)
		tmpl, err := template.New(path.Base(layoutTemplate)).Funcs(templateFuncs).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		pages[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// getBaseTemplateData creates a TemplateData struct with the user and pending flashes
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	data := TemplateData{
		Title:       title,
		AppVersion:  config.AppVersion,
		CurrentPath: c.Request.URL.Path,
		RequestID:   c.GetString(ctxRequestIDKey),
	}

	session := s.session(c)
	data.User = session.User
	if session.SessionID != "" {
		data.Success, data.Errors = s.flashes.GetAndClear(session.SessionID)
	}
	return data
}

// renderTemplate executes a page into a buffer first so a template failure
// can still become an error page
func (s *WebServer) renderTemplate(c *gin.Context, status int, name string, data interface{}) error {
	tmpl, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, path.Base(layoutTemplate), data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

// ErrorPageData is rendered by the error page
type ErrorPageData struct {
	TemplateData
	StatusCode int
	Error      string
	Detail     string
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, cause error) {
	data := ErrorPageData{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		StatusCode:   statusCode,
		Error:        message,
	}
	if s.Config.Debug && cause != nil {
		data.Detail = cause.Error()
	}

	if err := s.renderTemplate(c, statusCode, "error", data); err != nil {
		s.log.Error("Error rendering error template", zap.Error(err))
		c.String(statusCode, "Error: %s", message)
	}
}

// redirect sends the 303 used after every form submission
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
