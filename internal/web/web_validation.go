package web

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/go-while/go-yelpcamp/internal/models"
)

// CampgroundForm is the campground[...] payload of the new and edit forms
type CampgroundForm struct {
	Title       string `form:"campground[title]" validate:"required,max=200,nohtml"`
	Location    string `form:"campground[location]" validate:"required,max=200,nohtml"`
	Image       string `form:"campground[image]" validate:"required,url,max=2048"`
	Price       string `form:"campground[price]" validate:"required,max=12,price,pricecap"`
	Description string `form:"campground[description]" validate:"required,max=5000,nohtml"`
}

func (f *CampgroundForm) trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	f.Image = strings.TrimSpace(f.Image)
	f.Price = strings.TrimSpace(f.Price)
	f.Description = strings.TrimSpace(f.Description)
}

// Update converts a validated form into the editable campground fields
func (f *CampgroundForm) Update() models.CampgroundUpdate {
	return models.CampgroundUpdate{
		Title:       f.Title,
		Location:    f.Location,
		Image:       f.Image,
		Price:       decimal.RequireFromString(f.Price),
		Description: f.Description,
	}
}

// ReviewForm is the review[...] payload of the review form on the detail page
type ReviewForm struct {
	Body   string `form:"review[body]" validate:"required,max=5000,nohtml"`
	Rating string `form:"review[rating]" validate:"required,rating"`
}

// RatingValue returns the validated rating
func (f *ReviewForm) RatingValue() int {
	n, _ := strconv.Atoi(f.Rating)
	return n
}

// RegisterForm is posted by the registration page
type RegisterForm struct {
	Username string `form:"username" validate:"required,min=3,max=50,username"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=6,max=128"`
}

// LoginForm is posted by the login page
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// maxCampgroundPrice is the highest nightly price a form may set
var maxCampgroundPrice = decimal.NewFromInt(100000)

// newValidator builds the validator with the form tag names and custom rules
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("form")
		if name == "" || name == "-" {
			return fld.Name
		}
		// campground[title] -> campground.title
		return strings.TrimSuffix(strings.ReplaceAll(name, "[", "."), "]")
	})

	strict := bluemonday.StrictPolicy()
	mustRegister(validate, "nohtml", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return html.UnescapeString(strict.Sanitize(s)) == s
	})
	mustRegister(validate, "price", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		// plain notation only: 1e300000 would expand to a huge TEXT value
		if strings.ContainsAny(s, "eE") {
			return false
		}
		d, err := decimal.NewFromString(s)
		return err == nil && !d.IsNegative()
	})
	mustRegister(validate, "pricecap", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Exponent() >= -2 && d.LessThanOrEqual(maxCampgroundPrice)
	})
	mustRegister(validate, "rating", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n >= 1 && n <= 5
	})
	mustRegister(validate, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// validationMessage renders one field error the way users read it
func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "url":
		return fmt.Sprintf("%q must be a valid uri", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "price":
		return fmt.Sprintf("%q must be a number greater than or equal to 0", field)
	case "pricecap":
		return fmt.Sprintf("%q must be at most %s with no more than 2 decimal places", field, maxCampgroundPrice)
	case "rating":
		return fmt.Sprintf("%q must be a whole number from 1 to 5", field)
	case "nohtml":
		return fmt.Sprintf("%q must not include HTML!", field)
	case "username":
		return fmt.Sprintf("%q can only contain letters, numbers, and underscores", field)
	case "min":
		return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// validationError joins all field errors into one 400 AppError
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, validationMessage(fe))
	}
	return NewAppError(strings.Join(msgs, ","), http.StatusBadRequest)
}

var accountValidator = sync.OnceValue(newValidator)

// ValidateRegistration applies the registration form rules outside a request
func ValidateRegistration(username, email, password string) error {
	form := RegisterForm{Username: username, Email: email, Password: password}
	if err := accountValidator().Struct(&form); err != nil {
		return validationError(err)
	}
	return nil
}

// ValidatePassword applies the registration password rules
func ValidatePassword(password string) error {
	return ValidateRegistration("placeholder", "placeholder@example.com", password)
}

// hasFormPrefix reports whether the request carries any field named prefix[...]
func hasFormPrefix(c *gin.Context, prefix string) bool {
	if err := c.Request.ParseForm(); err != nil {
		return false
	}
	for key := range c.Request.PostForm {
		if strings.HasPrefix(key, prefix+"[") {
			return true
		}
	}
	return false
}

// ValidateCampground binds and validates the campground payload and stores
// the form on the context for the handler
func (s *WebServer) ValidateCampground() gin.HandlerFunc {
	return wrap(func(c *gin.Context) error {
		if !hasFormPrefix(c, "campground") {
			return NewAppError("Invalid Campground Data", http.StatusBadRequest)
		}
		var form CampgroundForm
		if err := c.ShouldBindWith(&form, binding.Form); err != nil {
			return NewAppError("Invalid Campground Data", http.StatusBadRequest)
		}
		form.trim()
		if err := s.validate.Struct(&form); err != nil {
			return validationError(err)
		}
		c.Set(ctxCampgroundFormKey, &form)
		return nil
	})
}

// ValidateReview is ValidateCampground for the review payload
func (s *WebServer) ValidateReview() gin.HandlerFunc {
	return wrap(func(c *gin.Context) error {
		if !hasFormPrefix(c, "review") {
			return NewAppError("Invalid Review Data", http.StatusBadRequest)
		}
		var form ReviewForm
		if err := c.ShouldBindWith(&form, binding.Form); err != nil {
			return NewAppError("Invalid Review Data", http.StatusBadRequest)
		}
		form.Body = strings.TrimSpace(form.Body)
		form.Rating = strings.TrimSpace(form.Rating)
		if err := s.validate.Struct(&form); err != nil {
			return validationError(err)
		}
		c.Set(ctxReviewFormKey, &form)
		return nil
	})
}
