package web

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampgroundFormValidation(t *testing.T) {
	v := newValidator()
	valid := CampgroundForm{
		Title:       "Tom & Jerry's Camp",
		Location:    "Reno, Nevada",
		Image:       "https://example.com/a.jpg",
		Price:       "0",
		Description: "Prices < $20 on weekdays",
	}
	require.NoError(t, v.Struct(&valid))

	upd := valid.Update()
	assert.True(t, decimal.Zero.Equal(upd.Price))
	assert.Equal(t, "Tom & Jerry's Camp", upd.Title)

	invalid := valid
	invalid.Title = ""
	invalid.Description = "<b>bold</b>"
	err := validationError(v.Struct(&invalid))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, `"campground.title" is required,"campground.description" must not include HTML!`, appErr.Message)
}

func TestReviewFormValidation(t *testing.T) {
	v := newValidator()
	for _, rating := range []string{"1", "5"} {
		f := ReviewForm{Body: "fine", Rating: rating}
		assert.NoError(t, v.Struct(&f), rating)
	}
	for _, rating := range []string{"0", "6", "x", ""} {
		f := ReviewForm{Body: "fine", Rating: rating}
		assert.Error(t, v.Struct(&f), rating)
	}
	f := ReviewForm{Body: "ok", Rating: "4"}
	assert.Equal(t, 4, f.RatingValue())
}

func TestAppError(t *testing.T) {
	err := NewAppError("Invalid Campground Data", http.StatusBadRequest)
	assert.Equal(t, "400: Invalid Campground Data", err.Error())
	assert.Equal(t, http.StatusInternalServerError, NewAppError("boom", 0).Status)
}

func TestValidateRegistration(t *testing.T) {
	assert.NoError(t, ValidateRegistration("camper_1", "camper@example.com", "secret1"))

	err := ValidateRegistration("bad name", "nope", "123")
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, `"username" can only contain letters, numbers, and underscores`)
	assert.Contains(t, appErr.Message, `"email" must be a valid email`)
	assert.Contains(t, appErr.Message, `"password" length must be at least 6 characters long`)

	assert.NoError(t, ValidatePassword("secret1"))
	assert.Error(t, ValidatePassword(""))
}

func TestPriceRules(t *testing.T) {
	v := newValidator()
	form := func(price string) *CampgroundForm {
		return &CampgroundForm{
			Title:       "Camp",
			Location:    "Reno, Nevada",
			Image:       "https://example.com/a.jpg",
			Price:       price,
			Description: "ok",
		}
	}
	for _, price := range []string{"0", "12", "24.99", "10.5", "100000", "100000.00"} {
		assert.NoError(t, v.Struct(form(price)), price)
	}
	for _, price := range []string{"-1", "1e3", "1E3", "1e3000000", "2e-1", "100000.01", "9.999", "0000000000001", "abc"} {
		assert.Error(t, v.Struct(form(price)), price)
	}
}
