// Package validate builds the validator shared by request handlers, with the
// banking-specific tags registered.
package validate

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom tags.
const (
	// TagPassword requires a digit, a lowercase and an uppercase letter and one of !@#$%^&*.
	TagPassword = "password"
	// TagPhone requires international format: '+' followed by 10 to 15 digits.
	TagPhone = "intlphone"
)

const passwordSpecials = "!@#$%^&*"

var phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// New returns a validator that reports fields by their json name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	// Registration of a fixed tag with a non-nil func cannot fail.
	_ = v.RegisterValidation(TagPassword, func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation(TagPhone, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// StrongPassword reports whether s has a digit, a lowercase letter, an uppercase
// letter and a special character.
func StrongPassword(s string) bool {
	var digit, lower, upper, special bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return digit && lower && upper && special
}
