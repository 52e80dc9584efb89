// Package validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps a configured *validator.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

// New builds the validator with the custom rules used by the API.
func New() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("password", validatePassword)
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator. The first failed rule is turned into
// a readable message; handlers respond 400 with it.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s %s", strings.ToLower(fe.Field()), validationMessage(fe))
	}
	return err
}

// validatePassword requires 8 to 72 bytes (the bcrypt input limit) with at
// least one letter and one digit.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 || len(password) > 72 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// validationMessage converts validator errors into readable messages.
func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "password":
		return "must be 8-72 characters and include at least one letter and one digit"
	default:
		return "is invalid"
	}
}
