package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	goval "github.com/go-passwd/validator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
)

var validate = validator.New()

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func init() {
	if err := validate.RegisterValidation("handle", validHandle); err != nil {
		panic(err)
	}
}

func validHandle(fl validator.FieldLevel) bool {
	return handlePattern.MatchString(fl.Field().String())
}

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
)

var passwordPolicy = goval.New(
	goval.MinLength(6, ErrPasswordTooShort),
	goval.MaxLength(72, ErrPasswordTooLong))

// Validate normalizes the request's string fields in place, then
// checks its validation rules.
func Validate(req any) error {
	if err := conform.Strings(req); err != nil {
		return fmt.Errorf("normalize request: %w", err)
	}
	return validate.Struct(req)
}

// ValidatePassword applies the password policy. Length is bounded
// above because bcrypt ignores input past 72 bytes.
func ValidatePassword(password string) error {
	return passwordPolicy.Validate(password)
}

// IsValidationError reports whether err came from request validation
// or the password policy, as opposed to an internal failure.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	return errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong)
}

// ValidationMessage turns a validation failure into a sentence fit for
// an API response.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return "email must be a valid address"
	case "handle":
		return "handle may only contain letters, digits and underscores"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
