package validation

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/linkup-app/backend/internal/errors"
)

// RegisterGinValidators wires the custom validators into gin's binding
// engine so DTO `binding` tags enforce them declaratively per route.
func RegisterGinValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("linkup_username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	v.RegisterValidation("linkup_password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})
	v.RegisterValidation("linkup_title", func(fl validator.FieldLevel) bool {
		return ValidateTitle(fl.Field().String()) == nil
	})
	v.RegisterValidation("linkup_url", func(fl validator.FieldLevel) bool {
		// Optional fields bind as empty strings; emptiness is handled
		// by the required tag, not here.
		s := fl.Field().String()
		if s == "" {
			return true
		}
		return ValidateURL(s) == nil
	})
}

// messageFor maps a failed validator tag to a human-readable message
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid address"
	case "linkup_username":
		return "must be 3-30 characters, start with a letter and contain only letters, digits and underscores"
	case "linkup_password":
		return "must be at least 8 characters with an uppercase letter, a lowercase letter and a digit"
	case "linkup_title":
		return "must be 1-120 characters"
	case "linkup_url":
		return "must be an absolute http(s) URL"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	default:
		return "is invalid"
	}
}

// ViolationsFromBindError converts a gin binding error into field-level
// violations for the 400 response. Non-validator errors (malformed JSON)
// yield a single body-level violation.
func ViolationsFromBindError(err error) []apierrors.FieldViolation {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		violations := make([]apierrors.FieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			violations = append(violations, apierrors.FieldViolation{
				Field:   snakeCase(fe.Field()),
				Message: messageFor(fe),
			})
		}
		return violations
	}
	return []apierrors.FieldViolation{{Field: "body", Message: "request body is malformed"}}
}

// snakeCase converts a Go struct field name to its JSON form
func snakeCase(name string) string {
	out := make([]rune, 0, len(name)+4)
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, r+('a'-'A'))
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}
