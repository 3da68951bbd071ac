// Package validate runs struct tag validation and turns failures into a single
// domain validation error whose message is safe to show to the caller.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	// Digits with optional leading + and the usual separators.
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{4,19}$`)
	// Scope codes end up in DynamoDB keys and settings map keys.
	codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("code", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})
	return val
}

// Struct validates s by its validate tags.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, message(fe))
	}
	return domain.Validation(strings.Join(msgs, " "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address.", fe.Field())
	case "phone":
		return fmt.Sprintf("%s must be a phone number.", fe.Field())
	case "code":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'.", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}
