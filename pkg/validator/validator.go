package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a struct against its `validate` tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: verrs}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with readable messages.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fe.Field(), msgForTag(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field names to their validation messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = msgForTag(fe)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate decodes the JSON request body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
