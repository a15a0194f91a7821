package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-masterbrain-be/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors carries per-field messages of a failed validation.
type FieldErrors struct {
	Fields map[string]string
	err    error
}

func (f *FieldErrors) Error() string { return f.err.Error() }

func (f *FieldErrors) Unwrap() error { return f.err }

// ValidateRequest checks the validate tags of req. Failures are validation
// errors listing each offending field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = describe(fe)
		names = append(names, name)
	}

	return &FieldErrors{
		Fields: fields,
		err:    apperror.Validation("invalid fields: " + strings.Join(names, ", ")),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "unique":
		return "must not contain duplicates"
	default:
		return "failed " + fe.Tag()
	}
}
