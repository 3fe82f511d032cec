package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/contactform/internal/errs"
	"github.com/go-playground/validator/v10"
)

// New returns a validator with the project's extra tags registered.
//
//   - notblank: a string is valid when something is left after trimming every
//     code point up to and including U+0020 from both ends.
//
// Field names in errors come from the `form` tag when present.
func New() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("notblank", notBlank); err != nil {
		// Only fails on an empty tag or nil func.
		panic(err)
	}

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return validate
}

func isTrimmed(r rune) bool {
	return r <= ' '
}

// Trim removes the code points notblank ignores. Control characters and the
// ASCII space are trimmed; other Unicode spaces such as U+00A0 are content.
func Trim(s string) string {
	return strings.TrimFunc(s, isTrimmed)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}

	return Trim(field.String()) != ""
}

// FieldNames returns the lower-cased names of the fields that failed, in
// declaration order. Errors that are not validator errors yield nil.
func FieldNames(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	names := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		names = append(names, strings.ToLower(fieldErr.Field()))
	}

	return names
}

// FieldErrors converts validator errors into client-friendly field errors.
func FieldErrors(err error) []errs.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fieldErrors := make([]errs.FieldError, 0, len(validationErrors))

	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		var msg string

		switch fieldErr.Tag() {
		case "required":
			msg = "is required"

		case "notblank":
			msg = "must not be blank"

		case "min":
			if fieldErr.Kind() == reflect.String || fieldErr.Kind() == reflect.Slice {
				msg = fmt.Sprintf("must have at least %s items or characters", fieldErr.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", fieldErr.Param())
			}

		case "gte":
			msg = fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fieldErr.Param())

		case "numeric":
			msg = "must be numeric"

		case "bcp47_language_tag":
			msg = "must be a BCP 47 language tag"

		default:
			if fieldErr.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, fieldErr.Tag(), fieldErr.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, fieldErr.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return fieldErrors
}
