package model

import (
	"github.com/deppfellow/contactform/internal/validation"
)

// View names a template that turns a RenderContext into the response body.
type View string

const (
	ViewResult View = "result"
	ViewError  View = "error"
)

// Keys of a RenderContext.
const (
	KeyName    = "name"
	KeyEmail   = "email"
	KeyMessage = "message"
	KeyError   = "error"
)

var validate = validation.New()

// FormSubmission is the posted contact form. Absent fields are empty strings.
type FormSubmission struct {
	Name    string `form:"name" validate:"notblank"`
	Email   string `form:"email" validate:"notblank"`
	Message string `form:"message" validate:"notblank"`
}

// Validate checks every field in one pass; the returned
// validator.ValidationErrors lists all blank fields.
func (s FormSubmission) Validate() error {
	return validate.Struct(s)
}

// RenderContext is the data handed to a view.
//
// It is built only through ResultContext or ErrorContext, so it always holds
// either the three submission fields or the single error key.
type RenderContext map[string]string

// ResultContext carries the submission values exactly as they were posted.
func ResultContext(s FormSubmission) RenderContext {
	return RenderContext{
		KeyName:    s.Name,
		KeyEmail:   s.Email,
		KeyMessage: s.Message,
	}
}

// ErrorContext carries only the error message.
func ErrorContext(message string) RenderContext {
	return RenderContext{
		KeyError: message,
	}
}

// Outcome is the view selected for a submission and the data to render it with.
//
// Lang is the BCP 47 tag of the page language. BlankFields names the fields
// that caused a rejection and is only meant for logs.
type Outcome struct {
	View        View
	Context     RenderContext
	Lang        string
	BlankFields []string
}

// Succeeded reports whether the result view was selected.
func (o Outcome) Succeeded() bool {
	return o.View == ViewResult
}
