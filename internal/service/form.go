package service

import (
	"errors"
	"strings"

	"github.com/deppfellow/contactform/internal/model"
	"github.com/deppfellow/contactform/internal/validation"
)

// ValidationError reports that one or more required fields are missing or blank.
//
// It never reaches the HTTP error path: Handle turns it into the error view.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "one or more required fields missing or blank: " + strings.Join(e.Fields, ", ")
}

// FormService decides which view a contact form submission gets.
//
// It holds no per-request state and is safe for concurrent use.
type FormService struct {
	messages *Messages
}

// NewFormService creates a FormService using messages for rejections.
func NewFormService(messages *Messages) *FormService {
	return &FormService{messages: messages}
}

// Validate returns a *ValidationError when any field is blank after trimming.
func (s *FormService) Validate(submission model.FormSubmission) error {
	if err := submission.Validate(); err != nil {
		return &ValidationError{Fields: validation.FieldNames(err)}
	}

	return nil
}

// Handle selects the view for submission.
//
// A valid submission gets the result view with the values exactly as posted.
// Otherwise the error view gets only the rejection message, chosen with
// acceptLanguage when negotiation is enabled.
func (s *FormService) Handle(submission model.FormSubmission, acceptLanguage string) model.Outcome {
	lang := s.messages.Language(acceptLanguage)

	var validationErr *ValidationError
	if errors.As(s.Validate(submission), &validationErr) {
		return model.Outcome{
			View:        model.ViewError,
			Context:     model.ErrorContext(s.messages.RequiredFields(acceptLanguage)),
			Lang:        lang,
			BlankFields: validationErr.Fields,
		}
	}

	return model.Outcome{
		View:    model.ViewResult,
		Context: model.ResultContext(submission),
		Lang:    lang,
	}
}
