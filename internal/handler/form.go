package handler

import (
	"github.com/deppfellow/contactform/internal/errs"
	"github.com/deppfellow/contactform/internal/middleware"
	"github.com/deppfellow/contactform/internal/model"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/deppfellow/contactform/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// FormHandler serves the contact form endpoint.
type FormHandler struct {
	Handler
	services *service.Services
}

func NewFormHandler(s *server.Server, services *service.Services) *FormHandler {
	return &FormHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

// BindSubmission reads name, email and message from a form-encoded body.
// Missing fields are left empty; other parameters are ignored.
//
// Only a body that cannot be parsed is an error.
func BindSubmission(c echo.Context) (model.FormSubmission, error) {
	var submission model.FormSubmission

	if _, err := c.FormParams(); err != nil {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			return submission, err
		}

		return submission, errs.NewBadRequestError("Malformed form body", true, nil, nil)
	}

	err := echo.FormFieldBinder(c).
		String(model.KeyName, &submission.Name).
		String(model.KeyEmail, &submission.Email).
		String(model.KeyMessage, &submission.Message).
		BindError()

	return submission, err
}

// Process selects the result or error view for a submission.
//
// A rejected submission is an ordinary outcome, never an error.
func (h *FormHandler) Process(c echo.Context, submission model.FormSubmission) (model.Outcome, error) {
	outcome := h.services.Form.Handle(submission, c.Request().Header.Get("Accept-Language"))

	logger := middleware.GetLogger(c)
	if outcome.Succeeded() {
		logger.Info().Str("view", string(outcome.View)).Msg("submission accepted")
	} else {
		logger.Info().
			Str("view", string(outcome.View)).
			Strs("blank_fields", outcome.BlankFields).
			Msg("submission rejected")
	}

	return outcome, nil
}
