package view

import "github.com/deppfellow/contactform/internal/model"

// PreviewData contains sample contexts for every view.
//
// It is used by the check command and the health check to prove each
// template executes against the keys a handler provides.
var PreviewData = map[model.View]model.RenderContext{
	model.ViewError: model.ErrorContext("all fields are required"),
	model.ViewResult: model.ResultContext(model.FormSubmission{
		Name:    "Jo",
		Email:   "jo@example.com",
		Message: "Hello,\n  this is a preview. ",
	}),
}
