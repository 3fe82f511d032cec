package router

import (
	"net/http"

	"github.com/deppfellow/contactform/internal/handler"
	"github.com/deppfellow/contactform/internal/middleware"
	"github.com/labstack/echo/v4"
)

// ProcessPath is the single business path.
const ProcessPath = "/process"

// registerFormRoutes binds the contact form endpoint. Both views are
// rendered with 200.
func registerFormRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	r.POST(ProcessPath,
		handler.HandleView(h.Form.Handler, handler.BindSubmission, h.Form.Process, http.StatusOK),
		m.RateLimit.Limit(),
	)
}
