package handler

import (
	"time"

	"github.com/deppfellow/contactform/internal/middleware"
	"github.com/deppfellow/contactform/internal/model"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler holds the shared application dependencies for concrete handlers.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// BindFunc reads a request payload. Errors go to the global error handler.
type BindFunc[Req any] func(c echo.Context) (Req, error)

// ViewFunc handles a bound request and selects the view that answers it.
type ViewFunc[Req any] func(c echo.Context, req Req) (model.Outcome, error)

// ResponseHandler writes a successful handler result and describes it for
// logs and tracing.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error
	GetOperation() string
	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// ViewResponseHandler renders a model.Outcome through the Echo renderer. The
// whole outcome is passed on so the page can use its language.
type ViewResponseHandler struct {
	status int
}

func (h ViewResponseHandler) Handle(c echo.Context, result interface{}) error {
	outcome := result.(model.Outcome)

	return c.Render(h.status, string(outcome.View), outcome)
}

func (h ViewResponseHandler) GetOperation() string {
	return "handler_view"
}

func (h ViewResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil {
		return
	}

	// http.status_code is set by EnhanceTracing.
	if outcome, ok := result.(model.Outcome); ok {
		txn.AddAttribute("view.name", string(outcome.View))
		txn.AddAttribute("view.lang", outcome.Lang)
	}
}

// handleRequest is the execution pipeline shared by all handlers: binding,
// the handler itself and the response, each timed, logged and traced.
func handleRequest[Req any](
	c echo.Context,
	bind BindFunc[Req],
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	bindStart := time.Now()
	req, err := bind(c)
	bindDuration := time.Since(bindStart)

	if err != nil {
		logger.Warn().
			Err(err).
			Dur("bind_duration", bindDuration).
			Msg("request binding failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("bind.status", "failed")
		}

		return err
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
		}

		return err
	}

	if err := responseHandler.Handle(c, result); err != nil {
		logger.Error().
			Err(err).
			Dur("total_duration", time.Since(start)).
			Msg("failed to write response")

		return err
	}

	totalDuration := time.Since(start)

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())

		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("bind_duration", bindDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed")

	return nil
}

// HandleView wraps a ViewFunc into an echo.HandlerFunc that renders the
// selected view with status.
//
//	router.POST("/process", handler.HandleView(h, handler.BindSubmission, h.Process, http.StatusOK))
func HandleView[Req any](
	h Handler,
	bind BindFunc[Req],
	handler ViewFunc[Req],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, bind, func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, ViewResponseHandler{status: status})
	}
}
