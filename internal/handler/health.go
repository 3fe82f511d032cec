package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/contactform/internal/middleware"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the service can answer submissions.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

func (h *HealthHandler) recordHealthError(fields map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", fields)
	}
}

// CheckHealth returns 200 when every view is loaded and renders its preview
// data, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	viewsStart := time.Now()
	err := h.checkViews()
	if err != nil {
		checks["views"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(viewsStart).String(),
			"error":         err.Error(),
		}

		isHealthy = false

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(viewsStart)).
			Msg("views health check failed")

		h.recordHealthError(map[string]interface{}{
			"check_type":       "views",
			"operation":        "health_check",
			"error_type":       "views_unhealthy",
			"response_time_ms": time.Since(viewsStart).Milliseconds(),
			"error_message":    err.Error(),
		})
	} else {
		checks["views"] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(viewsStart).String(),
			"loaded":        h.server.Views.Names(),
		}

		logger.Debug().
			Dur("response_time", time.Since(viewsStart)).
			Msg("views health check passed")
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")

		h.recordHealthError(map[string]interface{}{
			"check_type":    "response",
			"operation":     "health_check",
			"error_type":    "json_response_error",
			"error_message": err.Error(),
		})

		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) checkViews() error {
	if !h.server.Views.Ready() {
		return fmt.Errorf("views not loaded")
	}

	return h.server.Views.Check()
}
