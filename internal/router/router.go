// Package router builds the Echo instance: global middleware, the renderer,
// the error handler and every route.
package router

import (
	"net"

	"github.com/deppfellow/contactform/internal/handler"
	"github.com/deppfellow/contactform/internal/middleware"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires the middleware chain and routes.
//
// Order matters: the request ID and New Relic transaction must exist before
// the request logger is built, and the logger before anything logs.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.IPExtractor = ipExtractor(s.Config.Server.TrustedProxies)
	router.Renderer = s.Views
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.BodyLimit(),
	)

	registerSystemRoutes(router, h)
	registerFormRoutes(router, h, middlewares)

	return router
}

// ipExtractor resolves the client IP used for logs and rate limiting.
//
// Without trusted proxies the socket address is the client. Otherwise
// X-Forwarded-For is walked from the right, skipping only trusted ranges.
func ipExtractor(trustedProxies []string) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}

	for _, cidr := range trustedProxies {
		// Ranges are validated when the config is loaded.
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			options = append(options, echo.TrustIPRange(network))
		}
	}

	return echo.ExtractIPFromXFFHeader(options...)
}
