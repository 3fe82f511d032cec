package handler

import (
	"github.com/deppfellow/contactform/internal/server"
	"github.com/deppfellow/contactform/internal/service"
)

// Handlers groups all HTTP handlers so the router receives one value.
type Handlers struct {
	Form   *FormHandler
	Health *HealthHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Form:   NewFormHandler(s, services),
		Health: NewHealthHandler(s),
	}
}
