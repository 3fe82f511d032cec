package service

import (
	"fmt"

	"github.com/deppfellow/contactform/internal/server"
)

// Services groups every business service so handlers receive one value.
type Services struct {
	Form *FormService
}

// NewServices builds the services from the application container.
func NewServices(s *server.Server) (*Services, error) {
	messages, err := NewMessages(s.Config.Form.Locale, s.Config.Form.NegotiateLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to build form messages: %w", err)
	}

	return &Services{
		Form: NewFormService(messages),
	}, nil
}
