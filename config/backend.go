package config

import (
	"strings"
	"time"
)

// BackendConfig contains the marketplace backend API configuration.
// Everything behind this base URL (orders, books, reviews, wishlist, users)
// is an external collaborator; this service only consumes the user surface.
type BackendConfig struct {
	// BaseURL is the root of the marketplace REST API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000/api"`

	// Timeout is the fixed per-request timeout. A timed-out call surfaces
	// as a network-class error, handled like any other transport failure.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	b.BaseURL = strings.TrimRight(b.BaseURL, "/")
}
