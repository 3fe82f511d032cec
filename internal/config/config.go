// Package config loads the application configuration from the environment.
//
// Variables are read with the CONTACTFORM_ prefix (optionally from a `.env`
// file), mapped into typed structs and validated so the process fails fast on
// bad or missing values.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config.
//   - Validate the result with go-playground/validator.
//   - Provide defaults for every optional block.
package config

import (
	"fmt"
	"strings"

	"github.com/deppfellow/contactform/internal/validation"
	// Side-effect import: loads `.env` into the process environment, if present.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Key mapping:
	- Only variables starting with CONTACTFORM_ are read.
	- The prefix is removed and the rest is lower-cased.
	- A double underscore separates nesting levels, single underscores stay
	  part of the key:
	    CONTACTFORM_SERVER__READ_TIMEOUT -> server.read_timeout
	- Values containing a comma become string slices:
	    CONTACTFORM_SERVER__CORS_ALLOWED_ORIGINS=https://a.io,https://b.io
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "CONTACTFORM_"

// ServiceName tags logs and New Relic data.
const ServiceName = "contactform"

// Config is the root configuration object for the application.
//
// Observability is a pointer so partially set observability variables overlay
// DefaultObservabilityConfig instead of replacing it.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Views         ViewsConfig          `koanf:"views"`
	Form          FormConfig           `koanf:"form" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development staging production test"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string          `koanf:"port" validate:"required,numeric"`
	ReadTimeout        int             `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int             `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int             `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins" validate:"required,min=1"`
	BodyLimit          string          `koanf:"body_limit" validate:"required"`
	RateLimit          RateLimitConfig `koanf:"rate_limit"`

	// TrustedProxies are CIDR ranges whose X-Forwarded-For header is believed
	// when resolving the client IP. Empty means the socket address is used.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"omitempty,dive,cidr"`
}

// RateLimitConfig throttles form submissions per client IP.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`
	ExpiresIn         int     `koanf:"expires_in" validate:"gte=0"`
}

// ViewsConfig controls where the error/result templates come from.
//
// An empty Dir means the templates embedded in the binary. Watch only has an
// effect together with Dir. FormURL is where the error page links back to.
type ViewsConfig struct {
	Dir     string `koanf:"dir"`
	Minify  bool   `koanf:"minify"`
	Watch   bool   `koanf:"watch"`
	FormURL string `koanf:"form_url" validate:"required,uri"`
}

// FormConfig controls the message shown when a submission is rejected.
type FormConfig struct {
	Locale          string `koanf:"locale" validate:"required,bcp47_language_tag"`
	NegotiateLocale bool   `koanf:"negotiate_locale"`
}

// DefaultConfig returns the configuration used for every key that is not set
// in the environment.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{
			Env: "development",
		},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			BodyLimit:          "1M",
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 5,
				Burst:             10,
				ExpiresIn:         180,
			},
		},
		Views: ViewsConfig{
			FormURL: "/",
		},
		Form: FormConfig{
			Locale: "en",
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps a raw environment variable name to a koanf key path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	return strings.ReplaceAll(key, "__", ".")
}

// envValue turns comma separated values into slices.
func envValue(key, value string) (string, interface{}) {
	key = envKey(key)
	if !strings.Contains(value, ",") {
		return key, value
	}

	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return key, parts
}

// describeFieldErrors lists the invalid keys as "field: problem".
func describeFieldErrors(err error) string {
	fieldErrors := validation.FieldErrors(err)

	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fe.Field+": "+fe.Error)
	}

	return strings.Join(parts, "; ")
}

// LoadConfig reads the environment, overlays it on DefaultConfig, validates
// the result and completes the observability block.
//
// Behavior summary:
//   - Loads env vars with prefix CONTACTFORM_
//   - Unmarshals into Config (unset keys keep their defaults)
//   - Validates struct tags
//   - Sets default observability if missing, then forces service name and
//     environment from the primary block
//   - Runs ObservabilityConfig.Validate
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := validation.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed (%s): %w", describeFieldErrors(err), err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
