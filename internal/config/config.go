// internal/config/config.go
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config aggregates all configuration sections, populated from environment
// variables. Use Load to construct one; a .env file is loaded by the
// entrypoints before parsing.
type Config struct {
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Log      Log      `envPrefix:"LOG_"`
	WhatsApp WhatsApp // unprefixed: keeps existing .env files working
	Pacing   Pacing   `envPrefix:"PACING_"`
	Upload   Upload   `envPrefix:"UPLOAD_"`
}

// HTTP configures the API server.
type HTTP struct {
	Port uint16 `env:"PORT" envDefault:"8080"`
}

// Log configures the structured logger. Level is one of debug, info, warn,
// error; Console switches to the human-readable writer.
type Log struct {
	Level   string `env:"LEVEL" envDefault:"info"`
	Console bool   `env:"CONSOLE" envDefault:"true"`
}

// WhatsApp configures the Cloud API sender. AccessToken and PhoneNumberID
// are required to build a real client; RatePerSec caps outbound requests
// across all campaigns since the provider limit is per account.
type WhatsApp struct {
	AccessToken   string        `env:"ACCESS_TOKEN"`
	PhoneNumberID string        `env:"WHATSAPP_PHONE_NUMBER_ID"`
	BaseURL       string        `env:"WHATSAPP_BASE_URL" envDefault:"https://graph.facebook.com/v22.0"`
	Timeout       time.Duration `env:"WHATSAPP_TIMEOUT" envDefault:"30s"`
	RatePerSec    int           `env:"WHATSAPP_RATE_PER_SEC" envDefault:"10"`
}

// Configured reports whether provider credentials are present.
func (w WhatsApp) Configured() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

// Pacing configures the inter-send delay policy.
type Pacing struct {
	ShortDelay time.Duration `env:"SHORT_DELAY" envDefault:"1s"`
	LongDelay  time.Duration `env:"LONG_DELAY" envDefault:"60s"`
	BatchSize  int           `env:"BATCH_SIZE" envDefault:"45"`
}

// Upload configures where received recipient files are kept.
type Upload struct {
	Dir string `env:"DIR" envDefault:"uploads"`
}

// Load reads configuration from environment variables. Missing variables
// fall back to the declared defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
