// Package config loads formguard settings from struct defaults, an optional
// YAML file and FORMGUARD_ environment variables, in that order of
// precedence.
package config

import (
	"time"
)

// EnvPrefix marks the environment variables Load reads.
const EnvPrefix = "FORMGUARD_"

type (
	Config struct {
		Business BusinessConfig `koanf:"business"`
		Forms    FormsConfig    `koanf:"forms"`
		Limits   LimitsConfig   `koanf:"limits"`
		Booking  BookingConfig  `koanf:"booking"`
		Leads    LeadsConfig    `koanf:"leads"`
		Log      LogConfig      `koanf:"log"`
	}

	// BusinessConfig is the contact information shown in fallbacks and
	// used as the default delivery target.
	BusinessConfig struct {
		Name          string `koanf:"name"`
		Phone         string `koanf:"phone" validate:"required"`
		Email         string `koanf:"email" validate:"required,email"`
		Hours         string `koanf:"hours"`
		ServiceArea   string `koanf:"service_area"`
		FormSubmitURL string `koanf:"form_submit_url" validate:"omitempty,url"`
	}

	FormsConfig struct {
		MinFill            time.Duration `koanf:"min_fill" validate:"gte=0"`
		Timeout            time.Duration `koanf:"timeout" validate:"gte=0"`
		ContactFormspreeID string        `koanf:"contact_formspree_id"`
		QuoteFormspreeID   string        `koanf:"quote_formspree_id"`
		Cities             []string      `koanf:"cities"`
	}

	// LimitsConfig configures the shared submission limiter. An empty Dir
	// keeps limiter state in memory.
	LimitsConfig struct {
		Key         string        `koanf:"key" validate:"required"`
		MaxAttempts int           `koanf:"max_attempts" validate:"gte=1"`
		Window      time.Duration `koanf:"window" validate:"gt=0"`
		Cooldown    time.Duration `koanf:"cooldown" validate:"gt=0"`
		Dir         string        `koanf:"dir"`
	}

	BookingConfig struct {
		URL          string        `koanf:"url" validate:"omitempty,url"`
		Height       int           `koanf:"height" validate:"gte=0"`
		Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
		PollInterval time.Duration `koanf:"poll_interval" validate:"gte=0"`
	}

	// LeadsConfig points at the SQLite lead log. An empty Path keeps leads
	// in memory.
	LeadsConfig struct {
		Path string `koanf:"path"`
	}

	LogConfig struct {
		Level string `koanf:"level" validate:"oneof=debug info warn error"`
		JSON  bool   `koanf:"json"`
	}
)

// Default returns the settings of the live site.
func Default() *Config {
	return &Config{
		Business: BusinessConfig{
			Name:          "StrongHomes Cleaning",
			Phone:         "(219) 615-9477",
			Email:         "info@stronghomescleaning.com",
			Hours:         "Mon-Sat: 8am-6pm",
			ServiceArea:   "Lake & Porter Counties, IN",
			FormSubmitURL: "https://formsubmit.co/ajax/info@stronghomescleaning.com",
		},
		Forms: FormsConfig{
			MinFill: 700 * time.Millisecond,
			Timeout: 15 * time.Second,
			Cities: []string{
				"Hammond",
				"Hobart",
				"Merrillville",
				"Crown Point",
				"Valparaiso",
				"Schererville",
				"St. John",
				"Lowell",
			},
		},
		Limits: LimitsConfig{
			Key:         "form_rate_limit",
			MaxAttempts: 3,
			Window:      10 * time.Minute,
			Cooldown:    10 * time.Minute,
		},
		Booking: BookingConfig{
			URL:          "https://calendly.com/hello-stronghomescleaning/cleaning-booking",
			Height:       640,
			Timeout:      3 * time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
