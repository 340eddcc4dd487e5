// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors must be wrapped with this package's sentinels.
package config

import (
	"fmt"
	"time"

	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

// DefaultLocalFile is the grade sheet export looked up in the working
// directory when a session starts without an upload.
const DefaultLocalFile = "kite f lifeavaliacao_de_desempenho_-_2025.xlsm - Aval.csv"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SkipRows is the number of boilerplate rows above the header row.
	SkipRows int `koanf:"skip_rows"`

	// DefaultFile is tried when no upload is present. Empty disables it.
	DefaultFile string `koanf:"default_file"`

	// AccentMode is "strict" or "fold"; see header.ParseStrictness.
	AccentMode string `koanf:"accent_mode"`

	// IdentifierPrefix names synthesized students, e.g. "Aluno 1".
	IdentifierPrefix string `koanf:"identifier_prefix"`

	// SessionTTLSeconds evicts idle sessions; 0 keeps them until deleted.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// MaxUploadBytes caps uploaded file size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RubricFields overrides the skill rubric.
	RubricFields []string `koanf:"rubric_fields"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		SkipRows:          11,
		DefaultFile:       DefaultLocalFile,
		AccentMode:        "strict",
		IdentifierPrefix:  "Aluno",
		SessionTTLSeconds: 7200,
		MaxUploadBytes:    10 << 20,
		RubricFields:      append([]string(nil), rubric.DefaultFields...),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SkipRows < 0:
		return fmt.Errorf("%w: skip_rows must not be negative", ErrInvalidConfig)
	case c.SessionTTLSeconds < 0:
		return fmt.Errorf("%w: session_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	switch c.AccentMode {
	case "strict", "fold":
	default:
		return fmt.Errorf("%w: accent_mode must be strict or fold", ErrInvalidConfig)
	}
	if _, err := c.Rubric(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Rubric builds the configured rubric.
func (c *Config) Rubric() (*rubric.Rubric, error) {
	return rubric.New(c.RubricFields)
}

// Strictness returns the configured accent handling.
func (c *Config) Strictness() header.Strictness {
	return header.ParseStrictness(c.AccentMode)
}

// SessionTTL returns the idle timeout of a session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}
