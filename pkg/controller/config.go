package controller

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the connection settings for an EDA controller.
// Credentials are supplied once at construction time; there is no
// process-wide/global authentication state.
type Config struct {
	// Host is the controller base URL (e.g. "https://eda.example.com").
	// A bare hostname is accepted and normalized to https.
	Host string `yaml:"host" json:"host" validate:"required"`

	// Username is the API username for HTTP Basic authentication.
	Username string `yaml:"username" json:"username" validate:"required"`

	// Password is the API password. It can also be supplied via the
	// EDA_PASSWORD environment variable at manifest load time.
	Password string `yaml:"password" json:"password" validate:"required"`

	// Timeout is the per-request timeout. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

// DefaultTimeout is the request timeout used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// BaseURL returns the normalized controller base URL without a trailing slash.
func (c Config) BaseURL() string {
	host := strings.TrimRight(c.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host
}

// Validate checks that the configuration is complete enough to build a client.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("controller host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("controller username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("controller password is required")
	}
	return nil
}
