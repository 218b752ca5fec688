package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
)

// Config adds service-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	BaseURL               string
	APIToken              string
	WebhookSecret         string
	DoctorPhone           string
	DatabaseURL           string
	SarvamAPIKey          string
	SarvamModel           string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.BaseURL, "base-url", "", "externally reachable base URL the voice platform calls back on")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token protecting the triage retrieval API (empty = open)")
	fs.StringVar(&c.WebhookSecret, "webhook-secret", "", "shared secret the voice platform sends in x-vapi-secret (empty = unchecked)")
	fs.StringVar(&c.DoctorPhone, "doctor-phone", "", "E.164 number RED calls are bridged to (empty = no transfer)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.SarvamAPIKey, "sarvam-api-key", "", "API key for the Sarvam TTS provider (empty = platform voice)")
	fs.StringVar(&c.SarvamModel, "sarvam-model", "bulbul:v3", "Sarvam TTS model")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for care-team notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// The voice platform needs a callback URL for tools and webhooks
	if c.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid BASE_URL %q (must be an absolute URL)", c.BaseURL))
	} else if strings.HasSuffix(c.BaseURL, "/") {
		errs = append(errs, fmt.Errorf("invalid BASE_URL %q (must not end with a slash)", c.BaseURL))
	}

	if c.DoctorPhone != "" && !strings.HasPrefix(c.DoctorPhone, "+") {
		errs = append(errs, fmt.Errorf("invalid DOCTOR_PHONE %q (must be E.164, starting with +)", c.DoctorPhone))
	}

	if c.SarvamAPIKey != "" && c.SarvamModel == "" {
		errs = append(errs, errors.New("SARVAM_MODEL is required when SARVAM_API_KEY is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
