package cfg

import (
	"errors"
	"flag"
	"fmt"

	"github.com/linnemanlabs/beacon/internal/source"
)

// Config holds all application configuration, bound to flags and filled
// from BEACON_-prefixed environment variables by main.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	// Event source (log-management API).
	LogEndpoint  string
	LogAPIKey    string
	LogAppKey    string
	LogFilter    string
	LogPageLimit int

	// Cycle scheduling and dedup cache.
	PollIntervalSeconds int
	CycleTimeoutSeconds int
	LookbackHours       int
	DedupCapacity       int
	DedupEvictBatch     int

	// Downstream collaborators. Each is optional; an empty endpoint or
	// key disables that action.
	WebhookURL string

	AiriaEndpoint string
	AiriaAPIKey   string
	ClaudeAPIKey  string
	ClaudeModel   string

	SMSEndpoint string
	SMSUser     string
	SMSPass     string
	SMSFrom     string
	SMSTo       string

	RemedyEndpoint   string
	RemedyAPIKey     string
	RemedyRepository string

	DatabaseURL string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token protecting the cycle-trigger and report endpoints")

	fs.StringVar(&c.LogEndpoint, "log-endpoint", "", "log-management API base URL for event search")
	fs.StringVar(&c.LogAPIKey, "log-api-key", "", "log-management API key")
	fs.StringVar(&c.LogAppKey, "log-app-key", "", "log-management application key")
	fs.StringVar(&c.LogFilter, "log-filter", source.ErrorFilter, "search query selecting error events")
	fs.IntVar(&c.LogPageLimit, "log-page-limit", 1000, "maximum events fetched per cycle (1..1000)")

	fs.IntVar(&c.PollIntervalSeconds, "poll-interval-seconds", 30, "seconds between poll cycles (1..3600)")
	fs.IntVar(&c.CycleTimeoutSeconds, "cycle-timeout-seconds", 120, "per-cycle deadline in seconds (1..600)")
	fs.IntVar(&c.LookbackHours, "lookback-hours", 4, "query window for the first cycle in hours (1..168)")
	fs.IntVar(&c.DedupCapacity, "dedup-capacity", 10000, "maximum event IDs remembered by the dedup cache")
	fs.IntVar(&c.DedupEvictBatch, "dedup-evict-batch", 1000, "IDs evicted per batch once the cache overflows")

	fs.StringVar(&c.WebhookURL, "webhook-url", "", "webhook URL for per-event forwarding (empty = disabled)")

	fs.StringVar(&c.AiriaEndpoint, "airia-endpoint", "", "Airia pipeline execution URL for summarization (empty = disabled)")
	fs.StringVar(&c.AiriaAPIKey, "airia-api-key", "", "Airia API key")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude summarization fallback (empty = disabled)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")

	fs.StringVar(&c.SMSEndpoint, "sms-endpoint", "", "SMS provider message URL (empty = disabled)")
	fs.StringVar(&c.SMSUser, "sms-user", "", "SMS provider account identifier")
	fs.StringVar(&c.SMSPass, "sms-pass", "", "SMS provider auth token")
	fs.StringVar(&c.SMSFrom, "sms-from", "", "SMS sender phone number")
	fs.StringVar(&c.SMSTo, "sms-to", "", "SMS recipient phone number")

	fs.StringVar(&c.RemedyEndpoint, "remedy-endpoint", "", "remediation service base URL (empty = disabled)")
	fs.StringVar(&c.RemedyAPIKey, "remedy-api-key", "", "remediation service session API key")
	fs.StringVar(&c.RemedyRepository, "remedy-repository", "", "repository the remediation service opens pull requests against")

	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
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

	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	// Event source is the one mandatory collaborator
	if c.LogEndpoint == "" {
		errs = append(errs, errors.New("LOG_ENDPOINT is required"))
	}
	if c.LogAPIKey == "" {
		errs = append(errs, errors.New("LOG_API_KEY is required"))
	}
	if c.LogAppKey == "" {
		errs = append(errs, errors.New("LOG_APP_KEY is required"))
	}
	if c.LogPageLimit <= 0 || c.LogPageLimit > 1000 {
		errs = append(errs, fmt.Errorf("invalid LOG_PAGE_LIMIT %d (must be 1..1000)", c.LogPageLimit))
	}

	if c.PollIntervalSeconds <= 0 || c.PollIntervalSeconds > 3600 {
		errs = append(errs, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %d (must be 1..3600)", c.PollIntervalSeconds))
	}
	if c.CycleTimeoutSeconds <= 0 || c.CycleTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid CYCLE_TIMEOUT_SECONDS %d (must be 1..600)", c.CycleTimeoutSeconds))
	}
	if c.LookbackHours <= 0 || c.LookbackHours > 168 {
		errs = append(errs, fmt.Errorf("invalid LOOKBACK_HOURS %d (must be 1..168)", c.LookbackHours))
	}

	if c.DedupCapacity <= 0 {
		errs = append(errs, fmt.Errorf("invalid DEDUP_CAPACITY %d (must be positive)", c.DedupCapacity))
	}
	if c.DedupEvictBatch <= 0 || c.DedupEvictBatch > c.DedupCapacity {
		errs = append(errs, fmt.Errorf("invalid DEDUP_EVICT_BATCH %d (must be 1..DEDUP_CAPACITY)", c.DedupEvictBatch))
	}

	// Optional collaborators validate only when enabled
	if c.AiriaEndpoint != "" && c.AiriaAPIKey == "" {
		errs = append(errs, errors.New("AIRIA_API_KEY is required when AIRIA_ENDPOINT is set"))
	}
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}
	if c.SMSEndpoint != "" {
		if c.SMSUser == "" || c.SMSPass == "" {
			errs = append(errs, errors.New("SMS_USER and SMS_PASS are required when SMS_ENDPOINT is set"))
		}
		if c.SMSFrom == "" || c.SMSTo == "" {
			errs = append(errs, errors.New("SMS_FROM and SMS_TO are required when SMS_ENDPOINT is set"))
		}
	}
	if c.RemedyEndpoint != "" {
		if c.RemedyAPIKey == "" {
			errs = append(errs, errors.New("REMEDY_API_KEY is required when REMEDY_ENDPOINT is set"))
		}
		if c.RemedyRepository == "" {
			errs = append(errs, errors.New("REMEDY_REPOSITORY is required when REMEDY_ENDPOINT is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
