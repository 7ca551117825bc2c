package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		APIToken:              "test-token-123",
		LogEndpoint:           "https://logs.example.com",
		LogAPIKey:             "dd-api-key",
		LogAppKey:             "dd-app-key",
		LogPageLimit:          1000,
		PollIntervalSeconds:   30,
		CycleTimeoutSeconds:   120,
		LookbackHours:         4,
		DedupCapacity:         10000,
		DedupEvictBatch:       1000,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.PollIntervalSeconds != 30 {
		t.Errorf("PollIntervalSeconds = %d, want 30", c.PollIntervalSeconds)
	}
	if c.LookbackHours != 4 {
		t.Errorf("LookbackHours = %d, want 4", c.LookbackHours)
	}
	if c.DedupCapacity != 10000 {
		t.Errorf("DedupCapacity = %d, want 10000", c.DedupCapacity)
	}
	if c.DedupEvictBatch != 1000 {
		t.Errorf("DedupEvictBatch = %d, want 1000", c.DedupEvictBatch)
	}
	if !strings.Contains(c.LogFilter, "status:error") {
		t.Errorf("LogFilter default = %q, want error filter", c.LogFilter)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-log-endpoint", "https://logs.internal",
		"-poll-interval-seconds", "15",
		"-dedup-capacity", "500",
		"-dedup-evict-batch", "50",
		"-claude-model", "claude-opus-4-20250514",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.LogEndpoint != "https://logs.internal" {
		t.Errorf("LogEndpoint = %q, want %q", c.LogEndpoint, "https://logs.internal")
	}
	if c.PollIntervalSeconds != 15 {
		t.Errorf("PollIntervalSeconds = %d, want 15", c.PollIntervalSeconds)
	}
	if c.DedupCapacity != 500 || c.DedupEvictBatch != 50 {
		t.Errorf("dedup = %d/%d, want 500/50", c.DedupCapacity, c.DedupEvictBatch)
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mod := func(f func(*Config)) Config {
		c := validBase()
		f(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "base is valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name: "minimum valid values",
			cfg: mod(func(c *Config) {
				c.DrainSeconds = 1
				c.ShutdownBudgetSeconds = 2
				c.APIPort = 1
				c.LogPageLimit = 1
				c.PollIntervalSeconds = 1
				c.CycleTimeoutSeconds = 1
				c.LookbackHours = 1
				c.DedupCapacity = 1
				c.DedupEvictBatch = 1
			}),
			wantErr: false,
		},
		{
			name:      "drain zero",
			cfg:       mod(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       mod(func(c *Config) { c.DrainSeconds = 301; c.ShutdownBudgetSeconds = 300 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "budget equals drain",
			cfg:       mod(func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "port above max",
			cfg:       mod(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "missing api token",
			cfg:       mod(func(c *Config) { c.APIToken = "" }),
			wantErr:   true,
			errSubstr: []string{"API_TOKEN"},
		},
		{
			name:      "missing log endpoint",
			cfg:       mod(func(c *Config) { c.LogEndpoint = "" }),
			wantErr:   true,
			errSubstr: []string{"LOG_ENDPOINT"},
		},
		{
			name:      "missing log keys",
			cfg:       mod(func(c *Config) { c.LogAPIKey = ""; c.LogAppKey = "" }),
			wantErr:   true,
			errSubstr: []string{"LOG_API_KEY", "LOG_APP_KEY"},
		},
		{
			name:      "page limit above max",
			cfg:       mod(func(c *Config) { c.LogPageLimit = 1001 }),
			wantErr:   true,
			errSubstr: []string{"LOG_PAGE_LIMIT"},
		},
		{
			name:      "poll interval zero",
			cfg:       mod(func(c *Config) { c.PollIntervalSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"POLL_INTERVAL_SECONDS"},
		},
		{
			name:      "cycle timeout above max",
			cfg:       mod(func(c *Config) { c.CycleTimeoutSeconds = 601 }),
			wantErr:   true,
			errSubstr: []string{"CYCLE_TIMEOUT_SECONDS"},
		},
		{
			name:      "lookback zero",
			cfg:       mod(func(c *Config) { c.LookbackHours = 0 }),
			wantErr:   true,
			errSubstr: []string{"LOOKBACK_HOURS"},
		},
		{
			name:      "dedup capacity zero",
			cfg:       mod(func(c *Config) { c.DedupCapacity = 0 }),
			wantErr:   true,
			errSubstr: []string{"DEDUP_CAPACITY"},
		},
		{
			name:      "evict batch above capacity",
			cfg:       mod(func(c *Config) { c.DedupCapacity = 100; c.DedupEvictBatch = 101 }),
			wantErr:   true,
			errSubstr: []string{"DEDUP_EVICT_BATCH"},
		},
		{
			name:      "airia endpoint without key",
			cfg:       mod(func(c *Config) { c.AiriaEndpoint = "https://airia.example.com" }),
			wantErr:   true,
			errSubstr: []string{"AIRIA_API_KEY"},
		},
		{
			name: "airia fully configured",
			cfg: mod(func(c *Config) {
				c.AiriaEndpoint = "https://airia.example.com"
				c.AiriaAPIKey = "ak"
			}),
			wantErr: false,
		},
		{
			name:      "claude key without model",
			cfg:       mod(func(c *Config) { c.ClaudeAPIKey = "sk"; c.ClaudeModel = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:      "sms endpoint without credentials",
			cfg:       mod(func(c *Config) { c.SMSEndpoint = "https://sms.example.com" }),
			wantErr:   true,
			errSubstr: []string{"SMS_USER", "SMS_FROM"},
		},
		{
			name: "sms fully configured",
			cfg: mod(func(c *Config) {
				c.SMSEndpoint = "https://sms.example.com"
				c.SMSUser = "AC123"
				c.SMSPass = "secret"
				c.SMSFrom = "+15550001111"
				c.SMSTo = "+15550002222"
			}),
			wantErr: false,
		},
		{
			name:      "remedy endpoint without key or repository",
			cfg:       mod(func(c *Config) { c.RemedyEndpoint = "https://remedy.example.com" }),
			wantErr:   true,
			errSubstr: []string{"REMEDY_API_KEY", "REMEDY_REPOSITORY"},
		},
		{
			name: "remedy fully configured",
			cfg: mod(func(c *Config) {
				c.RemedyEndpoint = "https://remedy.example.com"
				c.RemedyAPIKey = "rk"
				c.RemedyRepository = "acme/shop"
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate returned nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate returned %v, want nil", err)
			}
			for _, substr := range tt.errSubstr {
				if !strings.Contains(err.Error(), substr) {
					t.Errorf("error %q missing substring %q", err.Error(), substr)
				}
			}
		})
	}
}
