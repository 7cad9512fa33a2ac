package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. The API token is
// deliberately not part of it; credentials come from the environment only.
type Config struct {
	// Output is the path of the generated ICS file.
	Output string `yaml:"output" json:"output"`

	// CalendarName is the X-WR-CALNAME shown by calendar clients.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// Timezone is the IANA zone all report dates are anchored to.
	// US earnings dates are published relative to Eastern Time.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LookbehindDays / LookaheadDays define the fetch window
	// [today-lookbehind, today+lookahead]. Lookbehind is 0 by default;
	// past dates are only useful when actual results are wanted too.
	LookbehindDays int `yaml:"lookbehind_days" json:"lookbehind_days"`
	LookaheadDays  int `yaml:"lookahead_days" json:"lookahead_days"`

	// APIBaseURL is the Finnhub REST base URL.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// RequestTimeoutSeconds bounds a single HTTP request.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`

	// RunTimeoutSeconds bounds the whole run; on expiry the run aborts
	// without touching the output file.
	RunTimeoutSeconds int `yaml:"run_timeout_seconds" json:"run_timeout_seconds"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output:                "earnings_calendar.ics",
		CalendarName:          "US Earnings",
		Timezone:              "America/New_York",
		LookbehindDays:        0,
		LookaheadDays:         30,
		APIBaseURL:            "https://finnhub.io/api/v1",
		RequestTimeoutSeconds: 30,
		RunTimeoutSeconds:     120,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Output == "" {
		c.Output = "earnings_calendar.ics"
	}
	if c.CalendarName == "" {
		c.CalendarName = "US Earnings"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.LookbehindDays < 0 {
		c.LookbehindDays = 0
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 30
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://finnhub.io/api/v1"
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.RunTimeoutSeconds <= 0 {
		c.RunTimeoutSeconds = 120
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600 perms, parent directory created) and returned.
//   - If the file exists, it is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path, atomically
// via a temp file + rename, with final permissions 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".earningscal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
