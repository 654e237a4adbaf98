package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration of slidesync. Values come from defaults,
// then an optional YAML file, then SLIDESYNC_* environment variables; the CLI
// applies its flags last.
type Config struct {
	Deck      DeckConfig     `yaml:"deck"`
	Playback  PlaybackConfig `yaml:"playback"`
	Logging   LoggingConfig  `yaml:"logging"`
	Remote    RemoteConfig   `yaml:"remote"`
	ShowStats bool           `yaml:"show_stats"`

	BuildVersion string `yaml:"-"`
}

// DeckConfig locates the presentation.
type DeckConfig struct {
	InputPath    string `yaml:"input"`
	ManifestPath string `yaml:"manifest"`
	// StartSlide is 1-based.
	StartSlide int `yaml:"start_slide"`
}

// PlaybackConfig holds the controller's polling bounds and timeouts.
type PlaybackConfig struct {
	ReadyPollInterval time.Duration `yaml:"ready_poll_interval"`
	ReadyPollLimit    int           `yaml:"ready_poll_limit"`
	StartPollInterval time.Duration `yaml:"start_poll_interval"`
	StartPollTimeout  time.Duration `yaml:"start_poll_timeout"`
	DefaultSampleRate int           `yaml:"default_sample_rate"`
	SafetyTimeout     time.Duration `yaml:"safety_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// RemoteConfig configures the MQTT presenter remote.
type RemoteConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
	DeckID   string `yaml:"deck_id"`
	QoS      int    `yaml:"qos"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns a Config with the controller's standard timings.
func Default() *Config {
	return &Config{
		Deck: DeckConfig{
			StartSlide: 1,
		},
		Playback: PlaybackConfig{
			ReadyPollInterval: 50 * time.Millisecond,
			ReadyPollLimit:    200,
			StartPollInterval: 50 * time.Millisecond,
			StartPollTimeout:  3 * time.Second,
			DefaultSampleRate: 60,
			SafetyTimeout:     100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Remote: RemoteConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "slidesync",
			DeckID:   "default",
			QoS:      1,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides follows the pattern SLIDESYNC_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLIDESYNC_DECK_INPUT"); v != "" {
		cfg.Deck.InputPath = v
	}
	if v := os.Getenv("SLIDESYNC_DECK_MANIFEST"); v != "" {
		cfg.Deck.ManifestPath = v
	}
	if v := os.Getenv("SLIDESYNC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SLIDESYNC_REMOTE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Remote.Enabled = b
		}
	}
	if v := os.Getenv("SLIDESYNC_REMOTE_HOST"); v != "" {
		cfg.Remote.Host = v
	}
	if v := os.Getenv("SLIDESYNC_REMOTE_USERNAME"); v != "" {
		cfg.Remote.Username = v
	}
	if v := os.Getenv("SLIDESYNC_REMOTE_PASSWORD"); v != "" {
		cfg.Remote.Password = v
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Deck.StartSlide < 1 {
		errs = append(errs, "deck.start_slide must be >= 1")
	}

	p := c.Playback
	if p.ReadyPollInterval <= 0 {
		errs = append(errs, "playback.ready_poll_interval must be positive")
	}
	if p.ReadyPollLimit < 1 {
		errs = append(errs, "playback.ready_poll_limit must be >= 1")
	}
	if p.StartPollInterval <= 0 {
		errs = append(errs, "playback.start_poll_interval must be positive")
	}
	if p.StartPollTimeout < p.StartPollInterval {
		errs = append(errs, "playback.start_poll_timeout must be at least start_poll_interval")
	}
	if p.DefaultSampleRate < 1 || p.DefaultSampleRate > 1000 {
		errs = append(errs, "playback.default_sample_rate must be between 1 and 1000")
	}
	if p.SafetyTimeout <= 0 {
		errs = append(errs, "playback.safety_timeout must be positive")
	}

	if c.Remote.Enabled {
		if c.Remote.Host == "" {
			errs = append(errs, "remote.host is required when the remote is enabled")
		}
		if c.Remote.Port < 1 || c.Remote.Port > 65535 {
			errs = append(errs, "remote.port must be between 1 and 65535")
		}
		if c.Remote.QoS < 0 || c.Remote.QoS > 2 {
			errs = append(errs, "remote.qos must be 0, 1, or 2")
		}
		if c.Remote.DeckID == "" || strings.ContainsAny(c.Remote.DeckID, "/+#") {
			errs = append(errs, "remote.deck_id must be non-empty and free of MQTT wildcards")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// StartPollAttempts converts the start-poll timeout into a tick budget.
func (p PlaybackConfig) StartPollAttempts() int {
	if p.StartPollInterval <= 0 {
		return 1
	}
	n := int(p.StartPollTimeout / p.StartPollInterval)
	if n < 1 {
		n = 1
	}
	return n
}
