package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Timer         TimerConfig         `yaml:"timer"`
	Auth          AuthConfig          `yaml:"auth"`
	Tailscale     TailscaleConfig     `yaml:"tailscale"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Journal       JournalConfig       `yaml:"journal"`
}

type AppConfig struct {
	Name string `yaml:"name"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig points at the web app that stores progress. An empty BaseURL
// means dry-run: reports are logged, not sent.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	CSRFToken      string `yaml:"csrf_token"`
	PagePath       string `yaml:"page_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TimerConfig struct {
	PreparationSeconds int `yaml:"preparation_seconds"`
	WorkSeconds        int `yaml:"work_seconds"`
	TickMillis         int `yaml:"tick_millis"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type NotificationsConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// JournalConfig enables the local report journal. An empty Dir disables it.
type JournalConfig struct {
	Dir string `yaml:"dir"`
}

// DryRun reports whether progress reports stay local.
func (b BackendConfig) DryRun() bool {
	return b.BaseURL == ""
}

// PageURL is the hosting page the csrf token is scraped from.
func (b BackendConfig) PageURL() string {
	return strings.TrimRight(b.BaseURL, "/") + "/" + strings.TrimLeft(b.PagePath, "/")
}

// Timeout is the per-report request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// TickInterval is the duration of one timer unit.
func (t TimerConfig) TickInterval() time.Duration {
	return time.Duration(t.TickMillis) * time.Millisecond
}

// TTL is how long notifications stay visible.
func (n NotificationsConfig) TTL() time.Duration {
	return time.Duration(n.TTLSeconds) * time.Second
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App:           AppConfig{Name: "Session Timer"},
		Server:        ServerConfig{Host: "127.0.0.1", Port: 8085},
		Backend:       BackendConfig{TimeoutSeconds: 10},
		Timer:         TimerConfig{PreparationSeconds: 10, WorkSeconds: 30, TickMillis: 1000},
		Tailscale:     TailscaleConfig{Hostname: "sessiontimer"},
		Notifications: NotificationsConfig{TTLSeconds: 5},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix SESSIONTIMER_:
//
//	SESSIONTIMER_SERVER_HOST, SESSIONTIMER_SERVER_PORT,
//	SESSIONTIMER_BACKEND_URL, SESSIONTIMER_BACKEND_CSRF_TOKEN, SESSIONTIMER_BACKEND_PAGE_PATH,
//	SESSIONTIMER_TIMER_PREPARATION, SESSIONTIMER_TIMER_WORK,
//	SESSIONTIMER_AUTH_API_KEY, SESSIONTIMER_TAILSCALE_ENABLED, SESSIONTIMER_JOURNAL_DIR
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

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SESSIONTIMER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SESSIONTIMER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SESSIONTIMER_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SESSIONTIMER_BACKEND_CSRF_TOKEN"); v != "" {
		cfg.Backend.CSRFToken = v
	}
	if v := os.Getenv("SESSIONTIMER_BACKEND_PAGE_PATH"); v != "" {
		cfg.Backend.PagePath = v
	}
	if v := os.Getenv("SESSIONTIMER_TIMER_PREPARATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Timer.PreparationSeconds = n
		}
	}
	if v := os.Getenv("SESSIONTIMER_TIMER_WORK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Timer.WorkSeconds = n
		}
	}
	if v := os.Getenv("SESSIONTIMER_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("SESSIONTIMER_JOURNAL_DIR"); v != "" {
		cfg.Journal.Dir = v
	}
	if v := os.Getenv("SESSIONTIMER_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Timer.PreparationSeconds <= 0 {
		return fmt.Errorf("timer.preparation_seconds must be positive")
	}
	if c.Timer.WorkSeconds <= 0 {
		return fmt.Errorf("timer.work_seconds must be positive")
	}
	if c.Timer.TickMillis <= 0 {
		return fmt.Errorf("timer.tick_millis must be positive")
	}
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backend.base_url must be an absolute URL")
		}
		if c.Backend.CSRFToken == "" && c.Backend.PagePath == "" {
			return fmt.Errorf("backend.csrf_token or backend.page_path is required")
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
