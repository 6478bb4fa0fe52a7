/*
Package config loads process configuration once at startup.

Values come from the environment (a local .env file is autoloaded) and,
when CONFIG_FILE is set, from a YAML file whose values the environment
overrides. The result is immutable and passed by value to constructors.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is fatal: the service cannot answer any AI request without it.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable not set")

type Config struct {
	Port     int    `yaml:"port"`
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	// AllowedOrigins are the browser origins allowed to call the API with
	// the session cookie.
	AllowedOrigins []string `yaml:"allowed_origins"`

	Gemini  GeminiConfig  `yaml:"gemini"`
	Session SessionConfig `yaml:"session"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Secret   string        `yaml:"secret"`
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaults() Config {
	return Config{
		Port:     8080,
		AppEnv:   "development",
		LogLevel: "info",
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-2.5-flash",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			TTL:      2 * time.Hour,
			Capacity: 1024,
		},
	}
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and
// the environment, in that order of precedence (last wins).
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Gemini.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	// echo treats an empty origin list as "*"
	if len(cfg.AllowedOrigins) == 0 {
		return Config{}, errors.New("CORS_ORIGINS must list at least one origin")
	}
	for _, origin := range cfg.AllowedOrigins {
		if strings.Contains(origin, "*") {
			return Config{}, fmt.Errorf("CORS_ORIGINS must list exact origins, got %q", origin)
		}
	}
	if cfg.Session.Capacity <= 0 {
		return Config{}, fmt.Errorf("SESSION_CAPACITY must be positive, got %d", cfg.Session.Capacity)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setList(&cfg.AllowedOrigins, "CORS_ORIGINS")

	if err := setInt(&cfg.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Session.Capacity, "SESSION_CAPACITY"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Gemini.Timeout, "GEMINI_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList reads a comma separated list; blank entries are skipped.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}
