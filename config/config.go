package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"newsfeed/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	AppPort     string `yaml:"app_port"`
	AppURL      string `yaml:"app_url"`

	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	DBHost         string `yaml:"db_host"`
	DBPort         string `yaml:"db_port"`
	DBUser         string `yaml:"db_user"`
	DBPassword     string `yaml:"db_password"`
	DBName         string `yaml:"db_name"`
	SQLitePath     string `yaml:"sqlite_path"`

	SessionSecret string `yaml:"session_secret"`
	CSRFSecret    string `yaml:"csrf_secret"`

	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	UserAgent    string        `yaml:"user_agent"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	EmailFrom    string `yaml:"email_from"`
	ResendAPIKey string `yaml:"resend_api_key"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
}

// Load builds the configuration from .env, an optional YAML file named by
// CONFIG_FILE and the process environment, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			logger.Warnf(".env file exists but couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if cfg.DatabaseURL != "" {
		cfg.parseDBURL()
	}

	if cfg.SessionSecret == "" {
		secret, err := generateRandomSecret("SESSION_SECRET")
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
	}
	if cfg.CSRFSecret == "" {
		secret, err := generateRandomSecret("CSRF_SECRET")
		if err != nil {
			return nil, err
		}
		cfg.CSRFSecret = secret
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Environment, "ENVIRONMENT")
	overrideString(&c.AppPort, "APP_PORT")
	overrideString(&c.AppURL, "APP_URL")
	overrideString(&c.DatabaseDriver, "DATABASE_DRIVER")
	overrideString(&c.DatabaseURL, "DATABASE_URL")
	overrideString(&c.DBHost, "DB_HOST")
	overrideString(&c.DBPort, "DB_PORT")
	overrideString(&c.DBUser, "DB_USER")
	overrideString(&c.DBPassword, "DB_PASSWORD")
	overrideString(&c.DBName, "DB_NAME")
	overrideString(&c.SQLitePath, "SQLITE_PATH")
	overrideString(&c.SessionSecret, "SESSION_SECRET")
	overrideString(&c.CSRFSecret, "CSRF_SECRET")
	overrideString(&c.UserAgent, "USER_AGENT")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.LogFile, "LOG_FILE")
	overrideString(&c.EmailFrom, "EMAIL_FROM")
	overrideString(&c.ResendAPIKey, "RESEND_API_KEY")
	overrideString(&c.SMTPHost, "SMTP_HOST")
	overrideString(&c.SMTPPort, "SMTP_PORT")
	overrideString(&c.SMTPUsername, "SMTP_USERNAME")
	overrideString(&c.SMTPPassword, "SMTP_PASSWORD")

	if v, ok := os.LookupEnv("FETCH_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", v, err)
		}
		c.FetchTimeout = d
	}
	return nil
}

func setDefaults(c *Config) {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.AppURL == "" && c.Environment != "production" {
		c.AppURL = "http://localhost:" + c.AppPort
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "postgres"
	}
	if c.DBHost == "" {
		c.DBHost = "localhost"
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.DBUser == "" {
		c.DBUser = "postgres"
	}
	if c.DBName == "" {
		c.DBName = "newsfeed"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "newsfeed.db"
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 20 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "newsfeed/1.0 (+RSS aggregator)"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SMTPPort == "" {
		c.SMTPPort = "587"
	}
}

func overrideString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*dst = value
	}
}

func (c *Config) parseDBURL() {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		logger.Errorf("Error parsing DATABASE_URL: %v", err)
		return
	}

	c.DBHost = u.Hostname()
	c.DBPort = u.Port()
	if c.DBPort == "" {
		c.DBPort = "5432"
	}

	c.DBUser = u.User.Username()
	if password, ok := u.User.Password(); ok {
		c.DBPassword = password
	}

	c.DBName = strings.TrimPrefix(u.Path, "/")
}

func generateRandomSecret(name string) (string, error) {
	logger.Warnf("%s not set, generating random secret (will not persist across restarts)", name)

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random secret for %s: %w", name, err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
