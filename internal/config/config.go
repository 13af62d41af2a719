// Package config provides configuration for the WhatsApp router.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the router configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// WhatsApp Cloud API
	VerifyToken   string        `yaml:"whatsapp_verify_token"`
	AppSecret     string        `yaml:"whatsapp_app_secret"`
	AccessToken   string        `yaml:"whatsapp_access_token"`
	PhoneNumberID string        `yaml:"whatsapp_phone_number_id"`
	APIBase       string        `yaml:"whatsapp_api_base"`
	SendTimeout   time.Duration `yaml:"-"`

	// Job events
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`

	// Live feed
	WSPingInterval time.Duration `yaml:"-"`
	WSWriteTimeout time.Duration `yaml:"-"`
	WSReadTimeout  time.Duration `yaml:"-"`

	// Transition policy, empty for the built-in one
	PolicyFile string `yaml:"policy_file"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Millisecond values as they appear in the file
	SendTimeoutMS    int `yaml:"whatsapp_send_timeout_ms"`
	WSPingIntervalMS int `yaml:"ws_ping_interval_ms"`
	WSWriteTimeoutMS int `yaml:"ws_write_timeout_ms"`
	WSReadTimeoutMS  int `yaml:"ws_read_timeout_ms"`
}

const defaultDatabaseURL = "file:makola.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

func defaults() *Config {
	return &Config{
		HTTPPort:         8080,
		DatabaseURL:      defaultDatabaseURL,
		AMQPExchange:     "makola.delivery",
		LogLevel:         "info",
		LogFormat:        "text",
		SendTimeoutMS:    10000,
		WSPingIntervalMS: 30000,
		WSWriteTimeoutMS: 10000,
		WSReadTimeoutMS:  60000,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and then environment variables. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.VerifyToken = getEnv("WHATSAPP_VERIFY_TOKEN", cfg.VerifyToken)
	cfg.AppSecret = getEnv("WHATSAPP_APP_SECRET", cfg.AppSecret)
	cfg.AccessToken = getEnv("WHATSAPP_ACCESS_TOKEN", cfg.AccessToken)
	cfg.PhoneNumberID = getEnv("WHATSAPP_PHONE_NUMBER_ID", cfg.PhoneNumberID)
	cfg.APIBase = getEnv("WHATSAPP_API_BASE", cfg.APIBase)
	cfg.SendTimeoutMS = getEnvInt("WHATSAPP_SEND_TIMEOUT_MS", cfg.SendTimeoutMS)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.WSPingIntervalMS = getEnvInt("WS_PING_INTERVAL_MS", cfg.WSPingIntervalMS)
	cfg.WSWriteTimeoutMS = getEnvInt("WS_WRITE_TIMEOUT_MS", cfg.WSWriteTimeoutMS)
	cfg.WSReadTimeoutMS = getEnvInt("WS_READ_TIMEOUT_MS", cfg.WSReadTimeoutMS)
	cfg.PolicyFile = getEnv("POLICY_FILE", cfg.PolicyFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.SendTimeout = time.Duration(cfg.SendTimeoutMS) * time.Millisecond
	cfg.WSPingInterval = time.Duration(cfg.WSPingIntervalMS) * time.Millisecond
	cfg.WSWriteTimeout = time.Duration(cfg.WSWriteTimeoutMS) * time.Millisecond
	cfg.WSReadTimeout = time.Duration(cfg.WSReadTimeoutMS) * time.Millisecond
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.VerifyToken == "" {
		return errors.New("WHATSAPP_VERIFY_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	return nil
}

// CloudAPIEnabled reports whether replies go to the Cloud API rather than
// the log.
func (c *Config) CloudAPIEnabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
