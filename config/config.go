package config

import (
	"fmt"
	"time"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/redis"
)

// Config is scribe's top-level configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config    `yaml:"logging" mapstructure:"logging"`
	Discord    DiscordConfig    `yaml:"discord" mapstructure:"discord"`
	Redis      redis.Config     `yaml:"redis" mapstructure:"redis"`
	Queue      QueueConfig      `yaml:"queue" mapstructure:"queue"`
	Transcribe TranscribeConfig `yaml:"transcribe" mapstructure:"transcribe"`
	Health     HealthConfig     `yaml:"health" mapstructure:"health"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scribe"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	c.Discord.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Queue.ApplyDefaults()
	c.Transcribe.ApplyDefaults()
	c.Health.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Discord.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	if err := c.Transcribe.Validate(); err != nil {
		return err
	}
	return c.Health.Validate()
}

// DiscordConfig holds chat platform credentials and endpoints.
type DiscordConfig struct {
	// Token is the bot token (without the "Bot " prefix).
	Token string `yaml:"token" mapstructure:"token"`
	// ApplicationID is the application id used for command registration.
	ApplicationID string `yaml:"application_id" mapstructure:"application_id"`
	// APIBase is the REST API base URL.
	APIBase string `yaml:"api_base" mapstructure:"api_base"`
	// GatewayURL is the websocket gateway URL.
	GatewayURL string `yaml:"gateway_url" mapstructure:"gateway_url"`
}

// ApplyDefaults sets endpoint defaults.
func (c *DiscordConfig) ApplyDefaults() {
	if c.APIBase == "" {
		c.APIBase = "https://discord.com/api/v10"
	}
	if c.GatewayURL == "" {
		c.GatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
	}
}

// Validate checks required credentials.
func (c *DiscordConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	return nil
}

// QueueConfig holds the remote worker queue settings.
type QueueConfig struct {
	// Broker is the name of the broker list tasks are pushed to.
	Broker string `yaml:"broker" mapstructure:"broker"`
	// Task is the registered task name on the worker side.
	Task string `yaml:"task" mapstructure:"task"`
	// PollInterval is how often the result backend is polled (e.g. "500ms").
	PollInterval string `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// ApplyDefaults sets queue defaults matching the transcriber worker.
func (c *QueueConfig) ApplyDefaults() {
	if c.Broker == "" {
		c.Broker = "celery"
	}
	if c.Task == "" {
		c.Task = "transcriber.transcribe"
	}
	if c.PollInterval == "" {
		c.PollInterval = "500ms"
	}
}

// Validate checks queue settings are parseable.
func (c *QueueConfig) Validate() error {
	if c.Task == "" {
		return fmt.Errorf("queue.task is required")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid queue.poll_interval %q: %w", c.PollInterval, err)
	}
	return nil
}

// TranscribeConfig holds orchestrator tunables.
type TranscribeConfig struct {
	// InlineLimit is the transcription length below which results render inline.
	InlineLimit int `yaml:"inline_limit" mapstructure:"inline_limit"`
	// RecordTTL is how long job records live in the store (e.g. "12h").
	RecordTTL string `yaml:"record_ttl" mapstructure:"record_ttl"`
}

// ApplyDefaults sets the platform-derived display and bookkeeping defaults.
func (c *TranscribeConfig) ApplyDefaults() {
	if c.InlineLimit == 0 {
		c.InlineLimit = 3800
	}
	if c.RecordTTL == "" {
		c.RecordTTL = "12h"
	}
}

// Validate checks the tunables.
func (c *TranscribeConfig) Validate() error {
	if c.InlineLimit <= 0 {
		return fmt.Errorf("transcribe.inline_limit must be > 0")
	}
	if _, err := time.ParseDuration(c.RecordTTL); err != nil {
		return fmt.Errorf("invalid transcribe.record_ttl %q: %w", c.RecordTTL, err)
	}
	return nil
}

// RecordTTLDuration returns the parsed record TTL.
func (c *TranscribeConfig) RecordTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.RecordTTL)
	return d
}

// HealthConfig holds the operational HTTP endpoint settings.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

// ApplyDefaults sets health endpoint defaults.
func (c *HealthConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
}

// Validate checks the health endpoint settings.
func (c *HealthConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("health.port out of range: %d", c.Port)
	}
	return nil
}
