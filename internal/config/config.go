// Package config loads storyloom settings from a YAML file, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aretw0/storyloom/pkg/domain"
)

// EnvPrefix prefixes every environment override, e.g. STORYLOOM_LLM_PROVIDER.
const EnvPrefix = "STORYLOOM"

// FileName is the project config file looked up in the working directory.
const FileName = "storyloom.yaml"

// Config holds all configuration for storyloom.
type Config struct {
	LLM         LLMConfig         `mapstructure:"llm"`
	Temperature TemperatureConfig `mapstructure:"temperature"`
	Dialogue    DialogueConfig    `mapstructure:"dialogue"`
	Store       StoreConfig       `mapstructure:"store"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Export      ExportConfig      `mapstructure:"export"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TemperatureConfig holds the sampling temperature per operation.
type TemperatureConfig struct {
	Generate float64 `mapstructure:"generate"`
	Dialogue float64 `mapstructure:"dialogue"`
	Improve  float64 `mapstructure:"improve"`
}

// DialogueConfig tunes the clarification loop.
type DialogueConfig struct {
	// HistoryWindow is how many past turns are replayed (0 = all).
	HistoryWindow int `mapstructure:"history_window"`
	// Parser is "tagged" or "legacy".
	Parser string `mapstructure:"parser"`
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Backend       string      `mapstructure:"backend"`
	Dir           string      `mapstructure:"dir"`
	EncryptionKey string      `mapstructure:"encryption_key"`
	RedactPII     bool        `mapstructure:"redact_pii"`
	Redis         RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the redis store settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExportConfig holds document export defaults.
type ExportConfig struct {
	Format     string `mapstructure:"format"`
	Transcript bool   `mapstructure:"transcript"`
	Dir        string `mapstructure:"dir"`
}

// setting is one documented default. The same table feeds viper and the file written by WriteDefault.
type setting struct {
	key     string
	value   any
	comment string
}

var settings = []setting{
	{"llm.provider", "groq", "openai, groq, anthropic, gemini or scripted (offline)"},
	{"llm.model", "", "empty selects the provider default (groq: llama-3.3-70b-versatile)"},
	{"llm.api_key", "", "or OPENAI_API_KEY, GROQ_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY"},
	{"llm.base_url", "", "OpenAI-compatible endpoint override"},
	{"llm.timeout", "60s", "per completion call"},
	{"temperature.generate", 0.7, ""},
	{"temperature.dialogue", 0.4, ""},
	{"temperature.improve", 0.5, ""},
	{"dialogue.history_window", 0, "past turns replayed to the model, 0 = all"},
	{"dialogue.parser", "tagged", "tagged or legacy (split on the last question mark)"},
	{"store.backend", "memory", "memory, file or redis"},
	{"store.dir", filepath.Join(".storyloom", "sessions"), "file backend directory"},
	{"store.encryption_key", "", "64 hex chars or base64 of 32 bytes enables AES-GCM at rest"},
	{"store.redact_pii", false, "mask e-mail addresses and phone numbers before saving"},
	{"store.redis.addr", "localhost:6379", ""},
	{"store.redis.password", "", ""},
	{"store.redis.db", 0, ""},
	{"store.redis.prefix", "storyloom:session:", ""},
	{"store.redis.ttl", "24h", "0 keeps sessions forever"},
	{"server.port", 8080, ""},
	{"server.request_timeout", "90s", ""},
	{"log.level", "info", "debug, info, warn or error"},
	{"log.format", "text", "text or json"},
	{"export.format", "docx", "docx, html or md"},
	{"export.transcript", false, "append the clarification dialogue"},
	{"export.dir", ".", ""},
}

// providerKeys maps a provider to the conventional environment variable holding its key.
var providerKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// Load reads configuration with this precedence (highest first):
// 1. Environment variables (STORYLOOM_*, then the provider key variables)
// 2. The file at path, or ./storyloom.yaml, or the user config file
// 3. Built-in defaults
//
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storyloom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(UserConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path, without .env handling (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

// Default returns a Config with default values and environment overrides applied.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	cfg.Store.EncryptionKey = os.ExpandEnv(cfg.Store.EncryptionKey)

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = ProviderKey(cfg.LLM.Provider)
	}
	return cfg, nil
}

// ProviderKey reads the conventional environment variable holding the key of provider.
func ProviderKey(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	key := os.Getenv(providerKeys[provider])
	if key == "" && provider == "gemini" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	return key
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	for _, s := range settings {
		v.SetDefault(s.key, s.value)
	}
}

// Validate reports settings that cannot work, wrapped in domain.ErrConfiguration.
// Credentials are checked later by the completion factory.
func (c *Config) Validate() error {
	var problems []string

	for name, t := range map[string]float64{
		"temperature.generate": c.Temperature.Generate,
		"temperature.dialogue": c.Temperature.Dialogue,
		"temperature.improve":  c.Temperature.Improve,
	} {
		if t < 0 || t > 2 {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and 2, got %v", name, t))
		}
	}
	switch strings.ToLower(c.Store.Backend) {
	case "memory", "file", "redis":
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not memory, file or redis", c.Store.Backend))
	}
	if c.Dialogue.HistoryWindow < 0 {
		problems = append(problems, "dialogue.history_window must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(problems, "; "))
}

// UserConfigDir returns the XDG config directory for storyloom.
func UserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "storyloom")
	}

	// Fall back to ~/.config/storyloom
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "storyloom")
	}
	return filepath.Join(home, ".config", "storyloom")
}
