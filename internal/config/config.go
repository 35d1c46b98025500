// Package config loads aidol settings from defaults, an optional YAML file,
// AIDOL_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/englishaidol/aidol/internal/archive"
	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/distractors"
	"github.com/englishaidol/aidol/internal/llm"
	"github.com/englishaidol/aidol/internal/store"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Import   ImportConfig   `mapstructure:"import"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	LLM      LLMConfig      `mapstructure:"llm"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr            string          `mapstructure:"addr"`
	Mode            string          `mapstructure:"mode"`
	MaxUploadBytes  int64           `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ImportConfig struct {
	MaxFieldLength    int    `mapstructure:"max_field_length"`
	PlaceholderPolicy string `mapstructure:"placeholder_policy"`
	Delimiter         string `mapstructure:"delimiter"`
}

type ArchiveConfig struct {
	Type      string      `mapstructure:"type"`
	LocalPath string      `mapstructure:"local_path"`
	MinIO     MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LLMConfig struct {
	// Provider is empty or "none" when AI enrichment is off.
	Provider          string         `mapstructure:"provider"`
	Anthropic         ProviderConfig `mapstructure:"anthropic"`
	OpenAI            ProviderConfig `mapstructure:"openai"`
	Gemini            ProviderConfig `mapstructure:"gemini"`
	OpenRouter        ProviderConfig `mapstructure:"openrouter"`
	Concurrency       int            `mapstructure:"concurrency"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Timeout           time.Duration  `mapstructure:"timeout"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// setDefaults registers every key so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	imp := csvimport.DefaultConfig()
	arc := archive.DefaultConfig()
	lc := llm.DefaultConfig()

	v.SetDefault("database.driver", string(store.DialectSQLite))
	v.SetDefault("database.dsn", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_bytes", 5<<20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.rps", 5.0)
	v.SetDefault("server.rate_limit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("import.max_field_length", imp.MaxFieldLength)
	v.SetDefault("import.placeholder_policy", string(imp.PlaceholderPolicy))
	v.SetDefault("import.delimiter", "")

	v.SetDefault("archive.type", arc.Type)
	v.SetDefault("archive.local_path", arc.LocalPath)
	v.SetDefault("archive.minio.endpoint", "")
	v.SetDefault("archive.minio.access_key", "")
	v.SetDefault("archive.minio.secret_key", "")
	v.SetDefault("archive.minio.bucket", "")
	v.SetDefault("archive.minio.region", arc.MinIO.Region)
	v.SetDefault("archive.minio.use_ssl", false)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", lc.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", lc.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", lc.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", lc.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.concurrency", 4)
	v.SetDefault("llm.requests_per_second", lc.RateLimit.RequestsPerSecond)
	v.SetDefault("llm.timeout", lc.Timeout)
}

// envAliases are the short and vendor-standard names accepted for some
// keys besides the AIDOL_ prefixed key path.
var envAliases = []struct {
	key  string
	envs []string
}{
	{"database.dsn", []string{"AIDOL_DATABASE_DSN", "AIDOL_DB"}},
	{"llm.provider", []string{"AIDOL_LLM_PROVIDER"}},
	{"llm.anthropic.api_key", []string{"AIDOL_LLM_ANTHROPIC_API_KEY", "AIDOL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
	{"llm.openai.api_key", []string{"AIDOL_LLM_OPENAI_API_KEY", "AIDOL_OPENAI_API_KEY", "OPENAI_API_KEY"}},
	{"llm.gemini.api_key", []string{"AIDOL_LLM_GEMINI_API_KEY", "AIDOL_GEMINI_API_KEY", "GEMINI_API_KEY"}},
	{"llm.openrouter.api_key", []string{"AIDOL_LLM_OPENROUTER_API_KEY", "AIDOL_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"}},
	{"archive.minio.access_key", []string{"AIDOL_ARCHIVE_MINIO_ACCESS_KEY", "MINIO_ACCESS_KEY"}},
	{"archive.minio.secret_key", []string{"AIDOL_ARCHIVE_MINIO_SECRET_KEY", "MINIO_SECRET_KEY"}},
}

func bindEnvAliases(v *viper.Viper) error {
	for _, a := range envAliases {
		if err := v.BindEnv(append([]string{a.key}, a.envs...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", a.key, err)
		}
	}
	return nil
}

// Load builds the configuration. configFile may be empty, in which case
// aidol.yaml is searched in $XDG_CONFIG_HOME/aidol and the working
// directory; a missing file is not an error. bind, when non-nil, runs
// last so callers can bind command-line flags on top.
func Load(configFile string, bind func(v *viper.Viper) error) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AIDOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvAliases(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("aidol")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Database.DSN == "" && cfg.Database.Driver == string(store.DialectSQLite) {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Database.DSN = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "aidol")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aidol")
}

// Validate checks enum-like settings.
func (c *Config) Validate() error {
	switch store.Dialect(c.Database.Driver) {
	case store.DialectSQLite, store.DialectPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for %s", c.Database.Driver)
	}
	if _, err := c.CSVImport(); err != nil {
		return err
	}
	switch c.Archive.Type {
	case "none", "local", "minio":
	default:
		return fmt.Errorf("unknown archive type: %q", c.Archive.Type)
	}
	if c.LLMEnabled() {
		if err := c.LLMProvider().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CSVImport returns the normalizer settings.
func (c *Config) CSVImport() (csvimport.Config, error) {
	cfg := csvimport.DefaultConfig()
	cfg.MaxFieldLength = c.Import.MaxFieldLength
	cfg.PlaceholderPolicy = csvimport.PlaceholderPolicy(c.Import.PlaceholderPolicy)
	d, err := csvimport.ParseDelimiter(c.Import.Delimiter)
	if err != nil {
		return cfg, err
	}
	cfg.Delimiter = d
	return cfg, cfg.Validate()
}

// ArchiveSettings returns the archive backend settings.
func (c *Config) ArchiveSettings() archive.Config {
	return archive.Config{
		Type:      c.Archive.Type,
		LocalPath: c.Archive.LocalPath,
		MinIO: archive.MinIOConfig{
			Endpoint:  c.Archive.MinIO.Endpoint,
			AccessKey: c.Archive.MinIO.AccessKey,
			SecretKey: c.Archive.MinIO.SecretKey,
			Bucket:    c.Archive.MinIO.Bucket,
			Region:    c.Archive.MinIO.Region,
			UseSSL:    c.Archive.MinIO.UseSSL,
		},
	}
}

// LLMEnabled reports whether an LLM provider is selected.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != "none"
}

// LLMProvider returns the provider settings.
func (c *Config) LLMProvider() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.LLM.Provider
	cfg.Anthropic = llm.AnthropicConfig{APIKey: c.LLM.Anthropic.APIKey, Model: c.LLM.Anthropic.Model, BaseURL: c.LLM.Anthropic.BaseURL}
	cfg.OpenAI = llm.OpenAIConfig{APIKey: c.LLM.OpenAI.APIKey, Model: c.LLM.OpenAI.Model, BaseURL: c.LLM.OpenAI.BaseURL}
	cfg.Gemini = llm.GeminiConfig{APIKey: c.LLM.Gemini.APIKey, Model: c.LLM.Gemini.Model, BaseURL: c.LLM.Gemini.BaseURL}
	cfg.OpenRouter = llm.OpenRouterConfig{APIKey: c.LLM.OpenRouter.APIKey, Model: c.LLM.OpenRouter.Model, BaseURL: c.LLM.OpenRouter.BaseURL}
	cfg.RateLimit.RequestsPerSecond = c.LLM.RequestsPerSecond
	if c.LLM.Timeout > 0 {
		cfg.Timeout = c.LLM.Timeout
	}
	return cfg
}

// Distractors returns the enrichment settings.
func (c *Config) Distractors() distractors.Config {
	cfg := distractors.DefaultConfig()
	if c.LLM.Concurrency > 0 {
		cfg.Concurrency = c.LLM.Concurrency
	}
	cfg.Timeout = c.LLM.Timeout
	return cfg
}
