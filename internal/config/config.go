// Package config assembles runtime settings from defaults, an optional YAML
// file, .env files and PREDICTFORM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/controller"
)

// DefaultBaseURL is the prediction service used when nothing else is
// configured. Release builds override it with
// -ldflags "-X github.com/goliatone/go-predictform/internal/config.DefaultBaseURL=...".
var DefaultBaseURL = "http://localhost:5000"

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PREDICTFORM"
	// LegacyBaseURLEnv is also accepted for the service base URL.
	LegacyBaseURLEnv = "PREDICT_API"

	configDirName  = ".predictform"
	configFileName = "config"
)

// Config is the effective runtime configuration.
type Config struct {
	Predict    PredictConfig    `mapstructure:"predict" yaml:"predict"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Submission SubmissionConfig `mapstructure:"submission" yaml:"submission"`
	Theme      ThemeConfig      `mapstructure:"theme" yaml:"theme"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// PredictConfig configures the outgoing prediction client.
type PredictConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Path overrides the contract's predict path.
	Path       string        `mapstructure:"path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	HTTPProxy  string        `mapstructure:"http_proxy"`
	HTTPSProxy string        `mapstructure:"https_proxy"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	Burst      int           `mapstructure:"burst"`
	// Strict validates payloads against the contract before sending.
	Strict bool `mapstructure:"strict"`
	// Contract is an OpenAPI document path; empty uses the bundled one.
	Contract string `mapstructure:"contract"`
}

// ServerConfig configures the web surface.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	Settle     time.Duration `mapstructure:"settle"`
}

// SubmissionConfig selects the in-flight policy.
type SubmissionConfig struct {
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// ThemeConfig selects the page theme.
type ThemeConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Variant string `mapstructure:"variant" yaml:"variant"`
	// TemplatesDir overrides the embedded page templates when set.
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Predict: PredictConfig{
			BaseURL:   DefaultBaseURL,
			UserAgent: "go-predictform",
			Burst:     1,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
			Settle:     500 * time.Millisecond,
		},
		Submission: SubmissionConfig{Policy: string(controller.PolicyLatestWins)},
		Theme:      ThemeConfig{Name: "predictform"},
		Log:        LogConfig{Level: logging.LevelInfo.String()},
	}
}

// SetDefaults registers every default on v so environment variables bind to
// known keys.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("predict.base_url", d.Predict.BaseURL)
	v.SetDefault("predict.path", d.Predict.Path)
	v.SetDefault("predict.timeout", d.Predict.Timeout)
	v.SetDefault("predict.user_agent", d.Predict.UserAgent)
	v.SetDefault("predict.http_proxy", d.Predict.HTTPProxy)
	v.SetDefault("predict.https_proxy", d.Predict.HTTPSProxy)
	v.SetDefault("predict.rate_limit", d.Predict.RateLimit)
	v.SetDefault("predict.burst", d.Predict.Burst)
	v.SetDefault("predict.strict", d.Predict.Strict)
	v.SetDefault("predict.contract", d.Predict.Contract)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("server.settle", d.Server.Settle)
	v.SetDefault("submission.policy", d.Submission.Policy)
	v.SetDefault("theme.name", d.Theme.Name)
	v.SetDefault("theme.variant", d.Theme.Variant)
	v.SetDefault("theme.templates_dir", d.Theme.TemplatesDir)
	v.SetDefault("log.level", d.Log.Level)
}

// BindEnv enables PREDICTFORM_* overrides (dots become underscores) and the
// legacy PREDICT_API variable for the base URL.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("predict.base_url", EnvPrefix+"_PREDICT_BASE_URL", LegacyBaseURLEnv)
}

// ReadFile points v at path, or at $HOME/.predictform/config.yaml when path
// is empty, and reads it. A missing default file is not an error. It returns
// the file used, if any.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		v.AddConfigPath(filepath.Join(home, configDirName))
		v.SetConfigType("yaml")
		v.SetConfigName(configFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("config: read %s: %w", describe(path), err)
	}
	return v.ConfigFileUsed(), nil
}

func describe(path string) string {
	if path == "" {
		return "default config file"
	}
	return path
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Predict.BaseURL = strings.TrimSpace(cfg.Predict.BaseURL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load builds a Config from defaults, the config file at path (or the
// default location) and the environment.
func Load(path string) (Config, string, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return Config{}, "", fmt.Errorf("config: bind env: %w", err)
	}
	used, err := ReadFile(v, path)
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := Decode(v)
	return cfg, used, err
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Predict.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: predict.base_url %q must be an absolute http(s) URL", c.Predict.BaseURL)
	}
	if c.Predict.Timeout < 0 {
		return fmt.Errorf("config: predict.timeout must not be negative")
	}
	if c.Predict.RateLimit < 0 {
		return fmt.Errorf("config: predict.rate_limit must not be negative")
	}
	if c.Predict.RateLimit > 0 && c.Predict.Burst < 1 {
		return fmt.Errorf("config: predict.burst must be at least 1 when rate limiting")
	}
	if _, err := controller.ParsePolicy(c.Submission.Policy); err != nil {
		return fmt.Errorf("config: submission.policy: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// MarshalYAML renders durations as Go duration strings.
func (p PredictConfig) MarshalYAML() (any, error) {
	return struct {
		BaseURL    string  `yaml:"base_url"`
		Path       string  `yaml:"path"`
		Timeout    string  `yaml:"timeout"`
		UserAgent  string  `yaml:"user_agent"`
		HTTPProxy  string  `yaml:"http_proxy"`
		HTTPSProxy string  `yaml:"https_proxy"`
		RateLimit  float64 `yaml:"rate_limit"`
		Burst      int     `yaml:"burst"`
		Strict     bool    `yaml:"strict"`
		Contract   string  `yaml:"contract"`
	}{
		p.BaseURL, p.Path, p.Timeout.String(), p.UserAgent, p.HTTPProxy,
		p.HTTPSProxy, p.RateLimit, p.Burst, p.Strict, p.Contract,
	}, nil
}

// MarshalYAML renders durations as Go duration strings.
func (s ServerConfig) MarshalYAML() (any, error) {
	return struct {
		Addr       string `yaml:"addr"`
		SessionTTL string `yaml:"session_ttl"`
		Settle     string `yaml:"settle"`
	}{s.Addr, s.SessionTTL.String(), s.Settle.String()}, nil
}

// WriteYAML writes cfg as YAML.
func WriteYAML(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}

// WriteDefault writes a commented default config file.
func WriteDefault(w io.Writer) error {
	header := `# predictform configuration
#
# Sources, highest priority first:
#   1. CLI flags
#   2. Environment variables (PREDICTFORM_*, e.g. PREDICTFORM_PREDICT_TIMEOUT=10s;
#      PREDICT_API is accepted for predict.base_url)
#   3. This file
#   4. Variables from a .env file
#   5. Built-in defaults
#
# predict.timeout: 0s waits for the service indefinitely
# submission.policy: latest-wins | cancel-stale | single-flight
# log.level: error | warn | info | debug

`
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("config: write header: %w", err)
	}
	return WriteYAML(w, DefaultConfig())
}

// DefaultPath returns $HOME/.predictform/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: find home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName+".yaml"), nil
}
