package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chat-relay/internal/integrations/cohere"
	"chat-relay/internal/integrations/gemini"
)

const (
	CredentialSourceEnv = "env"
	CredentialSourceSSM = "ssm"
)

// Config is built once at startup and passed to the components that need
// it. Provider credentials are deliberately absent: they are resolved per
// request by a credentials.Source.
type Config struct {
	// Server
	Port string `yaml:"port"`
	Env  string `yaml:"env"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// Upstreams
	UpstreamTimeout      time.Duration `yaml:"upstream_timeout"`
	CohereBaseURL        string        `yaml:"cohere_base_url"`
	GeminiBaseURL        string        `yaml:"gemini_base_url"`
	CohereModel          string        `yaml:"cohere_model"`
	CohereTemperature    float64       `yaml:"cohere_temperature"`
	CohereMaxTokens      int           `yaml:"cohere_max_tokens"`
	StrictFailureMapping bool          `yaml:"strict_failure_mapping"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// Credentials
	CredentialSource string `yaml:"credential_source"`
	ParamPrefix      string `yaml:"param_prefix"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:              "8080",
		Env:               "development",
		LogLevel:          "info",
		LogFormat:         "json",
		UpstreamTimeout:   30 * time.Second,
		CohereBaseURL:     cohere.DefaultBaseURL,
		GeminiBaseURL:     gemini.DefaultBaseURL,
		CohereModel:       cohere.DefaultModel,
		CohereTemperature: cohere.DefaultTemperature,
		CohereMaxTokens:   cohere.DefaultMaxTokens,
		MetricsEnabled:    true,
		CredentialSource:  CredentialSourceEnv,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE and the environment, in increasing precedence. A .env file
// in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnvOrDefault("LOG_FILE", cfg.LogFile)
	cfg.UpstreamTimeout = getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", cfg.UpstreamTimeout)
	cfg.CohereBaseURL = getEnvOrDefault("COHERE_BASE_URL", cfg.CohereBaseURL)
	cfg.GeminiBaseURL = getEnvOrDefault("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.CohereModel = getEnvOrDefault("COHERE_MODEL", cfg.CohereModel)
	cfg.CohereTemperature = getEnvAsFloatOrDefault("COHERE_TEMPERATURE", cfg.CohereTemperature)
	cfg.CohereMaxTokens = getEnvAsIntOrDefault("COHERE_MAX_TOKENS", cfg.CohereMaxTokens)
	cfg.StrictFailureMapping = getEnvAsBoolOrDefault("STRICT_FAILURE_MAPPING", cfg.StrictFailureMapping)
	cfg.MetricsEnabled = getEnvAsBoolOrDefault("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.CredentialSource = strings.ToLower(getEnvOrDefault("CREDENTIAL_SOURCE", cfg.CredentialSource))
	cfg.ParamPrefix = getEnvOrDefault("PARAM_PREFIX", cfg.ParamPrefix)
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.UpstreamTimeout < 0 {
		errs = append(errs, errors.New("upstream timeout must not be negative"))
	}
	for name, raw := range map[string]string{"cohere base url": c.CohereBaseURL, "gemini base url": c.GeminiBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q must be an absolute http(s) url", name, raw))
		}
	}
	if strings.TrimSpace(c.CohereModel) == "" {
		errs = append(errs, errors.New("cohere model must not be empty"))
	}
	if c.CohereMaxTokens <= 0 {
		errs = append(errs, errors.New("cohere max tokens must be positive"))
	}
	switch c.CredentialSource {
	case CredentialSourceEnv:
	case CredentialSourceSSM:
		if strings.TrimSpace(c.ParamPrefix) == "" {
			errs = append(errs, errors.New("PARAM_PREFIX is required when CREDENTIAL_SOURCE=ssm"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown credential source %q", c.CredentialSource))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// CohereParams returns the fixed generation parameters for chat calls.
func (c *Config) CohereParams() cohere.Params {
	return cohere.Params{
		Model:       c.CohereModel,
		Temperature: c.CohereTemperature,
		MaxTokens:   c.CohereMaxTokens,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsDurationOrDefault accepts Go durations ("15s") or whole seconds ("15").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
