package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the apimeter service configuration.
type Config struct {
	HTTP      HTTPConfig              `yaml:"http"`
	Storage   StorageConfig           `yaml:"storage"`
	Providers ProvidersConfig         `yaml:"providers"`
	Budgets   map[string]BudgetConfig `yaml:"budgets"`
	Auth      AuthConfig              `yaml:"auth"`
	Logging   LoggingConfig           `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StorageConfig selects and configures the state store driver.
type StorageConfig struct {
	Driver string      `yaml:"driver"` // file, sqlite, redis, memory (default: file)
	Dir    string      `yaml:"dir"`    // file driver
	Path   string      `yaml:"path"`   // sqlite driver
	Redis  RedisConfig `yaml:"redis"`  // redis driver
}

// RedisConfig holds redis driver connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProvidersConfig holds credentials and pricing for the governed APIs.
// A provider with an empty api_key is simply not wired at startup.
type ProvidersConfig struct {
	Generative GenerativeProviderConfig `yaml:"generative"`
	Places     HTTPProviderConfig       `yaml:"places"`
	Weather    HTTPProviderConfig       `yaml:"weather"`
}

// GenerativeProviderConfig holds generative-text provider settings. Token
// costs are dollars per million tokens.
type GenerativeProviderConfig struct {
	APIKey               string  `yaml:"api_key"`
	BaseURL              string  `yaml:"base_url"`
	Model                string  `yaml:"model"`
	InputCostPerMillion  float64 `yaml:"input_cost_per_million_tokens"`
	OutputCostPerMillion float64 `yaml:"output_cost_per_million_tokens"`
}

// HTTPProviderConfig holds flat-rate provider settings.
type HTTPProviderConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	CostPerRequest float64 `yaml:"cost_per_request"`
}

// BudgetConfig seeds a provider's limits on first start, when no persisted
// limits exist yet. Absent fields mean unlimited.
type BudgetConfig struct {
	DailyLimit       *int64   `yaml:"daily_limit"`
	MonthlyLimit     *int64   `yaml:"monthly_limit"`
	DailyCostLimit   *float64 `yaml:"daily_cost_limit"`
	MonthlyCostLimit *float64 `yaml:"monthly_cost_limit"`
	CostPerRequest   *float64 `yaml:"cost_per_request"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. An empty budgets
// section is seeded with the stock limits for the three governed providers.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.Storage.Dir, "apimeter.db")
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "apimeter:"
	}
	if c.Storage.Redis.ReadinessTimeout <= 0 {
		c.Storage.Redis.ReadinessTimeout = 10
	}
	if c.Providers.Generative.Model == "" {
		c.Providers.Generative.Model = "gemini-1.5-flash"
	}
	if c.Providers.Generative.InputCostPerMillion == 0 {
		c.Providers.Generative.InputCostPerMillion = 0.075
	}
	if c.Providers.Generative.OutputCostPerMillion == 0 {
		c.Providers.Generative.OutputCostPerMillion = 0.30
	}
	if len(c.Budgets) == 0 {
		c.Budgets = DefaultBudgets()
	}
}

// DefaultBudgets returns the stock limits seeded when no budgets are
// configured and no persisted limits exist.
func DefaultBudgets() map[string]BudgetConfig {
	return map[string]BudgetConfig{
		"GEMINI_API": {
			DailyLimit:       int64Ptr(1000),
			MonthlyLimit:     int64Ptr(30000),
			DailyCostLimit:   floatPtr(5.0),
			MonthlyCostLimit: floatPtr(100.0),
			CostPerRequest:   floatPtr(0.001),
		},
		"GOOGLE_PLACES_API": {
			DailyLimit:       int64Ptr(1000),
			MonthlyLimit:     int64Ptr(30000),
			DailyCostLimit:   floatPtr(2.0),
			MonthlyCostLimit: floatPtr(50.0),
			CostPerRequest:   floatPtr(0.002),
		},
		"OPENWEATHER_API": {
			DailyLimit:       int64Ptr(1000),
			MonthlyLimit:     int64Ptr(100000),
			DailyCostLimit:   floatPtr(0.5),
			MonthlyCostLimit: floatPtr(10.0),
			CostPerRequest:   floatPtr(0.0005),
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Storage.Driver {
	case "file", "sqlite", "redis", "memory":
		// ok
	default:
		return fmt.Errorf(
			"storage.driver must be one of file, sqlite, redis, memory, got %q",
			c.Storage.Driver,
		)
	}
	if c.Storage.Driver == "redis" && len(c.Storage.Redis.Addrs) == 0 {
		return fmt.Errorf("storage.redis.addrs is required for the redis driver")
	}
	for name, b := range c.Budgets {
		if err := b.validate(); err != nil {
			return fmt.Errorf("budgets.%s: %w", name, err)
		}
	}
	return nil
}

func (b BudgetConfig) validate() error {
	if b.DailyLimit != nil && *b.DailyLimit < 0 {
		return fmt.Errorf("daily_limit must be non-negative, got %d", *b.DailyLimit)
	}
	if b.MonthlyLimit != nil && *b.MonthlyLimit < 0 {
		return fmt.Errorf("monthly_limit must be non-negative, got %d", *b.MonthlyLimit)
	}
	if b.DailyCostLimit != nil && *b.DailyCostLimit < 0 {
		return fmt.Errorf("daily_cost_limit must be non-negative, got %g", *b.DailyCostLimit)
	}
	if b.MonthlyCostLimit != nil && *b.MonthlyCostLimit < 0 {
		return fmt.Errorf("monthly_cost_limit must be non-negative, got %g", *b.MonthlyCostLimit)
	}
	return nil
}

func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
