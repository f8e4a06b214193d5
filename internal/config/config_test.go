package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 0},
		Storage: StorageConfig{Driver: "file"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: "postgres"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestValidate_ValidDrivers(t *testing.T) {
	for _, driver := range []string{"file", "sqlite", "memory"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := Config{
				HTTP:    HTTPConfig{Port: 8080},
				Storage: StorageConfig{Driver: driver},
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: "redis"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Storage.Redis.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestValidate_NegativeBudget(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: "file"},
		Budgets: map[string]BudgetConfig{
			"GEMINI_API": {DailyCostLimit: floatPtr(-5.0)},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative budget limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("expected driver=file, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Dir != "data" {
		t.Errorf("expected dir=data, got %q", cfg.Storage.Dir)
	}
	if cfg.Storage.Redis.KeyPrefix != "apimeter:" {
		t.Errorf("expected KeyPrefix='apimeter:', got %q", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Providers.Generative.Model != "gemini-1.5-flash" {
		t.Errorf("expected default model, got %q", cfg.Providers.Generative.Model)
	}
	if cfg.Providers.Generative.InputCostPerMillion != 0.075 {
		t.Errorf("expected input rate 0.075, got %g", cfg.Providers.Generative.InputCostPerMillion)
	}
}

func TestApplyDefaults_SeedsStockBudgets(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if len(cfg.Budgets) != 3 {
		t.Fatalf("expected 3 seeded budgets, got %d", len(cfg.Budgets))
	}

	gemini, ok := cfg.Budgets["GEMINI_API"]
	if !ok {
		t.Fatal("expected GEMINI_API budget")
	}
	if gemini.DailyLimit == nil || *gemini.DailyLimit != 1000 {
		t.Errorf("expected daily limit 1000, got %v", gemini.DailyLimit)
	}
	if gemini.DailyCostLimit == nil || *gemini.DailyCostLimit != 5.0 {
		t.Errorf("expected daily cost limit 5.0, got %v", gemini.DailyCostLimit)
	}

	weather := cfg.Budgets["OPENWEATHER_API"]
	if weather.MonthlyLimit == nil || *weather.MonthlyLimit != 100000 {
		t.Errorf("expected monthly limit 100000, got %v", weather.MonthlyLimit)
	}
	if weather.MonthlyCostLimit == nil || *weather.MonthlyCostLimit != 10.0 {
		t.Errorf("expected monthly cost limit 10.0, got %v", weather.MonthlyCostLimit)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Storage: StorageConfig{Driver: "sqlite", Dir: "/var/lib/apimeter"},
		Budgets: map[string]BudgetConfig{"CUSTOM_API": {}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected driver=sqlite, got %q", cfg.Storage.Driver)
	}
	if len(cfg.Budgets) != 1 {
		t.Errorf("configured budgets must not be replaced by the stock set, got %d", len(cfg.Budgets))
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("APIMETER_TEST_VAR", "hello")

	got := string(expandEnvVars([]byte("a: ${APIMETER_TEST_VAR}")))
	if got != "a: hello" {
		t.Errorf("expected 'a: hello', got %q", got)
	}

	got = string(expandEnvVars([]byte("b: ${APIMETER_UNSET_VAR:-fallback}")))
	if got != "b: fallback" {
		t.Errorf("expected 'b: fallback', got %q", got)
	}

	got = string(expandEnvVars([]byte("c: ${APIMETER_UNSET_VAR}")))
	if got != "c: " {
		t.Errorf("expected empty expansion, got %q", got)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("load local config: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("expected file driver, got %q", cfg.Storage.Driver)
	}
	if len(cfg.Budgets) != 3 {
		t.Errorf("expected 3 budgets, got %d", len(cfg.Budgets))
	}
}
