package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"passmint/native/passes"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Passes.Namespace != "passes" || cfg.Passes.CollectionMaxSize != 100 {
		t.Fatalf("unexpected passes defaults %+v", cfg.Passes)
	}
	if cfg.DataDir != filepath.Join(filepath.Dir(path), "passmint-data") {
		t.Fatalf("data dir not anchored: %s", cfg.DataDir)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload default: %v", err)
	}
	if again.ListenAddress != cfg.ListenAddress {
		t.Fatalf("reload mismatch %q vs %q", again.ListenAddress, cfg.ListenAddress)
	}
}

func TestLoadParsesSections(t *testing.T) {
	t.Setenv("TEST_PASSMINT_SECRET", "0123456789abcdef0123")
	path := writeConfig(t, `ListenAddress = "0.0.0.0:9000"
DataDir = "/var/lib/passmint"
GenesisFile = "genesis.yaml"
Environment = "staging"
CommitIntervalSeconds = 10

[rent]
PerByteYear = 10
ExemptionYears = 1
AccountOverhead = 0

[passes]
Namespace = "passes-test"
CollectionMaxSize = 25
DefaultActivityDays = 7

[pauses]
Passes = true

[rpc]
RequestsPerMinute = 120
Burst = 5
NonceTTLSeconds = 60

[index]
Enabled = true
Driver = "postgres"
DSN = "postgres://passmint@localhost/passmint"

[telemetry]
Enabled = true
Headers = "x-api-key=abc"
SampleRatio = 0.25

[admin]
Enabled = true
HMACSecretEnv = "TEST_PASSMINT_SECRET"

[log]
File = "passmint.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GenesisFile != filepath.Join(filepath.Dir(path), "genesis.yaml") {
		t.Fatalf("genesis path not anchored: %s", cfg.GenesisFile)
	}
	params := cfg.PassesParams()
	if params != (passes.Params{Namespace: "passes-test", CollectionMaxSize: 25, DefaultActivityDays: 7}) {
		t.Fatalf("unexpected params %+v", params)
	}
	if rent := cfg.RentParams(); rent.PerByteYear != 10 || rent.ExemptionYears != 1 || rent.AccountOverhead != 0 {
		t.Fatalf("unexpected rent %+v", rent)
	}
	if !cfg.PauseSet().IsPaused(passes.ModuleName) {
		t.Fatalf("expected passes paused")
	}
	rpcCfg := cfg.RPCConfig()
	if rpcCfg.NonceTTL != time.Minute || rpcCfg.RateLimit.Burst != 5 {
		t.Fatalf("unexpected rpc config %+v", rpcCfg)
	}
	if rpcCfg.Admin.HMACSecret != "0123456789abcdef0123" {
		t.Fatalf("admin secret not read from env")
	}
	tel := cfg.TelemetryConfig("passmintd")
	if tel.Headers["x-api-key"] != "abc" || tel.SampleRatio != 0.25 || tel.Environment != "staging" {
		t.Fatalf("unexpected telemetry %+v", tel)
	}
	if got := cfg.LogOptions().Path; got != filepath.Join("/var/lib/passmint", "passmint.log") {
		t.Fatalf("unexpected log path %s", got)
	}
	if cfg.CommitInterval() != 10*time.Second {
		t.Fatalf("unexpected commit interval %s", cfg.CommitInterval())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `ListenAddress = "127.0.0.1:8080"
ValidatorKey = "deadbeef"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "ValidatorKey") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"listen", func(c *Config) { c.ListenAddress = "nope" }, "ListenAddress"},
		{"commit", func(c *Config) { c.CommitIntervalSeconds = 0 }, "CommitIntervalSeconds"},
		{"rent", func(c *Config) { c.Rent.PerByteYear = 0 }, "rent"},
		{"namespace", func(c *Config) { c.Passes.Namespace = " " }, "namespace"},
		{"collection", func(c *Config) { c.Passes.CollectionMaxSize = 0 }, "collection_max_size"},
		{"activity", func(c *Config) { c.Passes.DefaultActivityDays = 4000 }, "default_activity_days"},
		{"index driver", func(c *Config) { c.Index = Index{Enabled: true, Driver: "mysql", DSN: "x"} }, "unsupported driver"},
		{"index dsn", func(c *Config) { c.Index = Index{Enabled: true, Driver: "sqlite"} }, "dsn"},
		{"sample", func(c *Config) { c.Telemetry.SampleRatio = 2 }, "sample_ratio"},
		{"admin", func(c *Config) { c.Admin = Admin{Enabled: true, HMACSecret: "short"} }, "hmac secret"},
	}
	if err := ValidateConfig(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}
