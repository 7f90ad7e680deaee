package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress         string    `toml:"ListenAddress"`
	DataDir               string    `toml:"DataDir"`
	GenesisFile           string    `toml:"GenesisFile"`
	Environment           string    `toml:"Environment"`
	CommitIntervalSeconds uint32    `toml:"CommitIntervalSeconds"`
	Rent                  Rent      `toml:"rent"`
	Passes                Passes    `toml:"passes"`
	Pauses                Pauses    `toml:"pauses"`
	RPC                   RPC       `toml:"rpc"`
	Index                 Index     `toml:"index"`
	Telemetry             Telemetry `toml:"telemetry"`
	Admin                 Admin     `toml:"admin"`
	Log                   Log       `toml:"log"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		ListenAddress:         "127.0.0.1:8080",
		DataDir:               "./passmint-data",
		Environment:           "local",
		CommitIntervalSeconds: 5,
		Rent:                  Rent{PerByteYear: 3480, ExemptionYears: 2, AccountOverhead: 128},
		Passes:                Passes{Namespace: "passes", CollectionMaxSize: 100, DefaultActivityDays: 30},
		RPC: RPC{
			RequestsPerMinute:   600,
			Burst:               60,
			NonceTTLSeconds:     900,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
			IdleTimeoutSeconds:  120,
		},
		Index:     Index{Driver: "sqlite"},
		Telemetry: Telemetry{Endpoint: "localhost:4318", Insecure: true, Metrics: true, Traces: true, SampleRatio: 1},
		Admin:     Admin{HMACSecretEnv: "PASSMINT_ADMIN_SECRET", Issuer: "passmint"},
		Log:       Log{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

// Load loads the configuration from the given path. A missing file is
// created with defaults. Keys the decoder does not recognise are rejected.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if cfg.Admin.HMACSecret == "" && cfg.Admin.HMACSecretEnv != "" {
		cfg.Admin.HMACSecret = strings.TrimSpace(os.Getenv(cfg.Admin.HMACSecretEnv))
	}
	cfg.resolvePaths(path)
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// resolvePaths anchors relative genesis and data paths at the config file.
func (c *Config) resolvePaths(configPath string) {
	base := filepath.Dir(configPath)
	if c.GenesisFile != "" && !filepath.IsAbs(c.GenesisFile) {
		c.GenesisFile = filepath.Join(base, c.GenesisFile)
	}
	if c.DataDir != "" && !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(base, c.DataDir)
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths(path)
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
