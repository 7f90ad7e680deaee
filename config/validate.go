package config

import (
	"fmt"
	"net"
	"strings"
)

var (
	MaxCollectionSize   = uint32(1_000_000)
	MaxActivityDays     = uint32(3650)
	MaxCommitInterval   = uint32(3600)
	minAdminSecretBytes = 16
)

func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("ListenAddress: %w", err)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir: required")
	}
	if c.CommitIntervalSeconds == 0 || c.CommitIntervalSeconds > MaxCommitInterval {
		return fmt.Errorf("CommitIntervalSeconds: must be within 1..%d", MaxCommitInterval)
	}
	if c.Rent.PerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		return fmt.Errorf("rent: per_byte_year and exemption_years must be positive")
	}
	if strings.TrimSpace(c.Passes.Namespace) == "" {
		return fmt.Errorf("passes: namespace required")
	}
	if c.Passes.CollectionMaxSize == 0 || c.Passes.CollectionMaxSize > MaxCollectionSize {
		return fmt.Errorf("passes: collection_max_size must be within 1..%d", MaxCollectionSize)
	}
	if c.Passes.DefaultActivityDays == 0 || c.Passes.DefaultActivityDays > MaxActivityDays {
		return fmt.Errorf("passes: default_activity_days must be within 1..%d", MaxActivityDays)
	}
	if c.RPC.RequestsPerMinute < 0 || c.RPC.Burst < 0 {
		return fmt.Errorf("rpc: rate limits must not be negative")
	}
	if c.Index.Enabled {
		switch strings.ToLower(c.Index.Driver) {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("index: unsupported driver %q", c.Index.Driver)
		}
		if strings.TrimSpace(c.Index.DSN) == "" {
			return fmt.Errorf("index: dsn required")
		}
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample_ratio must be within 0..1")
	}
	if c.Admin.Enabled && len(c.Admin.HMACSecret) < minAdminSecretBytes {
		return fmt.Errorf("admin: hmac secret must be at least %d bytes", minAdminSecretBytes)
	}
	return nil
}
