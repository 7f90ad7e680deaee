package config

import (
	"path/filepath"
	"time"

	nativecommon "passmint/native/common"
	"passmint/native/passes"
	"passmint/observability/logging"
	telemetry "passmint/observability/otel"
	"passmint/rpc"
)

// PassesParams converts the [passes] section into module parameters.
func (c *Config) PassesParams() passes.Params {
	return passes.Params{
		Namespace:           c.Passes.Namespace,
		CollectionMaxSize:   c.Passes.CollectionMaxSize,
		DefaultActivityDays: c.Passes.DefaultActivityDays,
	}
}

func (c *Config) RentParams() nativecommon.Rent {
	return nativecommon.Rent{
		PerByteYear:     c.Rent.PerByteYear,
		ExemptionYears:  c.Rent.ExemptionYears,
		AccountOverhead: c.Rent.AccountOverhead,
	}
}

// PauseSet returns the pause set seeded from [pauses].
func (c *Config) PauseSet() *nativecommon.PauseSet {
	set := nativecommon.NewPauseSet()
	set.Set(passes.ModuleName, c.Pauses.Passes)
	return set
}

func seconds(v uint32) time.Duration { return time.Duration(v) * time.Second }

// RPCConfig converts the [rpc] and [admin] sections.
func (c *Config) RPCConfig() rpc.Config {
	return rpc.Config{
		RateLimit: rpc.RateLimit{RequestsPerMinute: c.RPC.RequestsPerMinute, Burst: c.RPC.Burst},
		NonceTTL:  seconds(c.RPC.NonceTTLSeconds),
		Admin: rpc.AdminConfig{
			Enabled:    c.Admin.Enabled,
			HMACSecret: c.Admin.HMACSecret,
			Issuer:     c.Admin.Issuer,
			Audience:   c.Admin.Audience,
		},
		ReadTimeout:  seconds(c.RPC.ReadTimeoutSeconds),
		WriteTimeout: seconds(c.RPC.WriteTimeoutSeconds),
		IdleTimeout:  seconds(c.RPC.IdleTimeoutSeconds),
	}
}

// TelemetryConfig converts the [telemetry] section for service.
func (c *Config) TelemetryConfig(service string) telemetry.Config {
	return telemetry.Config{
		ServiceName: service,
		Environment: c.Environment,
		Endpoint:    c.Telemetry.Endpoint,
		Insecure:    c.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(c.Telemetry.Headers),
		Metrics:     c.Telemetry.Metrics,
		Traces:      c.Telemetry.Traces,
		SampleRatio: c.Telemetry.SampleRatio,
	}
}

// LogOptions converts the [log] section. A relative file is placed under
// DataDir.
func (c *Config) LogOptions() logging.FileOptions {
	path := c.Log.File
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(c.DataDir, path)
	}
	return logging.FileOptions{
		Path:       path,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// CommitInterval is the period between state commits.
func (c *Config) CommitInterval() time.Duration {
	return seconds(c.CommitIntervalSeconds)
}

// StateDir is the ledger database location under DataDir.
func (c *Config) StateDir() string { return filepath.Join(c.DataDir, "state") }
