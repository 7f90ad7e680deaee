package config

// Rent prices record storage. The reserve for n bytes is
// (AccountOverhead + n) * PerByteYear * ExemptionYears.
type Rent struct {
	PerByteYear     uint64
	ExemptionYears  uint64
	AccountOverhead uint64
}

// Passes holds the passes module parameters.
type Passes struct {
	Namespace           string
	CollectionMaxSize   uint32
	DefaultActivityDays uint32
}

// Pauses lists modules rejecting transitions at startup.
type Pauses struct {
	Passes bool
}

// RPC controls the JSON-RPC listener. Durations are in seconds.
type RPC struct {
	RequestsPerMinute   float64
	Burst               int
	NonceTTLSeconds     uint32
	ReadTimeoutSeconds  uint32
	WriteTimeoutSeconds uint32
	IdleTimeoutSeconds  uint32
}

// Index configures the SQL event index. Driver is "sqlite" or "postgres".
type Index struct {
	Enabled bool
	Driver  string
	DSN     string
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	Headers     string
	Metrics     bool
	Traces      bool
	SampleRatio float64
}

// Admin configures the JWT protected admin routes. The secret may be read
// from the environment variable named by HMACSecretEnv.
type Admin struct {
	Enabled       bool
	HMACSecret    string
	HMACSecretEnv string
	Issuer        string
	Audience      string
}

// Log configures the rotated log file.
type Log struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}
