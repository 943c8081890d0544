package config

// File and environment lookup.
const (
	configName = ".v8cov"
	envPrefix  = "V8COV"
)

// Merge defaults.
const (
	DefaultMergeWorkers   = 0
	DefaultMergeNormalize = true
)

// Input defaults.
const (
	DefaultInputValidate = true
	DefaultInputPattern  = "coverage-*.json"
	DefaultInputMaxSize  = "256MB"
)

// Output defaults.
const (
	DefaultOutputFormat = formatJSON

	formatJSON = "json"
	formatYAML = "yaml"
)

// Logging defaults.
const DefaultLogLevel = "info"

// Server defaults.
const (
	DefaultServerHost    = "127.0.0.1"
	DefaultServerPort    = 8686
	DefaultServerTimeout = "30s"
	DefaultServerMaxBody = "64MB"

	maxPort = 65535
)
