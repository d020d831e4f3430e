package config

// Default values applied when neither the config file nor the
// environment overrides them.
const (
	// DefaultDownloadTimeoutSeconds bounds each download attempt.
	DefaultDownloadTimeoutSeconds = 10

	// DefaultEmbeddedWriteRate caps embedded payload writes at 32 MiB/s.
	DefaultEmbeddedWriteRate = 32 << 20
)
