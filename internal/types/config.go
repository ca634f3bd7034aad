package types

type RunMode string

const (
	// ModeLocal is the mode for running against a local database
	ModeLocal RunMode = "local"
	// ModeProduction is the mode for running in a deployed environment
	ModeProduction RunMode = "production"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
