package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrPolicyInvalid      = errors.New("policy must be \"retry\" or \"fail-fast\"")
	ErrWorkersInvalid     = errors.New("workers must be greater than zero")
	ErrDelayInvalid       = errors.New("construct_delay must be a non-negative duration")
	ErrFailFirstInvalid   = errors.New("fail_first cannot be negative")
	ErrDSNEmpty           = errors.New("dsn cannot be empty")
	ErrLogLevelInvalid    = errors.New("log_level must be debug, info, warn or error")
	ErrExporterInvalid    = errors.New("tracing.exporter must be none, stdout, file or otlp")
)
