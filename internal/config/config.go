// Package config loads the lazyslot playground configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// FileName is the default project config file name.
const FileName = ".lazyslot.json"

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Policy         string  `json:"policy"`
	Workers        int     `json:"workers"`
	ConstructDelay string  `json:"construct_delay"`
	FailFirst      int     `json:"fail_first"`
	DSN            string  `json:"dsn"`
	LogLevel       string  `json:"log_level"`
	Tracing        Tracing `json:"tracing"`

	// Resolved values (computed, not serialized)
	PolicyValue  slot.Policy   `json:"-"`
	Delay        time.Duration `json:"-"`
	EffectiveCwd string        `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Tracing configures construction spans.
type Tracing struct {
	Enabled      bool   `json:"enabled"`
	Exporter     string `json:"exporter"`
	FilePath     string `json:"file_path,omitempty"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Policy:         slot.Retry.String(),
		Workers:        100,
		ConstructDelay: "50ms",
		DSN:            "postgres://localhost:5432/app",
		LogLevel:       "info",
		Tracing: Tracing{
			Exporter:    "none",
			ServiceName: "lazyslot",
		},
	}
}

// Overrides holds values set on the command line. Empty strings and nil
// pointers mean "not set"; the ints are pointers so an explicit zero still
// reaches validation.
type Overrides struct {
	Policy         string
	Workers        *int
	ConstructDelay string
	FailFirst      *int
	LogLevel       string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       Overrides         // CLI flag values
	Env             map[string]string // environment variables
}

// globalPath returns $XDG_CONFIG_HOME/lazyslot/config.json if set, otherwise
// ~/.config/lazyslot/config.json. Empty if neither variable is set.
func globalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "lazyslot", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "lazyslot", "config.json")
	}

	return ""
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.lazyslot.json, if exists)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. CLI overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		globalCfg, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = path
			cfg = merge(cfg, globalCfg)
		}
	}

	projectCfg, projectPath, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	cfg = applyOverrides(cfg, input.Overrides)
	cfg.EffectiveCwd = workDir

	if p := cfg.Tracing.FilePath; p != "" && !filepath.IsAbs(p) {
		cfg.Tracing.FilePath = filepath.Join(workDir, p)
	}

	return resolve(cfg)
}

// loadProject loads .lazyslot.json from workDir or the explicit file.
// Returns the config and the path if loaded.
func loadProject(workDir, configPath string) (partial, string, error) {
	if configPath == "" {
		path := filepath.Join(workDir, FileName)

		cfg, loaded, err := loadFile(path, false)
		if err != nil || !loaded {
			return partial{}, "", err
		}

		return cfg, path, nil
	}

	path := configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	if _, statErr := os.Stat(path); statErr != nil {
		return partial{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	cfg, _, err := loadFile(path, true)
	if err != nil {
		return partial{}, "", err
	}

	return cfg, path, nil
}

// partial is a config file's content. Pointer fields distinguish "absent"
// from an explicit zero value.
type partial struct {
	Policy         *string         `json:"policy"`
	Workers        *int            `json:"workers"`
	ConstructDelay *string         `json:"construct_delay"`
	FailFirst      *int            `json:"fail_first"`
	DSN            *string         `json:"dsn"`
	LogLevel       *string         `json:"log_level"`
	Tracing        *partialTracing `json:"tracing"`
}

// partialTracing is the tracing object of a config file.
type partialTracing struct {
	Enabled      *bool   `json:"enabled"`
	Exporter     *string `json:"exporter"`
	FilePath     *string `json:"file_path"`
	OTLPEndpoint *string `json:"otlp_endpoint"`
	ServiceName  *string `json:"service_name"`
}

// loadFile loads a config file. If mustExist is false, missing files are
// reported as not loaded.
func loadFile(path string, mustExist bool) (partial, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return partial{}, false, nil
		}

		return partial{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parse(data)
	if parseErr != nil {
		return partial{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parse(data []byte) (partial, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return partial{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg partial

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return partial{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func merge(base Config, overlay partial) Config {
	if overlay.Policy != nil {
		base.Policy = *overlay.Policy
	}

	if overlay.Workers != nil {
		base.Workers = *overlay.Workers
	}

	if overlay.ConstructDelay != nil {
		base.ConstructDelay = *overlay.ConstructDelay
	}

	if overlay.FailFirst != nil {
		base.FailFirst = *overlay.FailFirst
	}

	if overlay.DSN != nil {
		base.DSN = *overlay.DSN
	}

	if overlay.LogLevel != nil {
		base.LogLevel = *overlay.LogLevel
	}

	if t := overlay.Tracing; t != nil {
		if t.Enabled != nil {
			base.Tracing.Enabled = *t.Enabled
		}

		if t.Exporter != nil {
			base.Tracing.Exporter = *t.Exporter
		}

		if t.FilePath != nil {
			base.Tracing.FilePath = *t.FilePath
		}

		if t.OTLPEndpoint != nil {
			base.Tracing.OTLPEndpoint = *t.OTLPEndpoint
		}

		if t.ServiceName != nil {
			base.Tracing.ServiceName = *t.ServiceName
		}
	}

	return base
}

func applyOverrides(cfg Config, o Overrides) Config {
	if o.Policy != "" {
		cfg.Policy = o.Policy
	}

	if o.Workers != nil {
		cfg.Workers = *o.Workers
	}

	if o.ConstructDelay != "" {
		cfg.ConstructDelay = o.ConstructDelay
	}

	if o.FailFirst != nil {
		cfg.FailFirst = *o.FailFirst
	}

	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	return cfg
}

// resolve validates cfg and fills the computed fields.
func resolve(cfg Config) (Config, error) {
	policy, err := slot.ParsePolicy(cfg.Policy)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %q", ErrPolicyInvalid, cfg.Policy)
	}

	cfg.PolicyValue = policy
	cfg.Policy = policy.String()

	if cfg.Workers <= 0 {
		return Config{}, ErrWorkersInvalid
	}

	if cfg.ConstructDelay != "" {
		delay, parseErr := time.ParseDuration(cfg.ConstructDelay)
		if parseErr != nil || delay < 0 {
			return Config{}, fmt.Errorf("%w: %q", ErrDelayInvalid, cfg.ConstructDelay)
		}

		cfg.Delay = delay
	}

	if cfg.FailFirst < 0 {
		return Config{}, ErrFailFirstInvalid
	}

	if cfg.DSN == "" {
		return Config{}, ErrDSNEmpty
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrLogLevelInvalid, cfg.LogLevel)
	}

	switch cfg.Tracing.Exporter {
	case "", "none", "stdout", "file", "otlp":
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrExporterInvalid, cfg.Tracing.Exporter)
	}

	return cfg, nil
}

// Format renders the serialized part of cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
