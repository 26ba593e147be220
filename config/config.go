package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/astcvm/astc-runtime/errors"
)

// Config is the runtime configuration, loadable from a TOML file. Zero
// values mean "use the default"; Load starts from Default and overlays
// whatever the file sets.
type Config struct {
	// ModuleDir is where platform modules are discovered.
	ModuleDir string `toml:"module_dir"`

	// AutoLoad lists module names loaded at startup from ModuleDir,
	// ordered by their dependency manifests.
	AutoLoad []string `toml:"auto_load"`

	// StackCapacity is the VM operand stack size in words.
	StackCapacity int `toml:"stack_capacity"`

	// MaxModules bounds the module registry.
	MaxModules int `toml:"max_modules"`

	// MaxInterfaces bounds the bridge and dispatch registries.
	MaxInterfaces int `toml:"max_interfaces"`

	// MaxPending bounds the asynchronous call table.
	MaxPending int `toml:"max_pending"`

	// MaxResources bounds the capability handle table.
	MaxResources int `toml:"max_resources"`

	// WasmMemoryPages limits wasm instance memory in 64KB pages.
	WasmMemoryPages uint32 `toml:"wasm_memory_pages"`

	// LogLevel is one of debug, info, warn, error. Empty disables
	// logging entirely.
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ModuleDir:     "bin",
		StackCapacity: 64 * 1024,
		MaxModules:    64,
		MaxInterfaces: 256,
		MaxPending:    1024,
		MaxResources:  4096,
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.IO(errors.PhaseConfig, path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindStructural, err, path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations no component could honor.
func (c Config) Validate() error {
	if c.StackCapacity < 0 || c.MaxModules < 0 || c.MaxInterfaces < 0 ||
		c.MaxPending < 0 || c.MaxResources < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "capacities must not be negative")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "unknown log level "+c.LogLevel)
	}
	return nil
}

// NewLogger builds a zap logger honoring LogLevel. An empty level yields
// the no-op logger.
func (c Config) NewLogger() (*zap.Logger, error) {
	if c.LogLevel == "" {
		return zap.NewNop(), nil
	}

	var level zapcore.Level
	switch c.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown log level "+c.LogLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindRuntime, err, "build logger")
	}
	return logger, nil
}
