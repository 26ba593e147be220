package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.StackCapacity != 64*1024 || cfg.MaxModules != 64 {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.toml")
	content := `
module_dir = "/opt/astc/modules"
stack_capacity = 1024
log_level = "debug"
auto_load = ["vm_x64_64", "libc_x64_64"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModuleDir != "/opt/astc/modules" || cfg.StackCapacity != 1024 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxModules != 64 {
		t.Errorf("unset key lost its default: %d", cfg.MaxModules)
	}
	if len(cfg.AutoLoad) != 2 || cfg.AutoLoad[0] != "vm_x64_64" {
		t.Errorf("auto_load = %v", cfg.AutoLoad)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("stack_capacity = ["), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("malformed toml accepted")
	}

	neg := filepath.Join(dir, "neg.toml")
	os.WriteFile(neg, []byte("max_modules = -1"), 0o644)
	if _, err := Load(neg); err == nil {
		t.Error("negative capacity accepted")
	}

	level := filepath.Join(dir, "level.toml")
	os.WriteFile(level, []byte(`log_level = "loud"`), 0o644)
	if _, err := Load(level); err == nil {
		t.Error("unknown log level accepted")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.NewLogger()
	if err != nil || logger == nil {
		t.Fatalf("nop logger: %v", err)
	}

	cfg.LogLevel = "warn"
	logger, err = cfg.NewLogger()
	if err != nil || logger == nil {
		t.Fatalf("warn logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled at warn level")
	}
}
