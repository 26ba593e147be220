package loader

import (
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// PlatformSuffix returns the module name suffix for the running
// architecture, e.g. "x64_64" on amd64. Empty on platforms without a
// defined module set.
func PlatformSuffix() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64_64"
	case "arm64":
		return "arm64_64"
	case "386":
		return "x86_32"
	default:
		return ""
	}
}

// platformModuleNames lists the well-known modules a platform ships.
func platformModuleNames(suffix string) []string {
	return []string{
		"vm_" + suffix,
		"libc_" + suffix,
	}
}

// AutoLoadPlatformModules loads the well-known platform module set from
// the configured module directory. Individual failures are logged and
// skipped; the return value is how many modules loaded successfully.
func (r *Registry) AutoLoadPlatformModules() int {
	suffix := PlatformSuffix()
	if suffix == "" {
		Logger().Warn("no platform module set for this architecture",
			zap.String("goarch", runtime.GOARCH))
		return 0
	}
	return r.AutoLoadNamed(platformModuleNames(suffix))
}

// AutoLoadNamed loads the named modules from the configured module
// directory, tolerating individual failures.
func (r *Registry) AutoLoadNamed(names []string) int {
	loaded := 0
	for _, name := range names {
		path := filepath.Join(r.moduleDir, name+".native")
		if _, err := r.Load(name, path); err != nil {
			Logger().Warn("module skipped during auto-load",
				zap.String("module", name),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded
}
