package loader

import (
	"sort"
	"strings"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"

	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// LoadOrdered loads a batch of modules respecting their dependency
// manifests: every file is decoded and validated, the batch is ordered so
// dependencies come before dependents, and version constraints are checked
// against manifest versions. Nothing is committed to the registry unless
// the whole batch passes, so a cycle or a missing required dependency
// leaves the registry untouched. Returns the names in commit order.
//
// A dependency may be satisfied by a module already in the registry or by
// another member of the batch. A missing optional dependency logs and is
// skipped.
func (r *Registry) LoadOrdered(paths map[string]string) ([]string, error) {
	staged := make(map[string]*nativefmt.File, len(paths))
	for name, path := range paths {
		r.mu.Lock()
		_, exists := r.index[name]
		r.mu.Unlock()
		if exists {
			continue
		}
		f, err := nativefmt.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		staged[name] = f
	}

	names := make([]string, 0, len(staged))
	for name := range staged {
		names = append(names, name)
	}
	sort.Strings(names)

	order, err := r.sortStaged(names, staged)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.modules)+len(order) > r.maxMods {
		return nil, errors.Capacity(errors.PhaseLoad, "module registry", r.maxMods)
	}
	for _, name := range order {
		r.commitLocked(name, paths[name], staged[name])
	}
	return order, nil
}

// sortStaged produces a dependency-first ordering of the staged batch via
// depth-first traversal. The in-progress marker detects cycles; iteration
// over the sorted name list keeps the result deterministic.
func (r *Registry) sortStaged(names []string, staged map[string]*nativefmt.File) ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	marks := make(map[string]int, len(names))
	order := make([]string, 0, len(names))

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return errors.Dependency("dependency cycle involving %q", name)
		}
		marks[name] = visiting

		f := staged[name]
		deps := f.Manifest.Deps
		for _, dep := range deps {
			if err := r.checkDep(name, dep, staged, visit); err != nil {
				return err
			}
		}

		marks[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (r *Registry) checkDep(name string, dep nativefmt.Dependency, staged map[string]*nativefmt.File, visit func(string) error) error {
	var depVersion string
	if f, inBatch := staged[dep.Name]; inBatch {
		if err := visit(dep.Name); err != nil {
			return err
		}
		depVersion = f.Manifest.Version
	} else if m, loaded := r.Get(dep.Name); loaded {
		depVersion = m.Version()
	} else {
		if !dep.Required {
			Logger().Info("optional dependency missing",
				zap.String("module", name),
				zap.String("dependency", dep.Name))
			return nil
		}
		return errors.Dependency("module %q requires %q, which is neither loaded nor in the batch", name, dep.Name)
	}

	return checkVersionRange(name, dep, depVersion)
}

// checkVersionRange verifies depVersion against the half-open range
// [dep.Min, dep.Max). An empty constraint side is unbounded.
func checkVersionRange(name string, dep nativefmt.Dependency, depVersion string) error {
	if dep.Min == "" && dep.Max == "" {
		return nil
	}
	if depVersion == "" {
		if !dep.Required {
			Logger().Warn("optional dependency has no version to check",
				zap.String("module", name),
				zap.String("dependency", dep.Name))
			return nil
		}
		return errors.Dependency("module %q constrains %q but it declares no version", name, dep.Name)
	}

	v, err := parseVersion(depVersion)
	if err != nil {
		return errors.Dependency("module %q has unparsable version %q", dep.Name, depVersion)
	}
	if dep.Min != "" {
		min, err := parseVersion(dep.Min)
		if err != nil {
			return errors.Dependency("module %q declares bad minimum %q for %q", name, dep.Min, dep.Name)
		}
		if v.LessThan(*min) {
			return errors.Dependency("module %q needs %q >= %s, have %s", name, dep.Name, dep.Min, depVersion)
		}
	}
	if dep.Max != "" {
		max, err := parseVersion(dep.Max)
		if err != nil {
			return errors.Dependency("module %q declares bad maximum %q for %q", name, dep.Max, dep.Name)
		}
		if !v.LessThan(*max) {
			return errors.Dependency("module %q needs %q < %s, have %s", name, dep.Name, dep.Max, depVersion)
		}
	}
	return nil
}

// parseVersion accepts short forms like "1.0" by padding missing
// components, since module manifests often state major.minor only.
func parseVersion(s string) (*semver.Version, error) {
	for strings.Count(s, ".") < 2 {
		s += ".0"
	}
	return semver.NewVersion(s)
}
