package loader

import (
	stderrors "errors"
	"testing"

	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/nativefmt"
)

func dep(name, min, max string, required bool) nativefmt.Dependency {
	return nativefmt.Dependency{Name: name, Min: min, Max: max, Required: required}
}

func TestLoadOrderedDependenciesFirst(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{})

	paths := map[string]string{
		"app":  writeModule(t, dir, "app", "0.1.0", nil, dep("libc", "1.0.0", "2.0.0", true)),
		"libc": writeModule(t, dir, "libc", "1.4.2", []string{"printf"}),
	}

	order, err := r.LoadOrdered(paths)
	if err != nil {
		t.Fatalf("load ordered: %v", err)
	}
	if len(order) != 2 || order[0] != "libc" || order[1] != "app" {
		t.Fatalf("order = %v, want [libc app]", order)
	}

	libc, _ := r.Get("libc")
	app, _ := r.Get("app")
	if libc.Order >= app.Order {
		t.Errorf("libc order %d not before app order %d", libc.Order, app.Order)
	}
}

func TestLoadOrderedCycleCommitsNothing(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{})

	paths := map[string]string{
		"a": writeModule(t, dir, "a", "1.0.0", nil, dep("b", "", "", true)),
		"b": writeModule(t, dir, "b", "1.0.0", nil, dep("a", "", "", true)),
	}

	_, err := r.LoadOrdered(paths)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindDependency}) {
		t.Fatalf("error = %v, want dependency", err)
	}
	if r.Len() != 0 {
		t.Errorf("%d modules committed despite cycle", r.Len())
	}
}

func TestLoadOrderedVersionRange(t *testing.T) {
	cases := []struct {
		name       string
		libVersion string
		min, max   string
		wantErr    bool
	}{
		{"within range", "1.5.0", "1.0.0", "2.0.0", false},
		{"at minimum", "1.0.0", "1.0.0", "2.0.0", false},
		{"below minimum", "0.9.0", "1.0.0", "2.0.0", true},
		{"at maximum is excluded", "2.0.0", "1.0.0", "2.0.0", true},
		{"unbounded max", "9.9.9", "1.0.0", "", false},
		{"short form constraint", "1.5.0", "1.0", "2.0", false},
		{"short form at max", "2.0.0", "1.0", "2.0", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sub := t.TempDir()
			r := newTestRegistry(Options{})
			paths := map[string]string{
				"lib": writeModule(t, sub, "lib", c.libVersion, nil),
				"app": writeModule(t, sub, "app", "1.0.0", nil, dep("lib", c.min, c.max, true)),
			}
			_, err := r.LoadOrdered(paths)
			if c.wantErr && err == nil {
				t.Error("expected version error")
			}
			if !c.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if c.wantErr && r.Len() != 0 {
				t.Error("partial commit after version failure")
			}
		})
	}
}

func TestLoadOrderedMissingDeps(t *testing.T) {
	dir := t.TempDir()

	r := newTestRegistry(Options{})
	paths := map[string]string{
		"app": writeModule(t, dir, "app", "1.0.0", nil, dep("ghost", "1.0.0", "", true)),
	}
	_, err := r.LoadOrdered(paths)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindDependency}) {
		t.Fatalf("error = %v, want dependency", err)
	}

	// Optional missing dependency is tolerated.
	r = newTestRegistry(Options{})
	paths = map[string]string{
		"app2": writeModule(t, dir, "app2", "1.0.0", nil, dep("extras", "", "", false)),
	}
	order, err := r.LoadOrdered(paths)
	if err != nil {
		t.Fatalf("optional dep: %v", err)
	}
	if len(order) != 1 {
		t.Errorf("order = %v", order)
	}
}

func TestLoadOrderedSatisfiedByRegistry(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{})

	if _, err := r.Load("libc", writeModule(t, dir, "libc", "1.2.0", nil)); err != nil {
		t.Fatal(err)
	}

	paths := map[string]string{
		"app": writeModule(t, dir, "app", "1.0.0", nil, dep("libc", "1.0.0", "2.0.0", true)),
	}
	order, err := r.LoadOrdered(paths)
	if err != nil {
		t.Fatalf("load ordered: %v", err)
	}
	if len(order) != 1 || order[0] != "app" {
		t.Errorf("order = %v", order)
	}
}

func TestLoadOrderedDeterministic(t *testing.T) {
	dir := t.TempDir()
	paths := map[string]string{
		"m1": writeModule(t, dir, "m1", "1.0.0", nil),
		"m2": writeModule(t, dir, "m2", "1.0.0", nil),
		"m3": writeModule(t, dir, "m3", "1.0.0", nil),
	}

	var first []string
	for i := 0; i < 5; i++ {
		r := newTestRegistry(Options{})
		order, err := r.LoadOrdered(paths)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = order
			continue
		}
		for j := range order {
			if order[j] != first[j] {
				t.Fatalf("run %d order %v differs from %v", i, order, first)
			}
		}
	}
}
