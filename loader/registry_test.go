package loader

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/astcvm/astc-runtime/comm"
	"github.com/astcvm/astc-runtime/errors"
	"github.com/astcvm/astc-runtime/nativefmt"
)

// writeModule encodes a minimal user module exporting the given function
// names and returns its path.
func writeModule(t *testing.T, dir, name, version string, exports []string, deps ...nativefmt.Dependency) string {
	t.Helper()

	f := &nativefmt.File{
		Header: nativefmt.Header{
			Arch: nativefmt.ArchX8664,
			Type: nativefmt.ModuleUser,
		},
		Manifest: nativefmt.Manifest{Version: version, Deps: deps},
		Code:     []byte{0xc3},
	}
	for i, sym := range exports {
		f.Exports = append(f.Exports, nativefmt.Export{
			Name:   sym,
			Type:   nativefmt.ExportFunction,
			Offset: uint64(i * 16),
			Size:   16,
		})
	}

	path := filepath.Join(dir, name+".native")
	if err := nativefmt.EncodeFile(f, path); err != nil {
		t.Fatalf("write module %s: %v", name, err)
	}
	return path
}

// stubBinder binds every export to a target returning a fixed word.
func stubBinder(word uint64) Binder {
	return BinderFunc(func(m *Module, e nativefmt.Export) (comm.Target, error) {
		return comm.Func0(func() (comm.Value, error) {
			return comm.Word(word), nil
		}), nil
	})
}

func newTestRegistry(opts Options) *Registry {
	r := NewRegistry(opts)
	r.RegisterBinder(nativefmt.ModuleUser, stubBinder(7))
	return r
}

func TestLoadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "mathlib", "1.0.0", []string{"add"})
	r := newTestRegistry(Options{})

	m1, err := r.Load("mathlib", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m2, err := r.Load("mathlib", path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m1 != m2 {
		t.Error("second load created a new module")
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
	if m1.State != StateLoaded || m1.Version() != "1.0.0" {
		t.Errorf("module = %+v", m1)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.native")
	if err := os.WriteFile(path, []byte("not a module"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestRegistry(Options{})
	_, err := r.Load("junk", path)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseFormat, Kind: errors.KindStructural}) {
		t.Fatalf("error = %v, want structural", err)
	}
	if r.Len() != 0 {
		t.Error("invalid module entered the registry")
	}
}

func TestLoadCapacity(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{MaxModules: 1})

	if _, err := r.Load("a", writeModule(t, dir, "a", "1.0.0", nil)); err != nil {
		t.Fatal(err)
	}
	_, err := r.Load("b", writeModule(t, dir, "b", "1.0.0", nil))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindCapacity}) {
		t.Fatalf("error = %v, want capacity", err)
	}
}

func TestUnloadCompacts(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{})
	r.Load("a", writeModule(t, dir, "a", "1.0.0", nil))
	r.Load("b", writeModule(t, dir, "b", "1.0.0", nil))
	r.Load("c", writeModule(t, dir, "c", "1.0.0", nil))

	if err := r.Unload("b"); err != nil {
		t.Fatal(err)
	}
	if err := r.Unload("b"); err == nil {
		t.Error("second unload succeeded")
	}

	mods := r.Modules()
	if len(mods) != 2 || mods[0].Name != "a" || mods[1].Name != "c" {
		t.Fatalf("modules after unload: %v", mods)
	}
	if mods[0].Order != 0 || mods[1].Order != 1 {
		t.Error("orders not compacted")
	}
	if m, ok := r.Get("c"); !ok || m.Name != "c" {
		t.Error("index stale after compaction")
	}
}

func TestResolveSymbol(t *testing.T) {
	dir := t.TempDir()
	r := newTestRegistry(Options{})
	r.Load("mathlib", writeModule(t, dir, "mathlib", "1.0.0", []string{"add", "mul"}))

	target, err := r.ResolveSymbol("mathlib", "add")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := target.Invoke(nil)
	if err != nil || v.Bits != 7 {
		t.Errorf("invoke = %v, %v", v, err)
	}

	if _, err := r.ResolveSymbol("mathlib", "missing"); err == nil {
		t.Error("resolved missing symbol")
	}
	if _, err := r.ResolveSymbol("nope", "add"); err == nil {
		t.Error("resolved symbol in missing module")
	}

	m, _ := r.Get("mathlib")
	if m.RefCount != 1 {
		t.Errorf("refcount = %d, want 1", m.RefCount)
	}
}

func TestResolveSymbolGlobalFirstWins(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{})
	r.RegisterBinder(nativefmt.ModuleUser, BinderFunc(func(m *Module, e nativefmt.Export) (comm.Target, error) {
		order := uint64(m.Order)
		return comm.Func0(func() (comm.Value, error) {
			return comm.Word(order), nil
		}), nil
	}))

	r.Load("first", writeModule(t, dir, "first", "1.0.0", []string{"dup", "only_first"}))
	r.Load("second", writeModule(t, dir, "second", "1.0.0", []string{"dup"}))

	target, err := r.ResolveSymbolGlobal("dup")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := target.Invoke(nil); v.Bits != 0 {
		t.Errorf("global resolve picked module order %d, want 0", v.Bits)
	}

	if _, err := r.ResolveSymbolGlobal("absent"); !stderrors.Is(err,
		&errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindNotFound}) {
		t.Errorf("error = %v, want not found", err)
	}

	matches, err := r.ResolveSymbolAll("dup")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 || matches[0].Module != "first" || matches[1].Module != "second" {
		t.Errorf("matches = %+v", matches)
	}
	if one, _ := r.ResolveSymbolAll("only_first"); len(one) != 1 {
		t.Errorf("expected single match, got %d", len(one))
	}
	if none, _ := r.ResolveSymbolAll("absent"); len(none) != 0 {
		t.Error("expected no matches")
	}
}

func TestResolveWithoutBinder(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{})
	r.Load("m", writeModule(t, dir, "m", "1.0.0", []string{"f"}))

	_, err := r.ResolveSymbol("m", "f")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindUnsupported}) {
		t.Fatalf("error = %v, want unsupported", err)
	}
}

func TestAutoLoadNamed(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "extras", "1.0.0", nil)

	r := newTestRegistry(Options{ModuleDir: dir})
	if n := r.AutoLoadNamed([]string{"extras", "ghost"}); n != 1 {
		t.Errorf("loaded %d modules, want 1", n)
	}
	if _, ok := r.Get("extras"); !ok {
		t.Error("extras not registered")
	}
}

func TestAutoLoadPlatformModules(t *testing.T) {
	suffix := PlatformSuffix()
	if suffix == "" {
		t.Skip("no platform module set on this architecture")
	}

	dir := t.TempDir()
	writeModule(t, dir, "vm_"+suffix, "1.0.0", []string{"vm_main"})
	// libc module deliberately absent; autoload tolerates partial failure.

	r := newTestRegistry(Options{ModuleDir: dir})
	if n := r.AutoLoadPlatformModules(); n != 1 {
		t.Errorf("loaded %d platform modules, want 1", n)
	}
	if _, ok := r.Get("vm_" + suffix); !ok {
		t.Error("vm module not registered")
	}
}
