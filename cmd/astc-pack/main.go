package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/astcvm/astc-runtime/nativefmt"
)

// buildSpec is the TOML description of a module to pack.
type buildSpec struct {
	Name    string      `toml:"name"`
	Arch    string      `toml:"arch"`
	Type    string      `toml:"type"`
	Version string      `toml:"version"`
	Code    string      `toml:"code"`
	Data    string      `toml:"data"`
	Entry   uint32      `toml:"entry_point"`
	Exports []exportDef `toml:"exports"`
	Deps    []depDef    `toml:"deps"`
}

type exportDef struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Offset uint64 `toml:"offset"`
	Size   uint64 `toml:"size"`
}

type depDef struct {
	Name     string `toml:"name"`
	Min      string `toml:"min"`
	Max      string `toml:"max"`
	Required bool   `toml:"required"`
}

func main() {
	var (
		specFile = flag.String("spec", "", "TOML build spec")
		out      = flag.String("o", "", "Output path (default <name>.native)")
		inspect  = flag.String("inspect", "", "Print the contents of a .native file and exit")
	)
	flag.Parse()

	if *inspect != "" {
		if err := inspectModule(*inspect); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *specFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: astc-pack -spec <module.toml> [-o out.native]")
		fmt.Fprintln(os.Stderr, "       astc-pack -inspect <module.native>")
		os.Exit(1)
	}

	if err := pack(*specFile, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func pack(specFile, out string) error {
	var spec buildSpec
	if _, err := toml.DecodeFile(specFile, &spec); err != nil {
		return fmt.Errorf("read spec: %w", err)
	}
	if spec.Name == "" {
		return fmt.Errorf("spec has no module name")
	}

	arch, err := parseArch(spec.Arch)
	if err != nil {
		return err
	}
	modType, err := parseType(spec.Type)
	if err != nil {
		return err
	}

	f := &nativefmt.File{
		Header: nativefmt.Header{
			Arch:       arch,
			Type:       modType,
			EntryPoint: spec.Entry,
		},
		Manifest: nativefmt.Manifest{Version: spec.Version},
	}

	baseDir := filepath.Dir(specFile)
	if spec.Code != "" {
		if f.Code, err = os.ReadFile(filepath.Join(baseDir, spec.Code)); err != nil {
			return fmt.Errorf("read code: %w", err)
		}
	}
	if spec.Data != "" {
		if f.Data, err = os.ReadFile(filepath.Join(baseDir, spec.Data)); err != nil {
			return fmt.Errorf("read data: %w", err)
		}
	}

	for _, e := range spec.Exports {
		et := nativefmt.ExportFunction
		if e.Type == "data" {
			et = nativefmt.ExportData
		}
		f.Exports = append(f.Exports, nativefmt.Export{
			Name: e.Name, Type: et, Offset: e.Offset, Size: e.Size,
		})
	}
	for _, d := range spec.Deps {
		f.Manifest.Deps = append(f.Manifest.Deps, nativefmt.Dependency{
			Name: d.Name, Min: d.Min, Max: d.Max, Required: d.Required,
		})
	}

	if out == "" {
		out = spec.Name + ".native"
	}
	if err := nativefmt.EncodeFile(f, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d exports, %d deps)\n", out, len(f.Exports), len(f.Manifest.Deps))
	return nil
}

func inspectModule(path string) error {
	f, err := nativefmt.DecodeFile(path)
	if err != nil {
		return err
	}

	h := f.Header
	fmt.Printf("Module: %s\n", path)
	fmt.Printf("  arch=%s type=%s entry=%d\n", h.Arch, h.Type, h.EntryPoint)
	fmt.Printf("  code=%d bytes, data=%d bytes, checksum=%016x\n", h.CodeSize, h.DataSize, h.Checksum)

	if f.Manifest.Version != "" {
		fmt.Printf("  version=%s\n", f.Manifest.Version)
	}
	if len(f.Manifest.Deps) > 0 {
		fmt.Println("Dependencies:")
		for _, d := range f.Manifest.Deps {
			rng := d.Min
			if d.Max != "" {
				rng = "[" + d.Min + ", " + d.Max + ")"
			}
			req := "optional"
			if d.Required {
				req = "required"
			}
			fmt.Printf("  %-20s %-20s %s\n", d.Name, rng, req)
		}
	}

	fmt.Printf("Exports (%d):\n", len(f.Exports))
	for _, e := range f.Exports {
		kind := "func"
		if e.Type == nativefmt.ExportData {
			kind = "data"
		}
		fmt.Printf("  %-24s %s offset=%d size=%d\n", e.Name, kind, e.Offset, e.Size)
	}
	return nil
}

func parseArch(s string) (nativefmt.Arch, error) {
	switch s {
	case "x64_64", "amd64", "x86_64":
		return nativefmt.ArchX8664, nil
	case "arm64_64", "arm64":
		return nativefmt.ArchARM64, nil
	case "x86_32", "386":
		return nativefmt.ArchX8632, nil
	default:
		return 0, fmt.Errorf("unknown arch %q", s)
	}
}

func parseType(s string) (nativefmt.ModuleType, error) {
	switch s {
	case "vm":
		return nativefmt.ModuleVM, nil
	case "libc":
		return nativefmt.ModuleLibc, nil
	case "user", "":
		return nativefmt.ModuleUser, nil
	default:
		return 0, fmt.Errorf("unknown module type %q", s)
	}
}
