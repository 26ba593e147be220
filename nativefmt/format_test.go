package nativefmt

import (
	"encoding/binary"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/astcvm/astc-runtime/errors"
)

func sampleFile() *File {
	return &File{
		Header: Header{
			Arch:       ArchX8664,
			Type:       ModuleUser,
			EntryPoint: 16,
		},
		Exports: []Export{
			{Name: "add", Type: ExportFunction, Offset: 0, Size: 32},
			{Name: "table", Type: ExportData, Offset: 8, Size: 64},
		},
		Manifest: Manifest{
			Version: "1.2.0",
			Deps: []Dependency{
				{Name: "libc_x64_64", Min: "1.0.0", Max: "2.0.0", Required: true},
				{Name: "extras", Min: "0.1.0", Required: false},
			},
		},
		Code: []byte{0x90, 0x90, 0xc3},
		Data: []byte("hello"),
	}
}

func TestRoundTrip(t *testing.T) {
	data, err := Encode(sampleFile())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if f.Header.Arch != ArchX8664 || f.Header.Type != ModuleUser {
		t.Errorf("header mismatch: %+v", f.Header)
	}
	if f.Header.EntryPoint != 16 {
		t.Errorf("entry point = %d, want 16", f.Header.EntryPoint)
	}
	if len(f.Exports) != 2 {
		t.Fatalf("got %d exports, want 2", len(f.Exports))
	}
	if e := f.FindExport("add"); e == nil || e.Type != ExportFunction || e.Size != 32 {
		t.Errorf("export add = %+v", e)
	}
	if f.FindExport("missing") != nil {
		t.Error("found nonexistent export")
	}
	if string(f.Code) != "\x90\x90\xc3" || string(f.Data) != "hello" {
		t.Error("section content mismatch")
	}
	if f.Manifest.Version != "1.2.0" || len(f.Manifest.Deps) != 2 {
		t.Errorf("manifest = %+v", f.Manifest)
	}
	if d := f.Manifest.Deps[0]; d.Name != "libc_x64_64" || !d.Required || d.Max != "2.0.0" {
		t.Errorf("dep = %+v", d)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	valid, err := Encode(sampleFile())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	corrupt := func(mutate func([]byte)) []byte {
		c := make([]byte, len(valid))
		copy(c, valid)
		mutate(c)
		return c
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"truncated header", valid[:HeaderSize-1]},
		{"bad magic", corrupt(func(b []byte) { b[0] = 'X' })},
		{"bad version", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[4:], 99) })},
		{"bad arch", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[8:], 77) })},
		{"bad module type", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[12:], 0) })},
		{"flipped body bit", corrupt(func(b []byte) { b[HeaderSize] ^= 0x01 })},
		{"bad checksum", corrupt(func(b []byte) { b[56] ^= 0xff })},
		{"export count overflow", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[36:], MaxExports+1) })},
	}

	want := &errors.Error{Phase: errors.PhaseFormat, Kind: errors.KindStructural}
	for _, c := range cases {
		f, err := Decode(c.data)
		if err == nil {
			t.Errorf("%s: decode accepted corrupt input", c.name)
			continue
		}
		if f != nil {
			t.Errorf("%s: got partial file alongside error", c.name)
		}
		if !stderrors.Is(err, want) {
			t.Errorf("%s: error = %v, want structural format error", c.name, err)
		}
	}
}

func TestDecodeNoManifest(t *testing.T) {
	f := sampleFile()
	f.Manifest = Manifest{}

	data, err := Encode(f)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Header.DepSize != 0 || len(got.Manifest.Deps) != 0 {
		t.Errorf("expected empty manifest, got %+v", got.Manifest)
	}
}

func TestEncodeValidation(t *testing.T) {
	f := sampleFile()
	f.Exports[0].Type = ExportType(9)
	if _, err := Encode(f); err == nil {
		t.Error("encode accepted unknown export type")
	}

	f = sampleFile()
	f.Header.Arch = Arch(0)
	if _, err := Encode(f); err == nil {
		t.Error("encode accepted unknown architecture")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_x64_64.native")

	if err := EncodeFile(sampleFile(), path); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.FindExport("add") == nil {
		t.Error("export lost on disk round trip")
	}

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.native"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseFormat, Kind: errors.KindIO}) {
		t.Errorf("error = %v, want io format error", err)
	}
}
