package nativefmt

import (
	"encoding/binary"
	"hash/crc64"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/astcvm/astc-runtime/errors"
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// Decode parses and validates a .native module image. Validation is
// all-or-nothing: any structural failure returns an error and no partial
// File. The checksum covers every byte after the 64-byte header.
func Decode(data []byte) (*File, error) {
	if len(data) < HeaderSize {
		return nil, errors.Structural("file truncated: %d bytes, header needs %d", len(data), HeaderSize)
	}

	h := decodeHeader(data)

	if h.Magic != Magic {
		return nil, errors.Structural("bad magic 0x%08x, want 0x%08x", h.Magic, Magic)
	}
	if h.Version != Version {
		return nil, errors.Structural("unsupported version %d, want %d", h.Version, Version)
	}
	if !h.Arch.Valid() {
		return nil, errors.Structural("unknown architecture %d", uint32(h.Arch))
	}
	if !h.Type.Valid() {
		return nil, errors.Structural("unknown module type %d", uint32(h.Type))
	}
	if h.ExportCount > MaxExports {
		return nil, errors.Structural("export count %d exceeds limit %d", h.ExportCount, MaxExports)
	}
	if h.DepSize > MaxManifestSize {
		return nil, errors.Structural("manifest size %d exceeds limit %d", h.DepSize, MaxManifestSize)
	}

	if got := crc64.Checksum(data[HeaderSize:], crcTable); got != h.Checksum {
		return nil, errors.Structural("checksum mismatch: computed 0x%016x, header says 0x%016x", got, h.Checksum)
	}

	code, err := section(data, h.CodeOffset, h.CodeSize, "code")
	if err != nil {
		return nil, err
	}
	dataSec, err := section(data, h.DataOffset, h.DataSize, "data")
	if err != nil {
		return nil, err
	}

	exports, err := decodeExports(data, h.ExportOffset, h.ExportCount)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if h.DepSize > 0 {
		raw, err := section(data, h.DepOffset, h.DepSize, "manifest")
		if err != nil {
			return nil, err
		}
		if err := cbor.Unmarshal(raw, &manifest); err != nil {
			return nil, errors.New(errors.PhaseFormat, errors.KindStructural).
				Detail("manifest decode").Cause(err).Build()
		}
	}

	return &File{
		Header:   h,
		Exports:  exports,
		Manifest: manifest,
		Code:     code,
		Data:     dataSec,
	}, nil
}

// DecodeFile reads and decodes the module at path.
func DecodeFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseFormat, path, err)
	}
	return Decode(data)
}

func decodeHeader(data []byte) Header {
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	return Header{
		Magic:        u32(0),
		Version:      u32(4),
		Arch:         Arch(u32(8)),
		Type:         ModuleType(u32(12)),
		CodeOffset:   u32(16),
		CodeSize:     u32(20),
		DataOffset:   u32(24),
		DataSize:     u32(28),
		ExportOffset: u32(32),
		ExportCount:  u32(36),
		DepOffset:    u32(40),
		DepSize:      u32(44),
		EntryPoint:   u32(48),
		Checksum:     binary.LittleEndian.Uint64(data[56:]),
	}
}

func section(data []byte, offset, size uint32, name string) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	end := uint64(offset) + uint64(size)
	if offset < HeaderSize || end > uint64(len(data)) {
		return nil, errors.Structural("%s section [%d, %d) outside file of %d bytes", name, offset, end, len(data))
	}
	return data[offset:end], nil
}

func decodeExports(data []byte, offset, count uint32) ([]Export, error) {
	if count == 0 {
		return nil, nil
	}
	if offset < HeaderSize || uint64(offset) > uint64(len(data)) {
		return nil, errors.Structural("export table offset %d outside file", offset)
	}

	exports := make([]Export, 0, count)
	pos := int(offset)
	for i := uint32(0); i < count; i++ {
		if pos+2 > len(data) {
			return nil, errors.Structural("export %d truncated at name length", i)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if nameLen == 0 || nameLen > MaxExportName {
			return nil, errors.Structural("export %d name length %d out of range", i, nameLen)
		}
		if pos+nameLen+2+16 > len(data) {
			return nil, errors.Structural("export %d truncated", i)
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen

		typ := ExportType(data[pos])
		flags := data[pos+1]
		pos += 2
		if typ != ExportFunction && typ != ExportData {
			return nil, errors.Structural("export %q has unknown type %d", name, typ)
		}

		exports = append(exports, Export{
			Name:   name,
			Type:   typ,
			Flags:  flags,
			Offset: binary.LittleEndian.Uint64(data[pos:]),
			Size:   binary.LittleEndian.Uint64(data[pos+8:]),
		})
		pos += 16
	}
	return exports, nil
}
