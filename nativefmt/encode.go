package nativefmt

import (
	"encoding/binary"
	"hash/crc64"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/astcvm/astc-runtime/errors"
)

// Encode serializes a module image. Section offsets and the checksum in the
// returned header are computed here; values present in f.Header for those
// fields are ignored. Layout after the header is code, data, export table,
// manifest.
func Encode(f *File) ([]byte, error) {
	if len(f.Exports) > MaxExports {
		return nil, errors.Structural("export count %d exceeds limit %d", len(f.Exports), MaxExports)
	}
	for _, e := range f.Exports {
		if len(e.Name) == 0 || len(e.Name) > MaxExportName {
			return nil, errors.Structural("export name length %d out of range", len(e.Name))
		}
		if e.Type != ExportFunction && e.Type != ExportData {
			return nil, errors.Structural("export %q has unknown type %d", e.Name, e.Type)
		}
	}
	if !f.Header.Arch.Valid() {
		return nil, errors.Structural("unknown architecture %d", uint32(f.Header.Arch))
	}
	if !f.Header.Type.Valid() {
		return nil, errors.Structural("unknown module type %d", uint32(f.Header.Type))
	}

	var manifest []byte
	if f.Manifest.Version != "" || len(f.Manifest.Deps) > 0 {
		var err error
		manifest, err = cbor.Marshal(f.Manifest)
		if err != nil {
			return nil, errors.New(errors.PhaseFormat, errors.KindStructural).
				Detail("manifest encode").Cause(err).Build()
		}
	}

	exports := encodeExports(f.Exports)

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.CodeOffset, h.CodeSize = HeaderSize, uint32(len(f.Code))
	h.DataOffset = h.CodeOffset + h.CodeSize
	h.DataSize = uint32(len(f.Data))
	h.ExportOffset = h.DataOffset + h.DataSize
	h.ExportCount = uint32(len(f.Exports))
	h.DepOffset = h.ExportOffset + uint32(len(exports))
	h.DepSize = uint32(len(manifest))

	body := make([]byte, 0, len(f.Code)+len(f.Data)+len(exports)+len(manifest))
	body = append(body, f.Code...)
	body = append(body, f.Data...)
	body = append(body, exports...)
	body = append(body, manifest...)
	h.Checksum = crc64.Checksum(body, crcTable)

	out := make([]byte, HeaderSize, HeaderSize+len(body))
	encodeHeader(out, h)
	return append(out, body...), nil
}

// EncodeFile writes the encoded module to path.
func EncodeFile(f *File, path string) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IO(errors.PhaseFormat, path, err)
	}
	return nil
}

func encodeHeader(out []byte, h Header) {
	u32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(out[off:], v) }
	u32(0, h.Magic)
	u32(4, h.Version)
	u32(8, uint32(h.Arch))
	u32(12, uint32(h.Type))
	u32(16, h.CodeOffset)
	u32(20, h.CodeSize)
	u32(24, h.DataOffset)
	u32(28, h.DataSize)
	u32(32, h.ExportOffset)
	u32(36, h.ExportCount)
	u32(40, h.DepOffset)
	u32(44, h.DepSize)
	u32(48, h.EntryPoint)
	binary.LittleEndian.PutUint64(out[56:], h.Checksum)
}

func encodeExports(exports []Export) []byte {
	var out []byte
	for _, e := range exports {
		var nameLen [2]byte
		binary.LittleEndian.PutUint16(nameLen[:], uint16(len(e.Name)))
		out = append(out, nameLen[:]...)
		out = append(out, e.Name...)
		out = append(out, byte(e.Type), e.Flags)
		var fixed [16]byte
		binary.LittleEndian.PutUint64(fixed[:], e.Offset)
		binary.LittleEndian.PutUint64(fixed[8:], e.Size)
		out = append(out, fixed[:]...)
	}
	return out
}
