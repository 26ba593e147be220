package nativefmt

// Header is the fixed 64-byte little-endian file header.
//
//	offset  size  field
//	0       4     magic "NATV"
//	4       4     version
//	8       4     architecture
//	12      4     module type
//	16      4     code offset
//	20      4     code size
//	24      4     data offset
//	28      4     data size
//	32      4     export table offset
//	36      4     export count
//	40      4     manifest offset
//	44      4     manifest size
//	48      4     entry point
//	52      4     reserved
//	56      8     crc64 checksum of all bytes after the header
type Header struct {
	Magic        uint32
	Version      uint32
	Arch         Arch
	Type         ModuleType
	CodeOffset   uint32
	CodeSize     uint32
	DataOffset   uint32
	DataSize     uint32
	ExportOffset uint32
	ExportCount  uint32
	DepOffset    uint32
	DepSize      uint32
	EntryPoint   uint32
	Checksum     uint64
}

// Export is one entry of the export table. Offset and Size locate the
// symbol within the code or data section depending on Type.
type Export struct {
	Name   string
	Type   ExportType
	Flags  uint8
	Offset uint64
	Size   uint64
}

// Dependency is one entry of the module's dependency manifest. The version
// range is half-open: Min inclusive, Max exclusive. Empty Max means
// unbounded.
type Dependency struct {
	Name     string `cbor:"name"`
	Min      string `cbor:"min"`
	Max      string `cbor:"max,omitempty"`
	Required bool   `cbor:"required"`
}

// Manifest is the CBOR-encoded dependency section.
type Manifest struct {
	Version string       `cbor:"version"`
	Deps    []Dependency `cbor:"deps,omitempty"`
}

// File is a fully decoded .native module.
type File struct {
	Header   Header
	Exports  []Export
	Manifest Manifest
	Code     []byte
	Data     []byte
}

// FindExport returns the export entry named name, or nil.
func (f *File) FindExport(name string) *Export {
	for i := range f.Exports {
		if f.Exports[i].Name == name {
			return &f.Exports[i]
		}
	}
	return nil
}
