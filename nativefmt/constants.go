package nativefmt

// Magic is the .native file magic, "NATV" in little-endian byte order.
const Magic uint32 = 0x5654414E

// Version is the only header version this package accepts.
const Version uint32 = 1

// HeaderSize is the fixed size of the file header in bytes. The checksum
// covers every byte after it.
const HeaderSize = 64

// Arch identifies the target architecture of the module body.
type Arch uint32

const (
	ArchX8664 Arch = 1
	ArchARM64 Arch = 2
	ArchX8632 Arch = 3
)

// String returns the conventional architecture name.
func (a Arch) String() string {
	switch a {
	case ArchX8664:
		return "x64_64"
	case ArchARM64:
		return "arm64_64"
	case ArchX8632:
		return "x86_32"
	default:
		return "unknown"
	}
}

// Valid reports whether a is a defined architecture.
func (a Arch) Valid() bool {
	return a >= ArchX8664 && a <= ArchX8632
}

// ModuleType classifies what the module provides.
type ModuleType uint32

const (
	ModuleVM   ModuleType = 1
	ModuleLibc ModuleType = 2
	ModuleUser ModuleType = 3
)

// String returns the lowercase module type name.
func (t ModuleType) String() string {
	switch t {
	case ModuleVM:
		return "vm"
	case ModuleLibc:
		return "libc"
	case ModuleUser:
		return "user"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a defined module type.
func (t ModuleType) Valid() bool {
	return t >= ModuleVM && t <= ModuleUser
}

// Export entry types.
type ExportType uint8

const (
	ExportFunction ExportType = 1
	ExportData     ExportType = 2
)

// Sanity bounds on variable-length sections. A header claiming more than
// these is rejected before any allocation.
const (
	MaxExports      = 4096
	MaxExportName   = 256
	MaxManifestSize = 1 << 20
)
