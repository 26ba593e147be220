// Package nativefmt encodes and decodes the .native module container: a
// fixed little-endian header, code and data sections, an export table, and
// an optional CBOR dependency manifest. A CRC64 checksum over everything
// after the header guards the body; decoding validates all of it before
// returning anything.
package nativefmt
