package ndr

import (
	"encoding/binary"
)

// TypeSerialization1 header constants per MS-RPCE 2.2.6. The common
// header carries the format version and an endianness/fill indicator;
// the private header carries the serialized object's byte length.
const (
	headerVersion      = 0x01
	headerEndianLittle = 0x10
	commonHeaderLength = 0x0008
	headerFiller       = 0xCCCCCCCC

	// HeaderSize is the combined size of the common and private headers.
	HeaderSize = 16
)

// ReadTypeSerialization1Header validates and consumes the 16-byte
// TypeSerialization1 common and private headers.
func (r *Reader) ReadTypeSerialization1Header() error {
	if r.Remaining() < HeaderSize {
		return malformedf("buffer too short for TypeSerialization1 header: %d bytes", r.Remaining())
	}
	version, _ := r.ReadUint8()
	if version != headerVersion {
		return malformedf("unsupported common header version: %d", version)
	}
	endian, _ := r.ReadUint8()
	if endian != headerEndianLittle {
		return malformedf("unsupported endianness indicator: 0x%02x", endian)
	}
	hdrLen, _ := r.ReadUint16()
	if hdrLen != commonHeaderLength {
		return malformedf("unexpected common header length: %d", hdrLen)
	}
	// Filler, object buffer length, second filler. The declared object
	// length is advisory; the info buffer size is authoritative.
	if err := r.Skip(4 + 4 + 4); err != nil {
		return err
	}
	return nil
}

// MarshalTypeSerialization1 prepends the TypeSerialization1 common and
// private headers to a serialized NDR object.
func MarshalTypeSerialization1(body []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, headerVersion, headerEndianLittle)
	out = binary.LittleEndian.AppendUint16(out, commonHeaderLength)
	out = binary.LittleEndian.AppendUint32(out, headerFiller)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = binary.LittleEndian.AppendUint32(out, 0)
	return append(out, body...)
}
