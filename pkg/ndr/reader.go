package ndr

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Malformed indicates that a byte stream violates NDR encoding rules:
// a read past the end of the buffer, an alignment gap that is not zero
// filled elsewhere, or a count field that disagrees with the data.
type Malformed struct {
	EText string
}

func (e Malformed) Error() string {
	return "malformed NDR stream: " + e.EText
}

func malformedf(format string, a ...interface{}) Malformed {
	return Malformed{EText: fmt.Sprintf(format, a...)}
}

// Reader provides sequential reading of NDR-encoded data.
type Reader struct {
	data   []byte
	offset int
}

// NewReader creates an NDR reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Skip advances the offset by n bytes.
func (r *Reader) Skip(n int) error {
	if r.offset+n > len(r.data) {
		return malformedf("skip of %d bytes runs past buffer end", n)
	}
	r.offset += n
	return nil
}

// Align advances the offset to the next multiple of n.
func (r *Reader) Align(n int) error {
	if n <= 1 || r.offset%n == 0 {
		return nil
	}
	pad := n - r.offset%n
	if r.offset+pad > len(r.data) {
		return malformedf("alignment to %d bytes runs past buffer end", n)
	}
	r.offset += pad
	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.offset >= len(r.data) {
		return 0, malformedf("buffer underflow reading uint8 at offset %d", r.offset)
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

// ReadUint16 reads a little-endian uint16, aligned to 2 bytes.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.Align(2); err != nil {
		return 0, err
	}
	if r.offset+2 > len(r.data) {
		return 0, malformedf("buffer underflow reading uint16 at offset %d", r.offset)
	}
	v := binary.LittleEndian.Uint16(r.data[r.offset:])
	r.offset += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32, aligned to 4 bytes.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.Align(4); err != nil {
		return 0, err
	}
	if r.offset+4 > len(r.data) {
		return 0, malformedf("buffer underflow reading uint32 at offset %d", r.offset)
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64, aligned to 8 bytes.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.Align(8); err != nil {
		return 0, err
	}
	if r.offset+8 > len(r.data) {
		return 0, malformedf("buffer underflow reading uint64 at offset %d", r.offset)
	}
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// ReadBytes reads n bytes without alignment (a fixed array of uint8).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, malformedf("buffer underflow reading %d bytes at offset %d", n, r.offset)
	}
	b := make([]byte, n)
	copy(b, r.data[r.offset:r.offset+n])
	r.offset += n
	return b, nil
}

// ReadPointer reads a 32-bit referent token and reports whether the
// pointer is non-null. The referent data follows later in the deferred
// region; callers read it in pointer declaration order.
func (r *Reader) ReadPointer() (bool, error) {
	token, err := r.ReadUint32()
	if err != nil {
		return false, err
	}
	return token != 0, nil
}

// ReadConformantHeader reads the 32-bit maximum count prefixing a
// conformant array.
func (r *Reader) ReadConformantHeader() (uint32, error) {
	return r.ReadUint32()
}

// ReadConformantVaryingString reads the referent of an RPC unicode string
// pointer: max count, offset, actual count, then actual-count UTF-16LE
// code units with no terminator.
func (r *Reader) ReadConformantVaryingString() (string, error) {
	maxCount, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if _, err = r.ReadUint32(); err != nil { // offset, unused by the PAC
		return "", err
	}
	actual, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if actual > maxCount {
		return "", malformedf("string actual count %d exceeds max count %d", actual, maxCount)
	}
	b, err := r.ReadBytes(int(actual) * 2)
	if err != nil {
		return "", err
	}
	return DecodeUTF16LE(b), nil
}

// ReadUTF16String reads n bytes of UTF-16LE data as a string.
func (r *Reader) ReadUTF16String(n int) (string, error) {
	if n%2 != 0 {
		return "", malformedf("UTF-16 string length %d is odd", n)
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return DecodeUTF16LE(b), nil
}

// DecodeUTF16LE decodes UTF-16LE bytes to a Go string, dropping a single
// trailing null terminator if present.
func DecodeUTF16LE(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	if len(u) > 0 && u[len(u)-1] == 0 {
		u = u[:len(u)-1]
	}
	return string(utf16.Decode(u))
}

// EncodeUTF16LE encodes a Go string as UTF-16LE bytes, no terminator.
func EncodeUTF16LE(s string) []byte {
	u := utf16.Encode([]rune(s))
	b := make([]byte, len(u)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[i*2:], c)
	}
	return b
}
