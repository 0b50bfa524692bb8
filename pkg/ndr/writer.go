package ndr

import (
	"encoding/binary"
)

// firstReferentID is the referent token assigned to the first non-null
// pointer; subsequent pointers increment by 4, matching what Windows emits.
const firstReferentID uint32 = 0x00020000

// Writer provides sequential writing of NDR-encoded data. Non-null
// pointers queue their referent writers; WriteDeferred drains the queue
// after the enclosing structure's inline fields, in declaration order.
type Writer struct {
	data    []byte
	nextRef uint32
	pending []func(*Writer)
}

// NewWriter creates an NDR writer.
func NewWriter() *Writer {
	return &Writer{
		data:    make([]byte, 0, 256),
		nextRef: firstReferentID,
	}
}

// Bytes returns the written data.
func (w *Writer) Bytes() []byte {
	return w.data
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.data)
}

// Align pads with zero bytes to the next multiple of n.
func (w *Writer) Align(n int) {
	if n <= 1 {
		return
	}
	for len(w.data)%n != 0 {
		w.data = append(w.data, 0)
	}
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.data = append(w.data, v)
}

// WriteUint16 writes a little-endian uint16, aligned to 2 bytes.
func (w *Writer) WriteUint16(v uint16) {
	w.Align(2)
	w.data = binary.LittleEndian.AppendUint16(w.data, v)
}

// WriteUint32 writes a little-endian uint32, aligned to 4 bytes.
func (w *Writer) WriteUint32(v uint32) {
	w.Align(4)
	w.data = binary.LittleEndian.AppendUint32(w.data, v)
}

// WriteUint64 writes a little-endian uint64, aligned to 8 bytes.
func (w *Writer) WriteUint64(v uint64) {
	w.Align(8)
	w.data = binary.LittleEndian.AppendUint64(w.data, v)
}

// WriteBytes writes raw bytes without alignment.
func (w *Writer) WriteBytes(b []byte) {
	w.data = append(w.data, b...)
}

// WritePointer writes the inline 32-bit referent token for a unique
// pointer. When present, a fresh referent id is emitted and the referent
// writer is queued for WriteDeferred; otherwise a null token is written.
func (w *Writer) WritePointer(present bool, referent func(*Writer)) {
	if !present {
		w.WriteUint32(0)
		return
	}
	w.WriteUint32(w.nextRef)
	w.nextRef += 4
	w.pending = append(w.pending, referent)
}

// WriteDeferred drains the deferred-referent queue. Referents that
// themselves contain pointers queue further referents, which are
// drained immediately after the enclosing referent's data, before any
// siblings queued earlier. An embedded array of structures with SID
// pointers therefore emits those SIDs right after the array body, which
// is where the decoder expects them.
func (w *Writer) WriteDeferred() {
	for len(w.pending) > 0 {
		fn := w.pending[0]
		rest := w.pending[1:]
		w.pending = nil
		fn(w)
		w.pending = append(w.pending, rest...)
	}
}

// WriteConformantHeader writes the 32-bit maximum count prefixing a
// conformant array.
func (w *Writer) WriteConformantHeader(maxCount uint32) {
	w.WriteUint32(maxCount)
}

// WriteConformantVaryingString writes the referent of an RPC unicode
// string pointer: max count, offset 0, actual count, then the UTF-16LE
// code units without a terminator.
func (w *Writer) WriteConformantVaryingString(s string) {
	b := EncodeUTF16LE(s)
	n := uint32(len(b) / 2)
	w.WriteUint32(n)
	w.WriteUint32(0)
	w.WriteUint32(n)
	w.WriteBytes(b)
}

// WriteUTF16String writes s as raw UTF-16LE bytes, no length prefix.
func (w *Writer) WriteUTF16String(s string) {
	w.WriteBytes(EncodeUTF16LE(s))
}
