package ndr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAlignment(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(0x11)
	w.WriteUint32(0x44332211)
	w.WriteUint8(0x55)
	w.WriteUint16(0x7766)

	assert.Equal(t, []byte{
		0x11, 0x00, 0x00, 0x00,
		0x11, 0x22, 0x33, 0x44,
		0x55, 0x00,
		0x66, 0x77,
	}, w.Bytes())
}

func TestReaderAlignment(t *testing.T) {
	r := NewReader([]byte{
		0x11, 0x00, 0x00, 0x00,
		0x11, 0x22, 0x33, 0x44,
	})

	b, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x11), b)

	v, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x44332211), v)
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderUnderflow(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.ReadUint32()
	require.Error(t, err)

	var m Malformed
	assert.True(t, errors.As(err, &m))
}

func TestPointerReferentOrder(t *testing.T) {
	// Structure with two pointers; the first referent itself contains a
	// nested pointer. The nested referent must follow its enclosing
	// referent's data immediately, before the sibling referent that was
	// queued earlier — this is how extra-SID arrays lay out their SIDs
	// ahead of the resource-group referents that follow in the struct.
	w := NewWriter()
	w.WritePointer(true, func(w *Writer) {
		w.WriteUint32(0xAAAAAAAA)
		w.WritePointer(true, func(w *Writer) {
			w.WriteUint32(0xBBBBBBBB)
		})
	})
	w.WritePointer(true, func(w *Writer) {
		w.WriteUint32(0xCCCCCCCC)
	})
	w.WriteDeferred()

	r := NewReader(w.Bytes())
	p1, err := r.ReadPointer()
	require.NoError(t, err)
	assert.True(t, p1)
	p2, err := r.ReadPointer()
	require.NoError(t, err)
	assert.True(t, p2)

	// Deferred region: first referent's inline data, its nested
	// referent, then the second top-level referent.
	v, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAAAAAAAA), v)
	nested, err := r.ReadPointer()
	require.NoError(t, err)
	assert.True(t, nested)
	v, err = r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xBBBBBBBB), v)
	v, err = r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCCCCCCCC), v)
	assert.Equal(t, 0, r.Remaining())
}

func TestNullPointer(t *testing.T) {
	w := NewWriter()
	w.WritePointer(false, nil)
	w.WriteDeferred()

	require.Equal(t, []byte{0, 0, 0, 0}, w.Bytes())

	r := NewReader(w.Bytes())
	present, err := r.ReadPointer()
	require.NoError(t, err)
	assert.False(t, present)
}

func TestReferentIDsIncrement(t *testing.T) {
	w := NewWriter()
	w.WritePointer(true, func(w *Writer) {})
	w.WritePointer(true, func(w *Writer) {})
	w.WriteDeferred()

	r := NewReader(w.Bytes())
	id1, err := r.ReadUint32()
	require.NoError(t, err)
	id2, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00020000), id1)
	assert.Equal(t, uint32(0x00020004), id2)
}

func TestConformantVaryingStringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"ascii", "Administrator"},
		{"empty", ""},
		{"non-ascii", "dømäin-üser"},
		{"surrogate pair", "user-\U0001F512"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.WriteConformantVaryingString(tt.in)

			r := NewReader(w.Bytes())
			out, err := r.ReadConformantVaryingString()
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestConformantVaryingStringCountMismatch(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(1) // max count
	w.WriteUint32(0) // offset
	w.WriteUint32(2) // actual count exceeds max
	w.WriteBytes([]byte{0x41, 0x00, 0x42, 0x00})

	r := NewReader(w.Bytes())
	_, err := r.ReadConformantVaryingString()
	require.Error(t, err)
}

func TestTypeSerialization1RoundTrip(t *testing.T) {
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00, 0x00, 0x00}
	out := MarshalTypeSerialization1(body)
	require.Len(t, out, HeaderSize+len(body))

	// Common header: version 1, little-endian indicator, length 8.
	assert.Equal(t, byte(0x01), out[0])
	assert.Equal(t, byte(0x10), out[1])

	r := NewReader(out)
	require.NoError(t, r.ReadTypeSerialization1Header())
	assert.Equal(t, HeaderSize, r.Offset())

	got, err := r.ReadBytes(len(body))
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestTypeSerialization1Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{"bad version", func(b []byte) { b[0] = 0x02 }},
		{"big-endian", func(b []byte) { b[1] = 0x00 }},
		{"bad header length", func(b []byte) { b[2] = 0x04 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := MarshalTypeSerialization1([]byte{1, 2, 3, 4})
			tt.mutate(out)
			r := NewReader(out)
			require.Error(t, r.ReadTypeSerialization1Header())
		})
	}
}

func TestUTF16Helpers(t *testing.T) {
	b := EncodeUTF16LE("AB")
	assert.Equal(t, []byte{0x41, 0x00, 0x42, 0x00}, b)

	// A single trailing null terminator is stripped on decode.
	assert.Equal(t, "AB", DecodeUTF16LE([]byte{0x41, 0x00, 0x42, 0x00, 0x00, 0x00}))
	assert.Equal(t, "AB", DecodeUTF16LE(b))
}
