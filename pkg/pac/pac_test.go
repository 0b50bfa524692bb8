package pac

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPac(t *testing.T) *Pac {
	t.Helper()
	serverSig, err := NewSignatureData(int32(ChecksumHMACSHA1AES256))
	require.NoError(t, err)
	kdcSig, err := NewSignatureData(int32(ChecksumHMACSHA1AES256))
	require.NoError(t, err)

	var p Pac
	p.AddBuffer(LogonInfoType, testValidationInfo(t))
	p.AddBuffer(ClientInfoType, &ClientInfo{
		ClientID: NewFileTime(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)),
		Name:     "jsmith",
	})
	p.AddBuffer(ServerChecksumType, serverSig)
	p.AddBuffer(KDCChecksumType, kdcSig)
	return &p
}

func TestPacRoundTrip(t *testing.T) {
	p := testPac(t)
	raw, err := p.Marshal()
	require.NoError(t, err)

	var dec Pac
	require.NoError(t, dec.Unmarshal(raw))
	require.Len(t, dec.Buffers, 4)

	v, ok := dec.Buffer(LogonInfoType).Element.(*ValidationInfo)
	require.True(t, ok)
	assert.Equal(t, "jsmith", v.EffectiveName)
	assert.Equal(t, uint32(1105), v.UserID)

	ci, ok := dec.Buffer(ClientInfoType).Element.(*ClientInfo)
	require.True(t, ok)
	assert.Equal(t, "jsmith", ci.Name)

	// Decoding preserves offsets, so a second marshal is byte-identical.
	again, err := dec.Marshal()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestPacLayoutInvariants(t *testing.T) {
	p := testPac(t)
	raw, err := p.Marshal()
	require.NoError(t, err)

	assert.Zero(t, len(raw)%8, "total size must be a multiple of 8")

	count := binary.LittleEndian.Uint32(raw[0:4])
	require.Equal(t, uint32(4), count)
	assert.Zero(t, binary.LittleEndian.Uint32(raw[4:8]), "version")

	headerEnd := uint64(8 + 16*count)
	type region struct{ start, end uint64 }
	var regions []region
	for i := uint32(0); i < count; i++ {
		d := raw[8+16*i:]
		size := binary.LittleEndian.Uint32(d[4:8])
		offset := binary.LittleEndian.Uint64(d[8:16])
		assert.Zero(t, offset%8, "buffer %d offset 8-byte aligned", i)
		assert.GreaterOrEqual(t, offset, headerEnd)
		assert.LessOrEqual(t, offset+uint64(size), uint64(len(raw)))
		regions = append(regions, region{offset, offset + uint64(size)})
	}
	for i := range regions {
		for j := range regions {
			if i == j {
				continue
			}
			disjoint := regions[i].end <= regions[j].start || regions[j].end <= regions[i].start
			assert.True(t, disjoint, "regions %d and %d overlap", i, j)
		}
	}
}

func TestPacUnknownBufferFidelity(t *testing.T) {
	p := testPac(t)
	// UPN_DNS_INFO is not interpreted; its bytes must survive verbatim.
	opaque := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}
	p.AddBuffer(UPNDNSInfoType, &UnknownElement{Raw: opaque})

	raw, err := p.Marshal()
	require.NoError(t, err)

	var dec Pac
	require.NoError(t, dec.Unmarshal(raw))

	u, ok := dec.Buffer(UPNDNSInfoType).Element.(*UnknownElement)
	require.True(t, ok)
	assert.Equal(t, opaque, u.Raw)
}

func TestPacVersionRejected(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[4:8], 1)

	var p Pac
	require.ErrorIs(t, p.Unmarshal(raw), ErrMalformed)

	p = Pac{Version: 1}
	_, err := p.Marshal()
	require.ErrorIs(t, err, ErrMalformed)
}

func TestPacBufferOutOfBounds(t *testing.T) {
	raw := make([]byte, 8+16)
	binary.LittleEndian.PutUint32(raw[0:4], 1)
	binary.LittleEndian.PutUint32(raw[8:12], UPNDNSInfoType)
	binary.LittleEndian.PutUint32(raw[12:16], 100) // size past end
	binary.LittleEndian.PutUint64(raw[16:24], 24)

	var p Pac
	err := p.Unmarshal(raw)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "buffer 0")
}

func TestPacUnmarshalAtomic(t *testing.T) {
	p := testPac(t)
	good, err := p.Marshal()
	require.NoError(t, err)

	var dec Pac
	require.NoError(t, dec.Unmarshal(good))
	before := len(dec.Buffers)

	// A corrupt image must leave the previous decode untouched.
	bad := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(bad[0:4], 200)
	require.Error(t, dec.Unmarshal(bad))
	assert.Len(t, dec.Buffers, before)
	assert.Zero(t, dec.Version)
}

func TestPacTruncatedHeader(t *testing.T) {
	var p Pac
	require.ErrorIs(t, p.Unmarshal([]byte{1, 2, 3}), ErrMalformed)
}
