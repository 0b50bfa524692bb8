package pac

import (
	"testing"

	"github.com/pacforge/pacforge/pkg/ndr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSID(t *testing.T) {
	sid, err := ParseSID("S-1-5-21-1004336348-1177238915-682003330")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), sid.Revision)
	assert.Equal(t, [6]byte{0, 0, 0, 0, 0, 5}, sid.IdentifierAuthority)
	assert.Equal(t, []uint32{21, 1004336348, 1177238915, 682003330}, sid.SubAuthorities)
	assert.Equal(t, "S-1-5-21-1004336348-1177238915-682003330", sid.String())
}

func TestParseSIDInvalid(t *testing.T) {
	for _, s := range []string{"", "S-1", "X-1-5-21", "S-1-5-banana"} {
		_, err := ParseSID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestSIDWithRID(t *testing.T) {
	domain, err := ParseSID("S-1-5-21-1-2-3")
	require.NoError(t, err)

	admin := domain.WithRID(500)
	assert.Equal(t, "S-1-5-21-1-2-3-500", admin.String())
	// The original is not modified.
	assert.Equal(t, "S-1-5-21-1-2-3", domain.String())
}

func TestRPCSIDRoundTrip(t *testing.T) {
	sid, err := ParseSID("S-1-5-21-1004336348-1177238915-682003330-513")
	require.NoError(t, err)

	w := ndr.NewWriter()
	sid.writeRPCSID(w)

	r := ndr.NewReader(w.Bytes())
	dec, err := readRPCSID(r)
	require.NoError(t, err)
	assert.Equal(t, sid, dec)
	assert.Equal(t, 0, r.Remaining())
}

func TestRPCSIDCountMismatch(t *testing.T) {
	sid, _ := ParseSID("S-1-5-21-1-2-3")
	w := ndr.NewWriter()
	sid.writeRPCSID(w)

	// Corrupt the conformant max count.
	raw := w.Bytes()
	raw[0] = 9

	_, err := readRPCSID(ndr.NewReader(raw))
	require.ErrorIs(t, err, ErrMalformed)
}
