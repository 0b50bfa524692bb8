package pac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTimeRoundTrip(t *testing.T) {
	ref := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	ft := NewFileTime(ref)
	assert.Equal(t, ref, ft.Time())
}

func TestFileTimeNeverExpires(t *testing.T) {
	ft := NeverExpires()
	assert.Equal(t, uint64(0x7FFFFFFFFFFFFFFF), ft.Uint64())
	assert.True(t, ft.IsZero())
	assert.True(t, ft.Time().IsZero())
}

func TestFileTimeZero(t *testing.T) {
	var ft FileTime
	assert.True(t, ft.IsZero())
	assert.True(t, ft.Time().IsZero())
}

func TestFileTimeHalves(t *testing.T) {
	ft := FileTime{LowDateTime: 0x22334455, HighDateTime: 0x01D9A2B3}
	assert.Equal(t, uint64(0x01D9A2B322334455), ft.Uint64())
}

func TestClientInfoRoundTrip(t *testing.T) {
	ci := &ClientInfo{
		ClientID: NewFileTime(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)),
		Name:     "Administrator",
	}
	raw, err := ci.Marshal()
	require.NoError(t, err)
	// FILETIME + name length + UTF-16LE name bytes.
	assert.Len(t, raw, 8+2+len(ci.Name)*2)

	var dec ClientInfo
	require.NoError(t, dec.Unmarshal(raw))
	assert.Equal(t, *ci, dec)
}

func TestClientInfoPadding(t *testing.T) {
	ci := &ClientInfo{Name: "user"}
	raw, err := ci.Marshal()
	require.NoError(t, err)

	// Zero padding after the name is fine, anything else is not.
	padded := append(raw, 0, 0)
	var dec ClientInfo
	require.NoError(t, dec.Unmarshal(padded))
	assert.Equal(t, "user", dec.Name)

	padded[len(padded)-1] = 0x41
	require.ErrorIs(t, dec.Unmarshal(padded), ErrMalformed)
}

func TestClientInfoTruncatedName(t *testing.T) {
	ci := &ClientInfo{Name: "Administrator"}
	raw, err := ci.Marshal()
	require.NoError(t, err)

	var dec ClientInfo
	require.ErrorIs(t, dec.Unmarshal(raw[:len(raw)-4]), ErrMalformed)
}
