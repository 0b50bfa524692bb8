package pac

import (
	"time"

	"github.com/pacforge/pacforge/pkg/ndr"
)

// Windows FILETIME epoch offset: 100-nanosecond intervals between
// 1601-01-01 and the Unix epoch.
const filetimeEpochDiff = 116444736000000000

// neverExpires is the FILETIME value Windows uses for "no expiry".
var neverExpires = FileTime{LowDateTime: 0xFFFFFFFF, HighDateTime: 0x7FFFFFFF}

// FileTime is a Windows FILETIME: 100-nanosecond intervals since
// 1601-01-01 UTC, stored as two 32-bit halves. NDR aligns it to 4
// bytes, not 8, which is why it is not a plain uint64.
type FileTime struct {
	LowDateTime  uint32
	HighDateTime uint32
}

// NewFileTime converts a time.Time to a FILETIME.
func NewFileTime(t time.Time) FileTime {
	ft := uint64(t.UnixNano()/100) + filetimeEpochDiff
	return FileTime{
		LowDateTime:  uint32(ft),
		HighDateTime: uint32(ft >> 32),
	}
}

// NeverExpires returns the sentinel FILETIME for "no expiry".
func NeverExpires() FileTime {
	return neverExpires
}

// Uint64 returns the FILETIME as a single 64-bit value.
func (f FileTime) Uint64() uint64 {
	return uint64(f.HighDateTime)<<32 | uint64(f.LowDateTime)
}

// IsZero reports whether the FILETIME is unset or the no-expiry sentinel.
func (f FileTime) IsZero() bool {
	return f.Uint64() == 0 || f == neverExpires
}

// Time converts the FILETIME to a time.Time; zero and no-expiry values
// map to the zero time.
func (f FileTime) Time() time.Time {
	if f.IsZero() {
		return time.Time{}
	}
	return time.Unix(0, (int64(f.Uint64())-filetimeEpochDiff)*100).UTC()
}

func (f FileTime) write(w *ndr.Writer) {
	w.WriteUint32(f.LowDateTime)
	w.WriteUint32(f.HighDateTime)
}

func readFileTime(r *ndr.Reader) (FileTime, error) {
	low, err := r.ReadUint32()
	if err != nil {
		return FileTime{}, err
	}
	high, err := r.ReadUint32()
	if err != nil {
		return FileTime{}, err
	}
	return FileTime{LowDateTime: low, HighDateTime: high}, nil
}
