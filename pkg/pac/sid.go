package pac

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pacforge/pacforge/pkg/ndr"
)

// SID represents a Windows Security Identifier.
//
// SIDs identify security principals. String form:
//
//	S-R-I-S-S-S...
//	- R: Revision (always 1)
//	- I: Identifier authority (usually 5 for NT)
//	- S: Sub-authorities (variable number)
//
// Well-known examples:
//
//	S-1-5-21-<domain>-500    : Administrator
//	S-1-5-21-<domain>-512    : Domain Admins
//	S-1-5-21-<domain>-519    : Enterprise Admins
type SID struct {
	Revision            uint8
	IdentifierAuthority [6]byte
	SubAuthorities      []uint32
}

// ParseSID parses a SID string such as "S-1-5-21-...-512".
func ParseSID(s string) (*SID, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || !strings.EqualFold(parts[0], "S") {
		return nil, fmt.Errorf("invalid SID format: %q", s)
	}

	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision %q: %w", parts[1], err)
	}
	auth, err := strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority %q: %w", parts[2], err)
	}

	sid := &SID{Revision: uint8(rev)}
	for i := 5; i >= 0; i-- {
		sid.IdentifierAuthority[i] = byte(auth)
		auth >>= 8
	}
	for _, p := range parts[3:] {
		sub, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority %q: %w", p, err)
		}
		sid.SubAuthorities = append(sid.SubAuthorities, uint32(sub))
	}
	return sid, nil
}

// String returns the SID in "S-1-5-21-..." form.
func (s *SID) String() string {
	if s == nil || s.Revision == 0 {
		return ""
	}
	auth := uint64(0)
	for i := 0; i < 6; i++ {
		auth = auth<<8 | uint64(s.IdentifierAuthority[i])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "S-%d-%d", s.Revision, auth)
	for _, sub := range s.SubAuthorities {
		fmt.Fprintf(&sb, "-%d", sub)
	}
	return sb.String()
}

// WithRID returns a copy of the SID with rid appended as a final
// sub-authority, e.g. domain SID + 512 = Domain Admins.
func (s *SID) WithRID(rid uint32) *SID {
	out := &SID{
		Revision:            s.Revision,
		IdentifierAuthority: s.IdentifierAuthority,
		SubAuthorities:      make([]uint32, 0, len(s.SubAuthorities)+1),
	}
	out.SubAuthorities = append(out.SubAuthorities, s.SubAuthorities...)
	out.SubAuthorities = append(out.SubAuthorities, rid)
	return out
}

// writeRPCSID writes the RPC_SID referent: a conformant structure whose
// max count is the sub-authority count, then revision, count, authority
// and sub-authorities.
func (s *SID) writeRPCSID(w *ndr.Writer) {
	w.WriteConformantHeader(uint32(len(s.SubAuthorities)))
	w.WriteUint8(s.Revision)
	w.WriteUint8(uint8(len(s.SubAuthorities)))
	w.WriteBytes(s.IdentifierAuthority[:])
	for _, sub := range s.SubAuthorities {
		w.WriteUint32(sub)
	}
}

// readRPCSID reads an RPC_SID referent.
func readRPCSID(r *ndr.Reader) (*SID, error) {
	maxCount, err := r.ReadConformantHeader()
	if err != nil {
		return nil, err
	}
	rev, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if uint32(count) != maxCount {
		return nil, malformed("SID sub-authority count %d disagrees with conformant max count %d", count, maxCount)
	}
	authority, err := r.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	sid := &SID{Revision: rev}
	copy(sid.IdentifierAuthority[:], authority)
	for i := 0; i < int(count); i++ {
		sub, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		sid.SubAuthorities = append(sid.SubAuthorities, sub)
	}
	return sid, nil
}
