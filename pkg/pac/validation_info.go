package pac

import (
	"github.com/pacforge/pacforge/pkg/ndr"
)

// GroupMembership is one relative group id plus its SE_GROUP_ attributes.
type GroupMembership struct {
	RelativeID uint32
	Attributes uint32
}

// SidAndAttributes is one extra SID plus its attributes.
type SidAndAttributes struct {
	SID        *SID
	Attributes uint32
}

// UserFlags bits relevant when building a PAC.
const (
	// UserFlagExtraSIDs must be set when the ExtraSIDs list is populated.
	UserFlagExtraSIDs = 0x20
	// UserFlagResourceGroups must be set when resource groups are present.
	UserFlagResourceGroups = 0x200
)

// Common group attribute set: SE_GROUP_MANDATORY |
// SE_GROUP_ENABLED_BY_DEFAULT | SE_GROUP_ENABLED.
const GroupAttributesDefault = 7

// ValidationInfo represents KERB_VALIDATION_INFO (MS-PAC 2.5): the
// logon and authorization payload of the LogonInformation buffer.
//
// This structure is what Windows authorizes against — the user's RID,
// primary group, group memberships and extra SIDs. It is NDR-encoded
// inside a TypeSerialization1 wrapper with a top-level unique pointer.
//
// Count fields (group count, SID count, string lengths) are derived
// from the slices and strings at encode time, never taken from the
// caller; on decode they are read from the wire and are authoritative
// for how many elements follow.
type ValidationInfo struct {
	LogonTime          FileTime
	LogoffTime         FileTime
	KickOffTime        FileTime
	PasswordLastSet    FileTime
	PasswordCanChange  FileTime
	PasswordMustChange FileTime

	EffectiveName      string
	FullName           string
	LogonScript        string
	ProfilePath        string
	HomeDirectory      string
	HomeDirectoryDrive string

	LogonCount       uint16
	BadPasswordCount uint16

	UserID         uint32
	PrimaryGroupID uint32
	GroupIDs       []GroupMembership

	UserFlags uint32

	// UserSessionKey is two independent 8-byte cipher blocks; all zero
	// in tickets issued by a real KDC.
	UserSessionKey [16]byte

	LogonServer     string
	LogonDomainName string
	LogonDomainID   *SID

	Reserved1          [2]uint32
	UserAccountControl uint32
	SubAuthStatus      uint32

	LastSuccessfulILogon FileTime
	LastFailedILogon     FileTime
	FailedILogonCount    uint32
	Reserved3            uint32

	ExtraSIDs []SidAndAttributes

	ResourceGroupDomainSID *SID
	ResourceGroupIDs       []GroupMembership
}

// Marshal encodes the validation info as a TypeSerialization1-wrapped
// NDR object.
func (v *ValidationInfo) Marshal() ([]byte, error) {
	w := ndr.NewWriter()
	w.WritePointer(true, v.writeBody)
	w.WriteDeferred()
	return ndr.MarshalTypeSerialization1(w.Bytes()), nil
}

// writeBody writes the structure's inline fields. Pointer referents are
// queued on the writer and land after the body in declaration order.
func (v *ValidationInfo) writeBody(w *ndr.Writer) {
	v.LogonTime.write(w)
	v.LogoffTime.write(w)
	v.KickOffTime.write(w)
	v.PasswordLastSet.write(w)
	v.PasswordCanChange.write(w)
	v.PasswordMustChange.write(w)

	writeRPCUnicodeString(w, v.EffectiveName)
	writeRPCUnicodeString(w, v.FullName)
	writeRPCUnicodeString(w, v.LogonScript)
	writeRPCUnicodeString(w, v.ProfilePath)
	writeRPCUnicodeString(w, v.HomeDirectory)
	writeRPCUnicodeString(w, v.HomeDirectoryDrive)

	w.WriteUint16(v.LogonCount)
	w.WriteUint16(v.BadPasswordCount)
	w.WriteUint32(v.UserID)
	w.WriteUint32(v.PrimaryGroupID)

	w.WriteUint32(uint32(len(v.GroupIDs)))
	w.WritePointer(len(v.GroupIDs) > 0, func(w *ndr.Writer) {
		writeGroupMemberships(w, v.GroupIDs)
	})

	w.WriteUint32(v.UserFlags)
	w.WriteBytes(v.UserSessionKey[:])

	writeRPCUnicodeString(w, v.LogonServer)
	writeRPCUnicodeString(w, v.LogonDomainName)

	w.WritePointer(v.LogonDomainID != nil, func(w *ndr.Writer) {
		v.LogonDomainID.writeRPCSID(w)
	})

	w.WriteUint32(v.Reserved1[0])
	w.WriteUint32(v.Reserved1[1])
	w.WriteUint32(v.UserAccountControl)
	w.WriteUint32(v.SubAuthStatus)

	v.LastSuccessfulILogon.write(w)
	v.LastFailedILogon.write(w)
	w.WriteUint32(v.FailedILogonCount)
	w.WriteUint32(v.Reserved3)

	w.WriteUint32(uint32(len(v.ExtraSIDs)))
	w.WritePointer(len(v.ExtraSIDs) > 0, func(w *ndr.Writer) {
		w.WriteConformantHeader(uint32(len(v.ExtraSIDs)))
		for i := range v.ExtraSIDs {
			e := v.ExtraSIDs[i]
			w.WritePointer(e.SID != nil, e.SID.writeRPCSID)
			w.WriteUint32(e.Attributes)
		}
	})

	w.WritePointer(v.ResourceGroupDomainSID != nil, func(w *ndr.Writer) {
		v.ResourceGroupDomainSID.writeRPCSID(w)
	})

	w.WriteUint32(uint32(len(v.ResourceGroupIDs)))
	w.WritePointer(len(v.ResourceGroupIDs) > 0, func(w *ndr.Writer) {
		writeGroupMemberships(w, v.ResourceGroupIDs)
	})
}

func writeGroupMemberships(w *ndr.Writer, groups []GroupMembership) {
	w.WriteConformantHeader(uint32(len(groups)))
	for _, g := range groups {
		w.WriteUint32(g.RelativeID)
		w.WriteUint32(g.Attributes)
	}
}

// writeRPCUnicodeString writes the inline RPC_UNICODE_STRING triple:
// byte length, maximum byte length, and the string pointer. The lengths
// are derived from the value; the referent is deferred. Empty strings
// get a null pointer.
func writeRPCUnicodeString(w *ndr.Writer, s string) {
	n := uint16(len(ndr.EncodeUTF16LE(s)))
	w.WriteUint16(n)
	w.WriteUint16(n)
	w.WritePointer(n > 0, func(w *ndr.Writer) {
		w.WriteConformantVaryingString(s)
	})
}

// rpcStringHdr is the inline part of an RPC_UNICODE_STRING read during
// decoding: the declared lengths and whether the referent is present.
type rpcStringHdr struct {
	length    uint16
	maxLength uint16
	present   bool
}

func readRPCUnicodeStringHdr(r *ndr.Reader) (rpcStringHdr, error) {
	var h rpcStringHdr
	var err error
	if h.length, err = r.ReadUint16(); err != nil {
		return h, err
	}
	if h.maxLength, err = r.ReadUint16(); err != nil {
		return h, err
	}
	if h.present, err = r.ReadPointer(); err != nil {
		return h, err
	}
	return h, nil
}

// readReferent reads the string referent from the deferred region if the
// pointer was non-null.
func (h rpcStringHdr) readReferent(r *ndr.Reader) (string, error) {
	if !h.present {
		return "", nil
	}
	return r.ReadConformantVaryingString()
}

// Unmarshal decodes the validation info from a LogonInformation buffer.
func (v *ValidationInfo) Unmarshal(b []byte) error {
	r := ndr.NewReader(b)
	if err := r.ReadTypeSerialization1Header(); err != nil {
		return malformed("validation info: %v", err)
	}
	present, err := r.ReadPointer()
	if err != nil {
		return malformed("validation info: %v", err)
	}
	if !present {
		return malformed("validation info pointer is null")
	}
	if err := v.readBody(r); err != nil {
		return malformed("validation info: %v", err)
	}
	return nil
}

// readBody reads the inline fields, then the deferred referents in
// pointer declaration order.
func (v *ValidationInfo) readBody(r *ndr.Reader) error {
	var err error
	times := []*FileTime{
		&v.LogonTime, &v.LogoffTime, &v.KickOffTime,
		&v.PasswordLastSet, &v.PasswordCanChange, &v.PasswordMustChange,
	}
	for _, t := range times {
		if *t, err = readFileTime(r); err != nil {
			return err
		}
	}

	var nameHdrs [6]rpcStringHdr
	for i := range nameHdrs {
		if nameHdrs[i], err = readRPCUnicodeStringHdr(r); err != nil {
			return err
		}
	}

	if v.LogonCount, err = r.ReadUint16(); err != nil {
		return err
	}
	if v.BadPasswordCount, err = r.ReadUint16(); err != nil {
		return err
	}
	if v.UserID, err = r.ReadUint32(); err != nil {
		return err
	}
	if v.PrimaryGroupID, err = r.ReadUint32(); err != nil {
		return err
	}

	groupCount, err := r.ReadUint32()
	if err != nil {
		return err
	}
	groupsPresent, err := r.ReadPointer()
	if err != nil {
		return err
	}
	if groupCount > 0 && !groupsPresent {
		return ndr.Malformed{EText: "group count nonzero but group pointer is null"}
	}

	if v.UserFlags, err = r.ReadUint32(); err != nil {
		return err
	}
	key, err := r.ReadBytes(16)
	if err != nil {
		return err
	}
	copy(v.UserSessionKey[:], key)

	serverHdr, err := readRPCUnicodeStringHdr(r)
	if err != nil {
		return err
	}
	domainHdr, err := readRPCUnicodeStringHdr(r)
	if err != nil {
		return err
	}

	domainSIDPresent, err := r.ReadPointer()
	if err != nil {
		return err
	}

	if v.Reserved1[0], err = r.ReadUint32(); err != nil {
		return err
	}
	if v.Reserved1[1], err = r.ReadUint32(); err != nil {
		return err
	}
	if v.UserAccountControl, err = r.ReadUint32(); err != nil {
		return err
	}
	if v.SubAuthStatus, err = r.ReadUint32(); err != nil {
		return err
	}
	if v.LastSuccessfulILogon, err = readFileTime(r); err != nil {
		return err
	}
	if v.LastFailedILogon, err = readFileTime(r); err != nil {
		return err
	}
	if v.FailedILogonCount, err = r.ReadUint32(); err != nil {
		return err
	}
	if v.Reserved3, err = r.ReadUint32(); err != nil {
		return err
	}

	sidCount, err := r.ReadUint32()
	if err != nil {
		return err
	}
	extraSIDsPresent, err := r.ReadPointer()
	if err != nil {
		return err
	}
	if sidCount > 0 && !extraSIDsPresent {
		return ndr.Malformed{EText: "extra SID count nonzero but pointer is null"}
	}

	rgDomainSIDPresent, err := r.ReadPointer()
	if err != nil {
		return err
	}
	rgCount, err := r.ReadUint32()
	if err != nil {
		return err
	}
	rgPresent, err := r.ReadPointer()
	if err != nil {
		return err
	}
	if rgCount > 0 && !rgPresent {
		return ndr.Malformed{EText: "resource group count nonzero but pointer is null"}
	}

	// Deferred region, in pointer declaration order.
	names := []*string{
		&v.EffectiveName, &v.FullName, &v.LogonScript,
		&v.ProfilePath, &v.HomeDirectory, &v.HomeDirectoryDrive,
	}
	for i, dst := range names {
		if *dst, err = nameHdrs[i].readReferent(r); err != nil {
			return err
		}
	}

	if groupsPresent {
		if v.GroupIDs, err = readGroupMemberships(r, groupCount); err != nil {
			return err
		}
	} else {
		v.GroupIDs = nil
	}

	if v.LogonServer, err = serverHdr.readReferent(r); err != nil {
		return err
	}
	if v.LogonDomainName, err = domainHdr.readReferent(r); err != nil {
		return err
	}

	if domainSIDPresent {
		if v.LogonDomainID, err = readRPCSID(r); err != nil {
			return err
		}
	} else {
		v.LogonDomainID = nil
	}

	if extraSIDsPresent {
		if v.ExtraSIDs, err = readSidAndAttributes(r, sidCount); err != nil {
			return err
		}
	} else {
		v.ExtraSIDs = nil
	}

	if rgDomainSIDPresent {
		if v.ResourceGroupDomainSID, err = readRPCSID(r); err != nil {
			return err
		}
	} else {
		v.ResourceGroupDomainSID = nil
	}

	if rgPresent {
		if v.ResourceGroupIDs, err = readGroupMemberships(r, rgCount); err != nil {
			return err
		}
	} else {
		v.ResourceGroupIDs = nil
	}

	return nil
}

func readGroupMemberships(r *ndr.Reader, count uint32) ([]GroupMembership, error) {
	maxCount, err := r.ReadConformantHeader()
	if err != nil {
		return nil, err
	}
	if maxCount != count {
		return nil, ndr.Malformed{EText: "group array max count disagrees with declared count"}
	}
	groups := make([]GroupMembership, count)
	for i := range groups {
		if groups[i].RelativeID, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if groups[i].Attributes, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// readSidAndAttributes reads the extra-SID array referent: the element
// pairs first, then each element's SID referent in order.
func readSidAndAttributes(r *ndr.Reader, count uint32) ([]SidAndAttributes, error) {
	maxCount, err := r.ReadConformantHeader()
	if err != nil {
		return nil, err
	}
	if maxCount != count {
		return nil, ndr.Malformed{EText: "extra SID array max count disagrees with declared count"}
	}
	sids := make([]SidAndAttributes, count)
	present := make([]bool, count)
	for i := range sids {
		if present[i], err = r.ReadPointer(); err != nil {
			return nil, err
		}
		if sids[i].Attributes, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}
	for i := range sids {
		if !present[i] {
			continue
		}
		if sids[i].SID, err = readRPCSID(r); err != nil {
			return nil, err
		}
	}
	return sids, nil
}
