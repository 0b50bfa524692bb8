package pac

import (
	"fmt"

	"github.com/jcmturner/gokrb5/v8/iana/chksumtype"

	"github.com/pacforge/pacforge/pkg/ndr"
)

// Checksum types accepted for PAC signatures, as unsigned wire values.
const (
	ChecksumRSAMD5          = uint32(chksumtype.RSA_MD5)
	ChecksumHMACSHA1AES128  = uint32(chksumtype.HMAC_SHA1_96_AES128)
	ChecksumHMACSHA1AES256  = uint32(chksumtype.HMAC_SHA1_96_AES256)
	ChecksumHMACMD5Unsigned = chksumtype.KERB_CHECKSUM_HMAC_MD5_UNSIGNED
)

// checksumSignatureLength is the authoritative signature-type to
// signature-byte-length table. Keys are the 32-bit two's-complement form
// of the (conceptually signed) checksum type identifiers: the legacy
// HMAC-MD5 type -138 is stored as 0xFFFFFF76 on the wire, so the
// unsigned constant is the table key. A type outside this table is an
// error in both directions, never a default.
var checksumSignatureLength = map[uint32]int{
	uint32(chksumtype.RSA_MD5):                 16,
	uint32(chksumtype.HMAC_SHA1_96_AES128):     12,
	uint32(chksumtype.HMAC_SHA1_96_AES256):     12,
	chksumtype.KERB_CHECKSUM_HMAC_MD5_UNSIGNED: 16,
}

// SignatureData represents PAC_SIGNATURE_DATA (MS-PAC 2.8): the payload
// of both the server checksum (type 6) and privilege server checksum
// (type 7) buffers.
type SignatureData struct {
	// SignatureType is the checksum algorithm identifier in its 32-bit
	// two's-complement form.
	SignatureType uint32

	// Signature length is fixed by SignatureType via the table above.
	Signature []byte

	// RODCIdentifier trails the signature for tickets signed by a
	// read-only domain controller; zero means absent.
	RODCIdentifier uint16
}

// NewSignatureData creates a SignatureData for the given (signed)
// checksum type with an all-zero placeholder signature of the
// table-mandated length. Negative types such as -138 are stored in
// their two's-complement form. The placeholder keeps the element's
// encoded size stable through layout so signing can patch the bytes
// in place.
func NewSignatureData(signatureType int32) (*SignatureData, error) {
	t := uint32(signatureType)
	n, ok := checksumSignatureLength[t]
	if !ok {
		return nil, unsupportedSignatureType(t)
	}
	return &SignatureData{
		SignatureType: t,
		Signature:     make([]byte, n),
	}, nil
}

func unsupportedSignatureType(t uint32) error {
	return fmt.Errorf("%w: signature type 0x%08x", ErrUnsupportedAlgorithm, t)
}

// Marshal encodes the signature data. The signature must have exactly
// the table-mandated length for its type; the RODC identifier is
// emitted only when nonzero, matching what Windows produces.
func (s *SignatureData) Marshal() ([]byte, error) {
	n, ok := checksumSignatureLength[s.SignatureType]
	if !ok {
		return nil, unsupportedSignatureType(s.SignatureType)
	}
	if len(s.Signature) != n {
		return nil, malformed("signature type 0x%08x requires %d signature bytes, have %d",
			s.SignatureType, n, len(s.Signature))
	}
	w := ndr.NewWriter()
	w.WriteUint32(s.SignatureType)
	w.WriteBytes(s.Signature)
	if s.RODCIdentifier != 0 {
		w.WriteUint16(s.RODCIdentifier)
	}
	return w.Bytes(), nil
}

// Unmarshal decodes the signature data. The signature length is taken
// from the type table, never from the buffer size; trailing bytes
// beyond an optional RODC identifier must be zero padding.
func (s *SignatureData) Unmarshal(b []byte) error {
	r := ndr.NewReader(b)
	t, err := r.ReadUint32()
	if err != nil {
		return malformed("signature data: %v", err)
	}
	n, ok := checksumSignatureLength[t]
	if !ok {
		return unsupportedSignatureType(t)
	}
	sig, err := r.ReadBytes(n)
	if err != nil {
		return malformed("signature data: %v", err)
	}
	s.SignatureType = t
	s.Signature = sig
	s.RODCIdentifier = 0
	if r.Remaining() >= 2 {
		id, err := r.ReadUint16()
		if err != nil {
			return malformed("signature data: %v", err)
		}
		s.RODCIdentifier = id
	}
	for r.Remaining() > 0 {
		v, _ := r.ReadUint8()
		if v != 0 {
			return malformed("non-zero padding after signature data")
		}
	}
	return nil
}
