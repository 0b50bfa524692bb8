package pac

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/crypto"
	"github.com/jcmturner/gokrb5/v8/iana/keyusage"
	"github.com/jcmturner/gokrb5/v8/types"
	"github.com/pacforge/pacforge/pkg/ndr"
)

// NTLM_SUPPLEMENTAL_CREDENTIAL flag bits (MS-PAC 2.6.4).
const (
	NTLMCredLMPresent = 0x00000001
	NTLMCredNTPresent = 0x00000002
)

// LM hash of the empty password; substituted when a credential carries
// no LM OWF.
const EmptyLMHash = "aad3b435b51404eeaad3b435b51404ee"

// Decryptor decrypts a PAC_CREDENTIAL_INFO ciphertext with the ticket
// session key. It receives the encryption type from the buffer header
// so it can select the algorithm.
type Decryptor func(etype uint32, key, ciphertext []byte) ([]byte, error)

// CredentialsInfo represents PAC_CREDENTIAL_INFO (MS-PAC 2.6.1): a
// small plain header followed by the encrypted, NDR-serialized
// PAC_CREDENTIAL_DATA. Unlike the other element bodies this structure
// is not NDR-encoded itself.
type CredentialsInfo struct {
	Version   uint32 // must be zero
	EType     uint32
	Encrypted []byte
}

// Marshal encodes the header and appends the ciphertext verbatim.
func (c *CredentialsInfo) Marshal() ([]byte, error) {
	if c.Version != 0 {
		return nil, malformed("credential info version must be 0, have %d", c.Version)
	}
	out := make([]byte, 8, 8+len(c.Encrypted))
	binary.LittleEndian.PutUint32(out[0:4], c.Version)
	binary.LittleEndian.PutUint32(out[4:8], c.EType)
	return append(out, c.Encrypted...), nil
}

// Unmarshal decodes a Credentials buffer.
func (c *CredentialsInfo) Unmarshal(b []byte) error {
	if len(b) < 8 {
		return malformed("credential info truncated: %d bytes", len(b))
	}
	c.Version = binary.LittleEndian.Uint32(b[0:4])
	if c.Version != 0 {
		return malformed("credential info version must be 0, have %d", c.Version)
	}
	c.EType = binary.LittleEndian.Uint32(b[4:8])
	c.Encrypted = append([]byte(nil), b[8:]...)
	return nil
}

// Decrypt runs the ciphertext through fn and parses the plaintext as
// PAC_CREDENTIAL_DATA.
func (c *CredentialsInfo) Decrypt(key []byte, fn Decryptor) (*CredentialData, error) {
	pt, err := fn(c.EType, key, c.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	var d CredentialData
	if err := d.Unmarshal(pt); err != nil {
		return nil, err
	}
	return &d, nil
}

// Krb5Decrypt is a Decryptor backed by the Kerberos crypto suite. The
// key usage is KERB_NON_KERB_SALT (16) per MS-PAC.
func Krb5Decrypt(etype uint32, key, ciphertext []byte) ([]byte, error) {
	ek := types.EncryptionKey{KeyType: int32(etype), KeyValue: key}
	return crypto.DecryptMessage(ciphertext, ek, keyusage.KERB_NON_KERB_SALT)
}

// CredentialData represents the decrypted PAC_CREDENTIAL_DATA
// (MS-PAC 2.6.2): a counted list of per-package supplemental
// credentials, TypeSerialization1-wrapped.
type CredentialData struct {
	Credentials []SupplementalCred
}

// SupplementalCred is one SECPKG_SUPPLEMENTAL_CRED (MS-PAC 2.6.3):
// the security package name and its opaque credential bytes.
type SupplementalCred struct {
	PackageName string
	Credentials []byte
}

// Marshal NDR-encodes the credential data for encryption.
func (d *CredentialData) Marshal() ([]byte, error) {
	w := ndr.NewWriter()
	w.WritePointer(true, func(w *ndr.Writer) {
		// Conformant structure: the trailing array's max count leads.
		w.WriteConformantHeader(uint32(len(d.Credentials)))
		w.WriteUint32(uint32(len(d.Credentials)))
		for i := range d.Credentials {
			c := d.Credentials[i]
			writeRPCUnicodeString(w, c.PackageName)
			w.WriteUint32(uint32(len(c.Credentials)))
			w.WritePointer(len(c.Credentials) > 0, func(w *ndr.Writer) {
				w.WriteConformantHeader(uint32(len(c.Credentials)))
				w.WriteBytes(c.Credentials)
			})
		}
	})
	w.WriteDeferred()
	return ndr.MarshalTypeSerialization1(w.Bytes()), nil
}

// Unmarshal decodes a decrypted PAC_CREDENTIAL_DATA plaintext.
func (d *CredentialData) Unmarshal(b []byte) error {
	r := ndr.NewReader(b)
	if err := r.ReadTypeSerialization1Header(); err != nil {
		return malformed("credential data: %v", err)
	}
	present, err := r.ReadPointer()
	if err != nil {
		return malformed("credential data: %v", err)
	}
	if !present {
		return malformed("credential data pointer is null")
	}
	if err := d.readBody(r); err != nil {
		return malformed("credential data: %v", err)
	}
	return nil
}

func (d *CredentialData) readBody(r *ndr.Reader) error {
	maxCount, err := r.ReadConformantHeader()
	if err != nil {
		return err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if maxCount != count {
		return ndr.Malformed{EText: "credential array max count disagrees with credential count"}
	}

	type credHdr struct {
		name rpcStringHdr
		size uint32
		ptr  bool
	}
	hdrs := make([]credHdr, count)
	for i := range hdrs {
		if hdrs[i].name, err = readRPCUnicodeStringHdr(r); err != nil {
			return err
		}
		if hdrs[i].size, err = r.ReadUint32(); err != nil {
			return err
		}
		if hdrs[i].ptr, err = r.ReadPointer(); err != nil {
			return err
		}
	}

	d.Credentials = make([]SupplementalCred, count)
	for i := range hdrs {
		if d.Credentials[i].PackageName, err = hdrs[i].name.readReferent(r); err != nil {
			return err
		}
		if !hdrs[i].ptr {
			if hdrs[i].size > 0 {
				return ndr.Malformed{EText: "credential size nonzero but pointer is null"}
			}
			continue
		}
		maxBytes, err := r.ReadConformantHeader()
		if err != nil {
			return err
		}
		if maxBytes != hdrs[i].size {
			return ndr.Malformed{EText: "credential bytes max count disagrees with credential size"}
		}
		if d.Credentials[i].Credentials, err = r.ReadBytes(int(hdrs[i].size)); err != nil {
			return err
		}
	}
	return nil
}

// NTLMCredential represents NTLM_SUPPLEMENTAL_CREDENTIAL (MS-PAC
// 2.6.4): the user's LM and NT one-way functions.
type NTLMCredential struct {
	Version    uint32
	Flags      uint32
	LMPassword [16]byte
	NTPassword [16]byte
}

// Marshal encodes the fixed 40-byte credential blob.
func (n *NTLMCredential) Marshal() ([]byte, error) {
	out := make([]byte, 40)
	binary.LittleEndian.PutUint32(out[0:4], n.Version)
	binary.LittleEndian.PutUint32(out[4:8], n.Flags)
	copy(out[8:24], n.LMPassword[:])
	copy(out[24:40], n.NTPassword[:])
	return out, nil
}

// Unmarshal decodes the blob carried in the NTLM supplemental
// credential entry.
func (n *NTLMCredential) Unmarshal(b []byte) error {
	if len(b) < 40 {
		return malformed("NTLM credential truncated: %d bytes", len(b))
	}
	n.Version = binary.LittleEndian.Uint32(b[0:4])
	n.Flags = binary.LittleEndian.Uint32(b[4:8])
	copy(n.LMPassword[:], b[8:24])
	copy(n.NTPassword[:], b[24:40])
	return nil
}

// ExtractNTLMHash walks the credential list for the NTLM package and
// returns its hashes in the usual LM:NT hex form. An all-zero LM OWF
// gets the empty-password LM hash, which is what every cracking tool
// expects in that slot.
func (d *CredentialData) ExtractNTLMHash() (string, error) {
	for i := range d.Credentials {
		c := d.Credentials[i]
		if c.PackageName != "NTLM" {
			continue
		}
		var n NTLMCredential
		if err := n.Unmarshal(c.Credentials); err != nil {
			return "", err
		}
		lm := EmptyLMHash
		if n.LMPassword != [16]byte{} {
			lm = hex.EncodeToString(n.LMPassword[:])
		}
		return lm + ":" + hex.EncodeToString(n.NTPassword[:]), nil
	}
	return "", fmt.Errorf("%w: no NTLM supplemental credential", ErrMissingElement)
}
