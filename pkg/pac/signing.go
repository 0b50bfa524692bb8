package pac

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/crypto"
	"github.com/jcmturner/gokrb5/v8/iana/keyusage"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PAC SIGNING AND RE-SIGNING
// ═══════════════════════════════════════════════════════════════════════════════
//
// PAC SIGNATURE TYPES (MS-PAC 2.8):
// ═════════════════════════════════
//
//   Server Checksum (Type 6):
//   - Signs the entire PAC (with both signatures zeroed)
//   - Uses the service key (for TGT, this is krbtgt key)
//   - Proves the service (or KDC) created this PAC
//
//   Privilege Server / KDC Checksum (Type 7):
//   - Signs ONLY the Server Checksum signature bytes
//   - Always uses krbtgt key
//   - "Signature of the signature"
//
// SIGNING PROCESS:
// ════════════════
//
//   1. Locate both signature buffers
//   2. Zero the signature bytes of both (keep type fields)
//   3. Calculate Server Checksum over the entire PAC image
//   4. Insert Server signature
//   5. Calculate KDC Checksum over the Server signature bytes only
//   6. Insert KDC signature

// ChecksumFunc computes a keyed Kerberos checksum of the given type.
// The returned signature must be exactly as long as the wire length for
// that checksum type.
type ChecksumFunc func(signatureType uint32, key, data []byte) ([]byte, error)

// Krb5Checksum is a ChecksumFunc backed by the Kerberos crypto suite.
// PAC signatures use key usage KERB_NON_KERB_CKSUM_SALT (17).
func Krb5Checksum(signatureType uint32, key, data []byte) ([]byte, error) {
	et, err := crypto.GetChksumEtype(int32(signatureType))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}
	return et.GetChecksumHash(key, data, keyusage.KERB_NON_KERB_CKSUM_SALT)
}

// Sign serializes the PAC and computes both signatures.
//
// The server checksum covers the full image with both signature fields
// zeroed in place; the privilege-server checksum covers only the server
// signature bytes, never the image. On success the computed signatures
// are stored back into the two SignatureData elements and the returned
// image carries them; on failure the receiver is left unchanged.
func (p *Pac) Sign(key []byte, fn ChecksumFunc) ([]byte, error) {
	serverSD, err := p.signatureElement(ServerChecksumType)
	if err != nil {
		return nil, err
	}
	kdcSD, err := p.signatureElement(KDCChecksumType)
	if err != nil {
		return nil, err
	}

	serverLen, ok := checksumSignatureLength[serverSD.SignatureType]
	if !ok {
		return nil, fmt.Errorf("%w: server checksum type %#x",
			ErrUnsupportedAlgorithm, serverSD.SignatureType)
	}
	kdcLen, ok := checksumSignatureLength[kdcSD.SignatureType]
	if !ok {
		return nil, fmt.Errorf("%w: KDC checksum type %#x",
			ErrUnsupportedAlgorithm, kdcSD.SignatureType)
	}

	// Marshal with zeroed placeholders; restore the originals if
	// anything fails past this point.
	origServer, origKDC := serverSD.Signature, kdcSD.Signature
	serverSD.Signature = make([]byte, serverLen)
	kdcSD.Signature = make([]byte, kdcLen)
	restore := func() {
		serverSD.Signature = origServer
		kdcSD.Signature = origKDC
	}

	img, err := p.Marshal()
	if err != nil {
		restore()
		return nil, err
	}

	serverSig, err := fn(serverSD.SignatureType, key, img)
	if err != nil {
		restore()
		return nil, fmt.Errorf("server signature: %w", err)
	}
	if len(serverSig) != serverLen {
		restore()
		return nil, malformed("server signature length %d, want %d", len(serverSig), serverLen)
	}

	kdcSig, err := fn(kdcSD.SignatureType, key, serverSig)
	if err != nil {
		restore()
		return nil, fmt.Errorf("KDC signature: %w", err)
	}
	if len(kdcSig) != kdcLen {
		restore()
		return nil, malformed("KDC signature length %d, want %d", len(kdcSig), kdcLen)
	}

	serverSD.Signature = serverSig
	kdcSD.Signature = kdcSig
	patchSignature(img, ServerChecksumType, serverSig)
	patchSignature(img, KDCChecksumType, kdcSig)
	return img, nil
}

// signatureElement locates the SignatureData element of the given type.
func (p *Pac) signatureElement(typeTag uint32) (*SignatureData, error) {
	buf := p.Buffer(typeTag)
	if buf == nil {
		return nil, fmt.Errorf("%w: no signature buffer of type %d", ErrMissingElement, typeTag)
	}
	sd, ok := buf.Element.(*SignatureData)
	if !ok {
		return nil, malformed("buffer of type %d is not signature data", typeTag)
	}
	return sd, nil
}

// patchSignature writes sig into the image at the signature buffer's
// offset, past the 4-byte type field. The image was just produced by
// Marshal, so the descriptor table is trusted.
func patchSignature(img []byte, typeTag uint32, sig []byte) {
	count := binary.LittleEndian.Uint32(img[0:4])
	for i := uint32(0); i < count; i++ {
		d := img[pacHeaderSize+i*pacDescriptorSize:]
		if binary.LittleEndian.Uint32(d[0:4]) != typeTag {
			continue
		}
		offset := binary.LittleEndian.Uint64(d[8:16])
		copy(img[offset+4:], sig)
		return
	}
}

// Resign decodes an existing PAC image, switches both signature buffers
// to the given checksum type, and re-signs with the provided key.
//
// This is what golden/silver ticket tooling needs: a PAC lifted from
// one ticket re-signed so its checksums match the key of the ticket it
// is being inserted into.
func Resign(raw, key []byte, signatureType uint32, fn ChecksumFunc) ([]byte, error) {
	if _, ok := checksumSignatureLength[signatureType]; !ok {
		return nil, fmt.Errorf("%w: checksum type %#x", ErrUnsupportedAlgorithm, signatureType)
	}
	var p Pac
	if err := p.Unmarshal(raw); err != nil {
		return nil, err
	}
	// Switching checksum type can change the signature buffers' size,
	// so drop the decoded offsets and let Marshal lay out afresh.
	for i := range p.Buffers {
		p.Buffers[i].Offset = 0
	}
	for _, t := range []uint32{ServerChecksumType, KDCChecksumType} {
		sd, err := p.signatureElement(t)
		if err != nil {
			return nil, err
		}
		sd.SignatureType = signatureType
		sd.Signature = make([]byte, checksumSignatureLength[signatureType])
	}
	return p.Sign(key, fn)
}

// FindPACInAuthData locates a PAC inside decrypted Kerberos
// AuthorizationData by scanning for a plausible PACTYPE header.
// Returns the PAC bytes and the offset where they were found.
func FindPACInAuthData(data []byte) (pacData []byte, offset int, found bool) {
	for i := 0; i+pacHeaderSize < len(data); i++ {
		bufCount := binary.LittleEndian.Uint32(data[i : i+4])
		version := binary.LittleEndian.Uint32(data[i+4 : i+8])
		if version != 0 || bufCount == 0 || bufCount >= 20 {
			continue
		}

		headerSize := pacHeaderSize + pacDescriptorSize*int(bufCount)
		if i+headerSize > len(data) {
			continue
		}

		valid := true
		maxEnd := headerSize
		for j := 0; j < int(bufCount); j++ {
			d := data[i+pacHeaderSize+j*pacDescriptorSize:]
			size := int(binary.LittleEndian.Uint32(d[4:8]))
			off := int(binary.LittleEndian.Uint64(d[8:16]))
			if off > len(data)-i || size > len(data)-i || off+size > len(data)-i {
				valid = false
				break
			}
			if off+size > maxEnd {
				maxEnd = off + size
			}
		}
		if !valid {
			continue
		}

		maxEnd = int(align8(uint64(maxEnd)))
		if i+maxEnd <= len(data) {
			return data[i : i+maxEnd], i, true
		}
		return data[i:], i, true
	}
	return nil, 0, false
}

// ReplacePACInAuthData splices newPAC over the PAC found in the
// authorization data.
func ReplacePACInAuthData(authData, newPAC []byte) ([]byte, error) {
	oldPAC, offset, found := FindPACInAuthData(authData)
	if !found {
		return nil, fmt.Errorf("%w: no PAC in authorization data", ErrMissingElement)
	}
	if !bytes.Equal(authData[offset:offset+len(oldPAC)], oldPAC) {
		return nil, malformed("PAC location mismatch")
	}

	result := make([]byte, 0, len(authData)-len(oldPAC)+len(newPAC))
	result = append(result, authData[:offset]...)
	result = append(result, newPAC...)
	result = append(result, authData[offset+len(oldPAC):]...)
	return result, nil
}
