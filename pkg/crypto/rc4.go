package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"encoding/binary"
	"errors"
	"unicode/utf16"

	"golang.org/x/crypto/md4"
)

// EncryptRC4 encrypts data using RC4-HMAC-MD5 (etype 23).
//
// EDUCATIONAL: RC4-HMAC Encryption Process
//
// This is the most common encryption type in Kerberos because the key
// is literally the NTLM hash, enabling pass-the-hash attacks.
//
// The encryption process (RFC 4757):
//
//  1. Generate 8-byte random confounder
//  2. Compute Ks = HMAC-MD5(key, usage_number_as_le32)
//  3. Compute checksum = HMAC-MD5(Ks, confounder || plaintext)
//  4. Compute Ke = HMAC-MD5(Ks, checksum)
//  5. Encrypt data with RC4: ciphertext = RC4(Ke, confounder || plaintext)
//  6. Return checksum || ciphertext
func EncryptRC4(key, plaintext []byte, usage int) ([]byte, error) {
	if len(key) != 16 {
		return nil, errors.New("RC4 key must be 16 bytes (NTLM hash)")
	}

	confounder := make([]byte, 8)
	if _, err := rand.Read(confounder); err != nil {
		return nil, err
	}

	ks := deriveKs(key, usage)

	dataToEncrypt := append(confounder, plaintext...)

	checksumHmac := hmac.New(md5.New, ks)
	checksumHmac.Write(dataToEncrypt)
	checksum := checksumHmac.Sum(nil)

	keHmac := hmac.New(md5.New, ks)
	keHmac.Write(checksum)
	ke := keHmac.Sum(nil)

	cipher, err := rc4.NewCipher(ke)
	if err != nil {
		return nil, err
	}
	ciphertext := make([]byte, len(dataToEncrypt))
	cipher.XORKeyStream(ciphertext, dataToEncrypt)

	return append(checksum, ciphertext...), nil
}

// DecryptRC4 decrypts data encrypted with RC4-HMAC-MD5.
//
// EDUCATIONAL: RC4-HMAC Decryption Process
//
// This reverses the encryption:
//  1. Split input into checksum (first 16 bytes) and ciphertext
//  2. Derive Ks from key and usage
//  3. Derive Ke from Ks and checksum
//  4. RC4 decrypt to get confounder || plaintext
//  5. Verify checksum
//  6. Return plaintext (strip 8-byte confounder)
func DecryptRC4(key, ciphertext []byte, usage int) ([]byte, error) {
	if len(key) != 16 {
		return nil, errors.New("RC4 key must be 16 bytes (NTLM hash)")
	}
	if len(ciphertext) < 24 { // 16-byte checksum + 8-byte confounder minimum
		return nil, errors.New("ciphertext too short")
	}

	checksum := ciphertext[:16]
	encryptedData := ciphertext[16:]

	ks := deriveKs(key, usage)

	keHmac := hmac.New(md5.New, ks)
	keHmac.Write(checksum)
	ke := keHmac.Sum(nil)

	cipher, err := rc4.NewCipher(ke)
	if err != nil {
		return nil, err
	}
	decrypted := make([]byte, len(encryptedData))
	cipher.XORKeyStream(decrypted, encryptedData)

	verifyHmac := hmac.New(md5.New, ks)
	verifyHmac.Write(decrypted)
	expectedChecksum := verifyHmac.Sum(nil)

	if !hmac.Equal(checksum, expectedChecksum) {
		return nil, errors.New("checksum verification failed")
	}

	// Strip 8-byte confounder
	return decrypted[8:], nil
}

// deriveKs derives the signing key Ks from the base key and usage number.
func deriveKs(key []byte, usage int) []byte {
	usageBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(usageBytes, uint32(usage))

	h := hmac.New(md5.New, key)
	h.Write(usageBytes)
	return h.Sum(nil)
}

// HMACMD5 computes the KERB_CHECKSUM_HMAC_MD5 signature used with RC4
// encryption.
//
// EDUCATIONAL: RC4-HMAC Checksum
//
// RC4-HMAC PAC signatures use HMAC-MD5 with a derived signing key:
//
//	Ksign = HMAC-MD5(key, "signaturekey" || 0x00)
//	signature = HMAC-MD5(Ksign, data)
//
// Full 16-byte output, not truncated.
func HMACMD5(key, data []byte) ([]byte, error) {
	signKey := deriveRC4SignKey(key)

	h := hmac.New(md5.New, signKey)
	h.Write(data)
	return h.Sum(nil), nil
}

func deriveRC4SignKey(key []byte) []byte {
	h := hmac.New(md5.New, key)
	h.Write([]byte("signaturekey\x00"))
	return h.Sum(nil)
}

// RC4Key computes an RC4 key from an NTLM hash.
//
// EDUCATIONAL: For RC4-HMAC, the key IS the NTLM hash
//
// This is why pass-the-hash works: if you have someone's NTLM hash,
// you can directly use it as the Kerberos RC4 key without knowing
// the plaintext password.
func RC4Key(ntlmHash []byte) []byte {
	if len(ntlmHash) != 16 {
		return nil
	}
	return ntlmHash
}

// NTLMHash computes the NTLM hash from a password.
//
// EDUCATIONAL: NTLM Hash Computation
//
// The NTLM hash is simply MD4(UTF16-LE(password)).
// This hash IS the RC4-HMAC key for Kerberos.
//
// Example:
//
//	Password: "Password1"
//	UTF-16LE: P\x00a\x00s\x00s\x00w\x00o\x00r\x00d\x001\x00
//	MD4 hash: 64f12cddaa88057e06a81b54e73b949b
//
// This is why you can request TGTs with just the hash!
func NTLMHash(password string) []byte {
	utf16le := utf16.Encode([]rune(password))
	passwordBytes := make([]byte, len(utf16le)*2)
	for i, r := range utf16le {
		binary.LittleEndian.PutUint16(passwordBytes[i*2:], r)
	}

	h := md4.New()
	h.Write(passwordBytes)
	return h.Sum(nil)
}
