package crypto

import (
	"crypto/md5"
	"fmt"
)

// PAC checksum type constants, as unsigned wire values.
const (
	ChecksumRSAMD5          uint32 = 7
	ChecksumHMACSHA1AES128  uint32 = 15
	ChecksumHMACSHA1AES256  uint32 = 16
	ChecksumHMACMD5Unsigned uint32 = 0xFFFFFF76 // -138 as two's complement
)

// Checksum computes a PAC signature of the given checksum type. The
// signature matches the function type the pac package signs with, so it
// can be passed directly to Pac.Sign as a self-contained alternative to
// the gokrb5-backed implementation.
func Checksum(signatureType uint32, key, data []byte) ([]byte, error) {
	switch signatureType {
	case ChecksumRSAMD5:
		// KERB_CHECKSUM_RSA_MD5 is unkeyed.
		sum := md5.Sum(data)
		return sum[:], nil
	case ChecksumHMACSHA1AES128:
		return HMACSHA1AES128(key, data)
	case ChecksumHMACSHA1AES256:
		return HMACSHA1AES256(key, data)
	case ChecksumHMACMD5Unsigned:
		return HMACMD5(key, data)
	default:
		return nil, fmt.Errorf("unsupported checksum type %#x", signatureType)
	}
}

// Decrypt decrypts a PAC credential buffer ciphertext with the session
// key, usable as a pac.Decryptor. The key usage is KERB_NON_KERB_SALT
// (16) per MS-PAC.
func Decrypt(etype uint32, key, ciphertext []byte) ([]byte, error) {
	switch etype {
	case EtypeRC4:
		return DecryptRC4(key, ciphertext, KeyUsageKerbNonKerbSalt)
	case EtypeAES128, EtypeAES256:
		return DecryptAES(key, ciphertext, KeyUsageKerbNonKerbSalt, int(etype))
	default:
		return nil, fmt.Errorf("unsupported encryption type %d", etype)
	}
}

// Encrypt is the inverse of Decrypt, for building credential buffers.
func Encrypt(etype uint32, key, plaintext []byte) ([]byte, error) {
	switch etype {
	case EtypeRC4:
		return EncryptRC4(key, plaintext, KeyUsageKerbNonKerbSalt)
	case EtypeAES128, EtypeAES256:
		return EncryptAES(key, plaintext, KeyUsageKerbNonKerbSalt, int(etype))
	default:
		return nil, fmt.Errorf("unsupported encryption type %d", etype)
	}
}
