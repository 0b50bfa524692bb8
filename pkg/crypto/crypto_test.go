package crypto

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNTLMHash(t *testing.T) {
	// MD4 over the UTF-16LE password, per MS-NLMP NTOWFv1.
	assert.Equal(t,
		"8846f7eaee8fb117ad06bdd830b7586c",
		hex.EncodeToString(NTLMHash("password")))
	assert.Equal(t,
		"31d6cfe0d16ae931b73c59d7e0c089c0",
		hex.EncodeToString(NTLMHash("")))
}

func TestRC4RoundTrip(t *testing.T) {
	key := NTLMHash("Summer2024!")
	plaintext := []byte("supplemental credential payload")

	ct, err := EncryptRC4(key, plaintext, KeyUsageKerbNonKerbSalt)
	require.NoError(t, err)

	pt, err := DecryptRC4(key, ct, KeyUsageKerbNonKerbSalt)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)

	// Flipping a ciphertext bit must break the confounder checksum.
	ct[len(ct)-1] ^= 0x01
	_, err = DecryptRC4(key, ct, KeyUsageKerbNonKerbSalt)
	require.Error(t, err)
}

func TestAESRoundTrip(t *testing.T) {
	// Lengths chosen so the confounder-prefixed data exercises every
	// ciphertext-stealing shape: partial final block, exact block
	// multiples, and more than two blocks with a tail.
	base := []byte("the quick brown fox jumps over the lazy dog")
	for _, etype := range []int{EtypeAES128, EtypeAES256} {
		key := make([]byte, 16)
		if etype == EtypeAES256 {
			key = make([]byte, 32)
		}
		for i := range key {
			key[i] = byte(i + 1)
		}
		for _, n := range []int{1, 15, 16, 17, 31, 32, 43} {
			plaintext := base[:n]

			ct, err := EncryptAES(key, plaintext, KeyUsageKerbNonKerbSalt, etype)
			require.NoError(t, err)

			pt, err := DecryptAES(key, ct, KeyUsageKerbNonKerbSalt, etype)
			require.NoError(t, err)
			assert.Equal(t, plaintext, pt, "etype %d, %d bytes", etype, n)

			ct[0] ^= 0x80
			_, err = DecryptAES(key, ct, KeyUsageKerbNonKerbSalt, etype)
			require.Error(t, err)
		}
	}
}

func TestChecksumLengths(t *testing.T) {
	tests := []struct {
		name    string
		sigType uint32
		keyLen  int
		wantLen int
	}{
		{"rsa-md5", ChecksumRSAMD5, 0, 16},
		{"hmac-sha1-aes128", ChecksumHMACSHA1AES128, 16, 12},
		{"hmac-sha1-aes256", ChecksumHMACSHA1AES256, 32, 12},
		{"hmac-md5", ChecksumHMACMD5Unsigned, 16, 16},
	}
	data := []byte("pac image bytes")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := make([]byte, tc.keyLen)
			for i := range key {
				key[i] = byte(i)
			}
			sum, err := Checksum(tc.sigType, key, data)
			require.NoError(t, err)
			assert.Len(t, sum, tc.wantLen)
		})
	}
}

func TestChecksumRSAMD5Unkeyed(t *testing.T) {
	data := []byte("same digest regardless of key")
	want := md5.Sum(data)

	got, err := Checksum(ChecksumRSAMD5, []byte("ignored"), data)
	require.NoError(t, err)
	assert.Equal(t, want[:], got)
}

func TestChecksumUnsupported(t *testing.T) {
	_, err := Checksum(0xDEAD, nil, []byte("x"))
	require.Error(t, err)
}

func TestDecryptDispatcherUnsupported(t *testing.T) {
	_, err := Decrypt(99, []byte("key"), []byte("ct"))
	require.Error(t, err)
	_, err = Encrypt(99, []byte("key"), []byte("pt"))
	require.Error(t, err)
}

func TestEncryptDecryptDispatcher(t *testing.T) {
	key := AES256Key("Password1", "EXAMPLE.COMuser")
	plaintext := []byte("serialized credential data")

	ct, err := Encrypt(uint32(EtypeAES256), key, plaintext)
	require.NoError(t, err)

	pt, err := Decrypt(uint32(EtypeAES256), key, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestAESKeySizes(t *testing.T) {
	assert.Len(t, AES128Key("Password1", "EXAMPLE.COMuser"), 16)
	assert.Len(t, AES256Key("Password1", "EXAMPLE.COMuser"), 32)
}

func TestBuildAESSalt(t *testing.T) {
	assert.Equal(t, "EXAMPLE.COMalice", BuildAESSalt("example.com", "alice"))
	assert.Equal(t, "EXAMPLE.COMalice", BuildAESSalt("EXAMPLE.COM", "alice"))
}

func TestHMACSHA1Truncation(t *testing.T) {
	key := make([]byte, 32)
	sum, err := HMACSHA1AES256(key, []byte("data"))
	require.NoError(t, err)
	assert.Len(t, sum, 12)

	key16 := make([]byte, 16)
	sum, err = HMACSHA1AES128(key16, []byte("data"))
	require.NoError(t, err)
	assert.Len(t, sum, 12)
}

func TestRC4KeyIsNTLMHash(t *testing.T) {
	hash := NTLMHash("Password1")
	assert.Equal(t, hash, RC4Key(hash))
}
