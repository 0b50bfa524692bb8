package pac

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNTLMCredentialBytes(t *testing.T) []byte {
	t.Helper()
	nt, err := hex.DecodeString("31d6cfe0d16ae931b73c59d7e0c089c0")
	require.NoError(t, err)

	cred := &NTLMCredential{Flags: NTLMCredNTPresent}
	copy(cred.NTPassword[:], nt)
	raw, err := cred.Marshal()
	require.NoError(t, err)
	return raw
}

func TestCredentialDataRoundTrip(t *testing.T) {
	d := &CredentialData{
		Credentials: []SupplementalCred{
			{PackageName: "NTLM", Credentials: testNTLMCredentialBytes(t)},
		},
	}
	raw, err := d.Marshal()
	require.NoError(t, err)

	var dec CredentialData
	require.NoError(t, dec.Unmarshal(raw))
	assert.Equal(t, *d, dec)
}

func TestExtractNTLMHash(t *testing.T) {
	d := &CredentialData{
		Credentials: []SupplementalCred{
			{PackageName: "NTLM", Credentials: testNTLMCredentialBytes(t)},
		},
	}
	hash, err := d.ExtractNTLMHash()
	require.NoError(t, err)
	// No LM OWF present: the empty-password LM hash fills the slot.
	assert.Equal(t,
		"aad3b435b51404eeaad3b435b51404ee:31d6cfe0d16ae931b73c59d7e0c089c0",
		hash)
}

func TestExtractNTLMHashWithLM(t *testing.T) {
	cred := &NTLMCredential{Flags: NTLMCredNTPresent | NTLMCredLMPresent}
	for i := range cred.LMPassword {
		cred.LMPassword[i] = 0x11
	}
	for i := range cred.NTPassword {
		cred.NTPassword[i] = 0x22
	}
	raw, err := cred.Marshal()
	require.NoError(t, err)

	d := &CredentialData{
		Credentials: []SupplementalCred{{PackageName: "NTLM", Credentials: raw}},
	}
	hash, err := d.ExtractNTLMHash()
	require.NoError(t, err)
	assert.Equal(t,
		"11111111111111111111111111111111:22222222222222222222222222222222",
		hash)
}

func TestExtractNTLMHashMissing(t *testing.T) {
	d := &CredentialData{
		Credentials: []SupplementalCred{{PackageName: "WDigest", Credentials: []byte{1, 2, 3}}},
	}
	_, err := d.ExtractNTLMHash()
	require.ErrorIs(t, err, ErrMissingElement)
}

func TestExtractNTLMHashExactPackageName(t *testing.T) {
	// The package name comparison is the exact literal "NTLM".
	d := &CredentialData{
		Credentials: []SupplementalCred{
			{PackageName: "ntlm", Credentials: testNTLMCredentialBytes(t)},
		},
	}
	_, err := d.ExtractNTLMHash()
	require.ErrorIs(t, err, ErrMissingElement)
}

func TestCredentialsInfoRoundTrip(t *testing.T) {
	ci := &CredentialsInfo{EType: 18, Encrypted: []byte{9, 8, 7, 6, 5}}
	raw, err := ci.Marshal()
	require.NoError(t, err)
	assert.Len(t, raw, 8+5)

	var dec CredentialsInfo
	require.NoError(t, dec.Unmarshal(raw))
	assert.Equal(t, *ci, dec)
}

func TestCredentialsInfoVersion(t *testing.T) {
	ci := &CredentialsInfo{Version: 1, EType: 23}
	_, err := ci.Marshal()
	require.ErrorIs(t, err, ErrMalformed)

	raw := []byte{1, 0, 0, 0, 23, 0, 0, 0}
	var dec CredentialsInfo
	require.ErrorIs(t, dec.Unmarshal(raw), ErrMalformed)
}

func TestCredentialsInfoDecrypt(t *testing.T) {
	d := &CredentialData{
		Credentials: []SupplementalCred{
			{PackageName: "NTLM", Credentials: testNTLMCredentialBytes(t)},
		},
	}
	plaintext, err := d.Marshal()
	require.NoError(t, err)

	// XOR "cipher" stands in for the Kerberos suite.
	xor := func(key, data []byte) []byte {
		out := make([]byte, len(data))
		for i := range data {
			out[i] = data[i] ^ key[i%len(key)]
		}
		return out
	}
	key := []byte{0x5A, 0xC3}

	ci := &CredentialsInfo{EType: 23, Encrypted: xor(key, plaintext)}
	dec, err := ci.Decrypt(key, func(etype uint32, k, ct []byte) ([]byte, error) {
		assert.Equal(t, uint32(23), etype)
		return xor(k, ct), nil
	})
	require.NoError(t, err)
	assert.Equal(t, d.Credentials, dec.Credentials)
}

func TestCredentialsInfoDecryptFailure(t *testing.T) {
	ci := &CredentialsInfo{EType: 23, Encrypted: []byte{1, 2, 3}}
	_, err := ci.Decrypt([]byte("key"), func(etype uint32, k, ct []byte) ([]byte, error) {
		return nil, fmt.Errorf("integrity check failed")
	})
	require.ErrorIs(t, err, ErrCryptoFailure)
}

func TestNTLMCredentialRoundTrip(t *testing.T) {
	cred := &NTLMCredential{Version: 0, Flags: NTLMCredNTPresent}
	copy(cred.NTPassword[:], bytes.Repeat([]byte{0xAB}, 16))

	raw, err := cred.Marshal()
	require.NoError(t, err)
	require.Len(t, raw, 40)

	var dec NTLMCredential
	require.NoError(t, dec.Unmarshal(raw))
	assert.Equal(t, *cred, dec)

	require.Error(t, dec.Unmarshal(raw[:24]))
}
