package crypto

// EDUCATIONAL: Kerberos Encryption Type Constants
//
// These constants define the encryption algorithms used in Kerberos.
// The choice of etype affects both security and attack feasibility.

// Encryption type (etype) constants
const (
	// EtypeRC4 is RC4-HMAC-MD5 (etype 23), also known as arcfour-hmac.
	// This is the most common etype because the key IS the NTLM hash,
	// enabling pass-the-hash attacks.
	EtypeRC4 = 23

	// EtypeAES128 is aes128-cts-hmac-sha1-96.
	EtypeAES128 = 17
	// EtypeAES256 is aes256-cts-hmac-sha1-96.
	EtypeAES256 = 18
)

// EDUCATIONAL: Key Usage Numbers
//
// Key usage numbers ensure different keys are used for different purposes,
// preventing cut-and-paste attacks. Each message type has a specific usage.
//
// RFC 4120 defines the key usage values for Kerberos messages; MS-PAC
// assigns two of the "non-Kerberos" usages to the PAC.

// Key usage constants
const (
	// KeyUsageKerbNonKerbSalt encrypts the PAC credential data.
	KeyUsageKerbNonKerbSalt = 16

	// KeyUsageKerbNonKerbCksumSalt keys the PAC signatures.
	KeyUsageKerbNonKerbCksumSalt = 17

	// Ticket
	KeyUsageTicket = 2 // Ticket encrypted part
)
