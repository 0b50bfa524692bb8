// Package pac encodes and decodes the PAC (Privilege Attribute
// Certificate) carried inside Kerberos tickets.
//
// # Overview
//
// The PAC is Microsoft's extension to Kerberos tickets containing:
//   - User SID and group memberships
//   - Logon information (name, domain, etc.)
//   - Supplemental credentials (encrypted)
//   - Signatures for integrity
//
// # Why PAC Matters
//
// The PAC is what Windows uses for authorization. When you access a
// resource, Windows checks your SID and group SIDs in the PAC against
// the ACL.
//
// In Golden/Silver ticket attacks, we FORGE the PAC to add ourselves
// to any group (like Domain Admins) without actually having membership!
//
// # PAC Structure
//
// A PAC contains multiple buffers:
//   - LOGON_INFO (1): KERB_VALIDATION_INFO, NDR-encoded
//   - CREDENTIAL_INFO (2): encrypted supplemental credentials
//   - SERVER_CHECKSUM (6): signature with the service key
//   - KDC_CHECKSUM (7): signature with the krbtgt key
//   - CLIENT_INFO (10): client name and auth time
//
// Pac.Unmarshal decodes a full image into typed elements, Pac.Marshal
// lays them back out, and Pac.Sign computes both checksums. Buffer
// types the package does not model round-trip verbatim as
// UnknownElement, so re-signing never destroys unrecognized data.
//
// The signatures prevent modification UNLESS you have the keys.
// With the krbtgt key (Golden) or service key (Silver), we can sign!
package pac
