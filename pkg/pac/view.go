package pac

import (
	"fmt"
	"strings"
	"time"
)

// EDUCATIONAL: PAC Viewer
//
// The PAC (Privilege Attribute Certificate) is embedded in Kerberos tickets
// and contains authorization data. This viewer renders a decoded PAC:
//
//   - KERB_VALIDATION_INFO (user info, group memberships)
//   - PAC_CLIENT_INFO (client name and time)
//   - PAC_SIGNATURE_DATA (server and KDC checksums)
//
// This is critical for:
//   - Understanding what Windows "sees" when you present a ticket
//   - Verifying forged tickets are correct

// BufferTypeName returns a human-readable name for a PAC buffer type.
func BufferTypeName(t uint32) string {
	names := map[uint32]string{
		LogonInfoType:         "KERB_VALIDATION_INFO (Logon Info)",
		CredentialsType:       "PAC_CREDENTIAL_INFO",
		ServerChecksumType:    "PAC_SERVER_CHECKSUM",
		KDCChecksumType:       "PAC_PRIVSVR_CHECKSUM (KDC)",
		S4UDelegationInfoType: "S4U_DELEGATION_INFO",
		ClientInfoType:        "PAC_CLIENT_INFO",
		UPNDNSInfoType:        "UPN_DNS_INFO",
		ClientClaimsType:      "PAC_CLIENT_CLAIMS_INFO",
		DeviceInfoType:        "PAC_DEVICE_INFO",
		DeviceClaimsType:      "PAC_DEVICE_CLAIMS_INFO",
		TicketChecksumType:    "PAC_TICKET_CHECKSUM",
		AttributesType:        "PAC_ATTRIBUTES_INFO",
		RequestorType:         "PAC_REQUESTOR",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", t)
}

// ChecksumTypeName returns a human-readable name for a checksum type.
func ChecksumTypeName(t uint32) string {
	names := map[uint32]string{
		ChecksumRSAMD5:          "RSA-MD5",
		ChecksumHMACSHA1AES128:  "HMAC-SHA1-96-AES128",
		ChecksumHMACSHA1AES256:  "HMAC-SHA1-96-AES256",
		ChecksumHMACMD5Unsigned: "HMAC-MD5 (RC4)",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%x)", t)
}

// View renders a decoded PAC as a formatted report.
func (p *Pac) View() string {
	var sb strings.Builder

	sb.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║               PAC (Privilege Attribute Certificate)            ║\n")
	sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("║  Version: %d, Buffers: %d\n", p.Version, len(p.Buffers)))
	sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
	sb.WriteString("║  BUFFER TYPES                                                  ║\n")
	sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
	for i := range p.Buffers {
		sb.WriteString(fmt.Sprintf("║  [%d] %s\n", i+1, BufferTypeName(p.Buffers[i].Type)))
	}

	if buf := p.Buffer(LogonInfoType); buf != nil {
		if v, ok := buf.Element.(*ValidationInfo); ok {
			sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
			sb.WriteString("║  KERB_VALIDATION_INFO (Who You Are)                           ║\n")
			sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
			sb.WriteString(v.view())
		}
	}

	if buf := p.Buffer(ClientInfoType); buf != nil {
		if c, ok := buf.Element.(*ClientInfo); ok {
			sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
			sb.WriteString("║  PAC_CLIENT_INFO                                               ║\n")
			sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
			sb.WriteString(fmt.Sprintf("║  Client:    %s\n", c.Name))
			if t := c.ClientID.Time(); !t.IsZero() {
				sb.WriteString(fmt.Sprintf("║  Timestamp: %s\n", t.Format(time.RFC3339)))
			}
		}
	}

	server := p.Buffer(ServerChecksumType)
	kdc := p.Buffer(KDCChecksumType)
	if server != nil || kdc != nil {
		sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
		sb.WriteString("║  SIGNATURES                                                    ║\n")
		sb.WriteString("╠════════════════════════════════════════════════════════════════╣\n")
		if server != nil {
			if sd, ok := server.Element.(*SignatureData); ok {
				sb.WriteString(fmt.Sprintf("║  Server: %s (%d bytes)\n",
					ChecksumTypeName(sd.SignatureType), len(sd.Signature)))
				if sd.RODCIdentifier != 0 {
					sb.WriteString(fmt.Sprintf("║  RODC ID: %d (Read-Only Domain Controller)\n", sd.RODCIdentifier))
				}
			}
		}
		if kdc != nil {
			if sd, ok := kdc.Element.(*SignatureData); ok {
				sb.WriteString(fmt.Sprintf("║  KDC:    %s (%d bytes)\n",
					ChecksumTypeName(sd.SignatureType), len(sd.Signature)))
			}
		}
	}

	sb.WriteString("╚════════════════════════════════════════════════════════════════╝\n")

	sb.WriteString("\n💡 EDUCATIONAL NOTES:\n")
	sb.WriteString("   • LogonInfo contains the user's identity and group memberships\n")
	sb.WriteString("   • Groups include Domain Admins (512), Enterprise Admins (519), etc.\n")
	sb.WriteString("   • Server checksum signed by service, KDC checksum by krbtgt\n")

	return sb.String()
}

func (v *ValidationInfo) view() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("║  User:       %s (%s)\n", v.EffectiveName, v.FullName))
	sb.WriteString(fmt.Sprintf("║  Domain:     %s\n", v.LogonDomainName))
	sb.WriteString(fmt.Sprintf("║  User RID:   %d\n", v.UserID))
	sb.WriteString(fmt.Sprintf("║  Domain SID: %s\n", v.LogonDomainID.String()))
	if name := wellKnownRID(v.PrimaryGroupID); name != "" {
		sb.WriteString(fmt.Sprintf("║  Primary Group: %d (%s)\n", v.PrimaryGroupID, name))
	} else {
		sb.WriteString(fmt.Sprintf("║  Primary Group: %d\n", v.PrimaryGroupID))
	}

	if t := v.LogonTime.Time(); !t.IsZero() {
		sb.WriteString(fmt.Sprintf("║  Logon Time: %s\n", t.Format(time.RFC3339)))
	}
	if t := v.PasswordLastSet.Time(); !t.IsZero() {
		sb.WriteString(fmt.Sprintf("║  Password Set: %s\n", t.Format(time.RFC3339)))
	}

	if len(v.GroupIDs) > 0 {
		sb.WriteString("║  ───────────────────────────────────────────────────────────\n")
		sb.WriteString(fmt.Sprintf("║  GROUP MEMBERSHIPS (%d groups)\n", len(v.GroupIDs)))
		sb.WriteString("║  ───────────────────────────────────────────────────────────\n")
		for _, g := range v.GroupIDs {
			if name := wellKnownRID(g.RelativeID); name != "" {
				sb.WriteString(fmt.Sprintf("║    • RID %d = %s\n", g.RelativeID, name))
			} else {
				sb.WriteString(fmt.Sprintf("║    • RID %d\n", g.RelativeID))
			}
		}
	}

	if len(v.ExtraSIDs) > 0 {
		sb.WriteString("║  ───────────────────────────────────────────────────────────\n")
		sb.WriteString(fmt.Sprintf("║  EXTRA SIDS (%d)\n", len(v.ExtraSIDs)))
		sb.WriteString("║  ───────────────────────────────────────────────────────────\n")
		for _, s := range v.ExtraSIDs {
			sb.WriteString(fmt.Sprintf("║    • %s\n", s.SID.String()))
		}
	}

	if v.UserAccountControl != 0 {
		sb.WriteString(fmt.Sprintf("║  UAC Flags: 0x%08x\n", v.UserAccountControl))
	}

	return sb.String()
}

func wellKnownRID(rid uint32) string {
	rids := map[uint32]string{
		500: "Administrator",
		501: "Guest",
		502: "krbtgt",
		512: "Domain Admins",
		513: "Domain Users",
		514: "Domain Guests",
		515: "Domain Computers",
		516: "Domain Controllers",
		518: "Schema Admins",
		519: "Enterprise Admins",
		520: "Group Policy Creator Owners",
		521: "Read-only Domain Controllers",
		522: "Cloneable Domain Controllers",
		526: "Key Admins",
		527: "Enterprise Key Admins",
		553: "RAS and IAS Servers",
	}
	return rids[rid]
}
