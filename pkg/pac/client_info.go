package pac

import (
	"github.com/pacforge/pacforge/pkg/ndr"
)

// ClientInfo represents PAC_CLIENT_INFO (MS-PAC 2.7): the client's
// authentication time and name. Unlike the logon information it is a
// simple structure, not NDR-encoded.
type ClientInfo struct {
	// ClientID is the Kerberos initial TGT authentication time.
	ClientID FileTime

	// Name is the client account name. Its UTF-16 byte length is
	// derived at encode time, never trusted from the caller.
	Name string
}

// Marshal encodes the client info: FILETIME, 16-bit name byte length,
// then the UTF-16LE name.
func (c *ClientInfo) Marshal() ([]byte, error) {
	w := ndr.NewWriter()
	w.WriteUint32(c.ClientID.LowDateTime)
	w.WriteUint32(c.ClientID.HighDateTime)
	name := ndr.EncodeUTF16LE(c.Name)
	w.WriteUint16(uint16(len(name)))
	w.WriteBytes(name)
	return w.Bytes(), nil
}

// Unmarshal decodes the client info. Bytes past the declared name
// length must be zero padding.
func (c *ClientInfo) Unmarshal(b []byte) error {
	r := ndr.NewReader(b)
	ft, err := readFileTime(r)
	if err != nil {
		return malformed("client info: %v", err)
	}
	nameLen, err := r.ReadUint16()
	if err != nil {
		return malformed("client info: %v", err)
	}
	name, err := r.ReadUTF16String(int(nameLen))
	if err != nil {
		return malformed("client info name: %v", err)
	}
	for r.Remaining() > 0 {
		v, _ := r.ReadUint8()
		if v != 0 {
			return malformed("non-zero padding after client info")
		}
	}
	c.ClientID = ft
	c.Name = name
	return nil
}
