package pac

// Element is the payload of one PAC info buffer. Concrete types are
// ValidationInfo, ClientInfo, SignatureData, CredentialsInfo and
// UnknownElement; the set is closed and dispatch is purely a function
// of the buffer's type tag.
type Element interface {
	// Marshal returns the element's encoded bytes, excluding the
	// trailing padding the container adds to reach an 8-byte boundary.
	Marshal() ([]byte, error)

	// Unmarshal decodes the element from exactly the bytes the info
	// buffer describes.
	Unmarshal(b []byte) error
}

// decodeElement dispatches raw buffer bytes to the element type for
// typeTag. The five tags the codec interprets map to typed elements;
// every other tag maps to an UnknownElement that preserves the bytes
// verbatim so unrecognized buffers survive a decode/encode round trip.
func decodeElement(typeTag uint32, raw []byte) (Element, error) {
	var e Element
	switch typeTag {
	case LogonInfoType:
		e = new(ValidationInfo)
	case CredentialsType:
		e = new(CredentialsInfo)
	case ServerChecksumType, KDCChecksumType:
		e = new(SignatureData)
	case ClientInfoType:
		e = new(ClientInfo)
	default:
		e = new(UnknownElement)
	}
	if err := e.Unmarshal(raw); err != nil {
		return nil, err
	}
	return e, nil
}

// UnknownElement carries the raw bytes of a PAC buffer whose type tag
// the codec does not interpret. Marshal re-emits the stored bytes
// unchanged rather than re-deriving anything.
type UnknownElement struct {
	Raw []byte
}

// Marshal returns the preserved bytes verbatim.
func (u *UnknownElement) Marshal() ([]byte, error) {
	return u.Raw, nil
}

// Unmarshal stores a copy of the buffer bytes.
func (u *UnknownElement) Unmarshal(b []byte) error {
	u.Raw = make([]byte, len(b))
	copy(u.Raw, b)
	return nil
}
