package pac

import (
	"encoding/binary"
	"sort"
)

// EDUCATIONAL: PAC (Privilege Attribute Certificate) Structure
//
// The PAC is a binary blob inside Kerberos tickets containing Windows
// authorization data. The container itself is a flat PACTYPE header;
// the element bodies it points at are NDR-encoded.
//
// Top-level structure:
//   PACTYPE {
//       cBuffers: count of PAC_INFO_BUFFER entries
//       Version: always 0
//       Buffers[]: array of PAC_INFO_BUFFER
//   }
//
// Each buffer descriptor is 16 bytes and points at its element data:
//   PAC_INFO_BUFFER {
//       ulType: buffer type (1=LOGON_INFO, 6=SERVER_CKSUM, etc.)
//       cbBufferSize: size of the element data
//       Offset: absolute offset of the data, 8-byte aligned
//   }

// PAC buffer type constants
const (
	LogonInfoType         = 1  // KERB_VALIDATION_INFO
	CredentialsType       = 2  // PAC_CREDENTIAL_INFO
	ServerChecksumType    = 6  // PAC_SERVER_CHECKSUM
	KDCChecksumType       = 7  // PAC_PRIVSVR_CHECKSUM
	ClientInfoType        = 10 // PAC_CLIENT_INFO
	S4UDelegationInfoType = 11 // S4U_DELEGATION_INFO
	UPNDNSInfoType        = 12 // UPN_DNS_INFO
	ClientClaimsType      = 13 // PAC_CLIENT_CLAIMS_INFO
	DeviceInfoType        = 14 // PAC_DEVICE_INFO
	DeviceClaimsType      = 15 // PAC_DEVICE_CLAIMS_INFO
	TicketChecksumType    = 16 // PAC_TICKET_CHECKSUM
	AttributesType        = 17 // PAC_ATTRIBUTES_INFO
	RequestorType         = 18 // PAC_REQUESTOR
)

const (
	pacHeaderSize     = 8
	pacDescriptorSize = 16
)

// Pac represents a complete Privilege Attribute Certificate.
type Pac struct {
	Version uint32
	Buffers []InfoBuffer
}

// InfoBuffer is one PAC_INFO_BUFFER entry together with its decoded
// element. Offset is the element's absolute position in the serialized
// image; leave it zero to have Marshal place the element.
type InfoBuffer struct {
	Type    uint32
	Offset  uint64
	Element Element
}

// AddBuffer appends an element of the given type. The element is
// placed automatically on Marshal.
func (p *Pac) AddBuffer(typeTag uint32, e Element) {
	p.Buffers = append(p.Buffers, InfoBuffer{Type: typeTag, Element: e})
}

// Buffer returns the first buffer with the given type tag, or nil.
func (p *Pac) Buffer(typeTag uint32) *InfoBuffer {
	for i := range p.Buffers {
		if p.Buffers[i].Type == typeTag {
			return &p.Buffers[i]
		}
	}
	return nil
}

// Unmarshal decodes a complete PAC image. Decoding is atomic: on any
// error the receiver is left unchanged.
func (p *Pac) Unmarshal(b []byte) error {
	if len(b) < pacHeaderSize {
		return malformed("PAC truncated: %d bytes", len(b))
	}
	count := binary.LittleEndian.Uint32(b[0:4])
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 0 {
		return malformed("unsupported PAC version %d", version)
	}
	headerEnd := uint64(pacHeaderSize) + uint64(count)*pacDescriptorSize
	if uint64(len(b)) < headerEnd {
		return malformed("PAC truncated: %d buffers declared in %d bytes", count, len(b))
	}

	buffers := make([]InfoBuffer, count)
	for i := uint32(0); i < count; i++ {
		d := b[pacHeaderSize+i*pacDescriptorSize:]
		typeTag := binary.LittleEndian.Uint32(d[0:4])
		size := binary.LittleEndian.Uint32(d[4:8])
		offset := binary.LittleEndian.Uint64(d[8:16])
		if offset > uint64(len(b)) || uint64(len(b))-offset < uint64(size) {
			return malformed("buffer %d (type %d) out of bounds: offset %d size %d in %d bytes",
				i, typeTag, offset, size, len(b))
		}
		e, err := decodeElement(typeTag, b[offset:offset+uint64(size)])
		if err != nil {
			return malformed("buffer %d (type %d): %v", i, typeTag, err)
		}
		buffers[i] = InfoBuffer{Type: typeTag, Offset: offset, Element: e}
	}

	p.Version = version
	p.Buffers = buffers
	return nil
}

// Marshal serializes the PAC: descriptors first, element data after,
// every element at an 8-byte aligned offset, final image padded to a
// multiple of 8.
//
// Buffers with Offset zero are laid out sequentially past the header.
// A preset nonzero Offset is honored as-is, which keeps round-tripped
// images byte-identical; preset offsets must stay aligned and must not
// collide with the header or each other.
func (p *Pac) Marshal() ([]byte, error) {
	if p.Version != 0 {
		return nil, malformed("unsupported PAC version %d", p.Version)
	}

	n := len(p.Buffers)
	raws := make([][]byte, n)
	offsets := make([]uint64, n)
	headerEnd := uint64(pacHeaderSize + n*pacDescriptorSize)

	cursor := headerEnd
	for i := range p.Buffers {
		raw, err := p.Buffers[i].Element.Marshal()
		if err != nil {
			return nil, err
		}
		raws[i] = raw
		if off := p.Buffers[i].Offset; off != 0 {
			offsets[i] = off
			if end := off + uint64(len(raw)); end > cursor {
				cursor = end
			}
			continue
		}
		cursor = align8(cursor)
		offsets[i] = cursor
		cursor += uint64(len(raw))
	}
	total := align8(cursor)

	if err := checkLayout(headerEnd, offsets, raws); err != nil {
		return nil, err
	}

	out := make([]byte, total)
	binary.LittleEndian.PutUint32(out[0:4], uint32(n))
	binary.LittleEndian.PutUint32(out[4:8], p.Version)
	for i := range p.Buffers {
		d := out[pacHeaderSize+i*pacDescriptorSize:]
		binary.LittleEndian.PutUint32(d[0:4], p.Buffers[i].Type)
		binary.LittleEndian.PutUint32(d[4:8], uint32(len(raws[i])))
		binary.LittleEndian.PutUint64(d[8:16], offsets[i])
		copy(out[offsets[i]:], raws[i])
	}
	return out, nil
}

// checkLayout verifies that every element region is 8-byte aligned,
// clear of the descriptor table, and disjoint from the others.
func checkLayout(headerEnd uint64, offsets []uint64, raws [][]byte) error {
	type region struct {
		index int
		start uint64
		end   uint64
	}
	regions := make([]region, len(offsets))
	for i := range offsets {
		if offsets[i]%8 != 0 {
			return malformed("buffer %d offset %d is not 8-byte aligned", i, offsets[i])
		}
		if offsets[i] < headerEnd {
			return malformed("buffer %d offset %d overlaps descriptor table", i, offsets[i])
		}
		regions[i] = region{i, offsets[i], offsets[i] + uint64(len(raws[i]))}
	}
	sort.Slice(regions, func(a, b int) bool { return regions[a].start < regions[b].start })
	for i := 1; i < len(regions); i++ {
		if regions[i].start < regions[i-1].end {
			return malformed("buffer %d overlaps buffer %d", regions[i].index, regions[i-1].index)
		}
	}
	return nil
}

func align8(v uint64) uint64 {
	return (v + 7) &^ 7
}
