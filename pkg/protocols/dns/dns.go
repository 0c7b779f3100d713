// Package dns decodes DNS messages (RFC 1035): a 12-byte header, four
// variable-length sections, and a name-compression scheme shared across
// question and resource-record names. New package (the teacher repo has no
// DNS support); name decompression is grounded on the legacy net.dns
// decoder's unpackDomainName: label/pointer discrimination via the top two
// bits of each length byte, a pointer-follow counter bounding loop
// protection, and "the byte offset just past the first pointer encountered
// is where the enclosing record resumes" semantics, regardless of how many
// further pointers are chased to resolve the name itself.
package dns

import (
	"encoding/binary"
	"strings"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const headerLength = 12

// Header flag bit layout within the 16-bit flags word.
const (
	flagQR = 1 << 15
	flagAA = 1 << 10
	flagTC = 1 << 9
	flagRD = 1 << 8
	flagRA = 1 << 7
)

// RRType is a DNS resource record type.
type RRType uint16

const (
	TypeA     RRType = 1
	TypeNS    RRType = 2
	TypeCNAME RRType = 5
	TypeSOA   RRType = 6
	TypePTR   RRType = 12
	TypeMX    RRType = 15
	TypeTXT   RRType = 16
	TypeAAAA  RRType = 28
)

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID                  uint16
	QR                  bool
	Opcode              uint8
	AA, TC, RD, RA      bool
	Z                   uint8
	RCODE               uint8
	QDCount             uint16
	ANCount             uint16
	NSCount             uint16
	ARCount             uint16
}

// Question is a single entry in the question section.
type Question struct {
	Name  string
	Type  RRType
	Class uint16
}

// ResourceRecord is a single answer/authority/additional record. RDATA is
// parsed into one of the concrete *Data types below when the type is
// recognized; otherwise Data holds *RawData.
type ResourceRecord struct {
	Name     string
	Type     RRType
	Class    uint16
	TTL      uint32
	RDLength uint16
	Data     any
}

type AData struct{ Address [4]byte }
type AAAAData struct{ Address [16]byte }
type CNAMEData struct{ Name string }
type NSData struct{ Name string }
type PTRData struct{ Name string }
type MXData struct {
	Preference uint16
	Exchange   string
}
type TXTData struct{ Strings []string }
type SOAData struct {
	MName, RName                                  string
	Serial, Refresh, Retry, Expire, MinimumTTL uint32
}
type RawData struct{ Bytes []byte }

// Message is the fully parsed DNS message.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

// Decoder implements decode.Decoder for DNS. DNS has no wire-level
// signature to reject non-DNS buffers on sight, so Decode only returns
// ErrNotApplicable for a buffer too short to hold even the fixed header;
// anything else that fails to parse is a structural or bounds error, since a caller
// only reaches this decoder via the port-based dispatch tcp/udp perform.
type Decoder struct{}

// New returns a DNS Decoder.
func New() *Decoder { return &Decoder{} }

func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < headerLength {
		return nil, decode.ErrNotApplicable
	}

	maxPointerDepth := 10
	if ctx != nil && ctx.Config.MaxDNSPointerDepth > 0 {
		maxPointerDepth = ctx.Config.MaxDNSPointerDepth
	}

	flags := binary.BigEndian.Uint16(buf[2:4])
	hdr := Header{
		ID:      binary.BigEndian.Uint16(buf[0:2]),
		QR:      flags&flagQR != 0,
		Opcode:  uint8((flags >> 11) & 0xF),
		AA:      flags&flagAA != 0,
		TC:      flags&flagTC != 0,
		RD:      flags&flagRD != 0,
		RA:      flags&flagRA != 0,
		Z:       uint8((flags >> 4) & 0x7),
		RCODE:   uint8(flags & 0xF),
		QDCount: binary.BigEndian.Uint16(buf[4:6]),
		ANCount: binary.BigEndian.Uint16(buf[6:8]),
		NSCount: binary.BigEndian.Uint16(buf[8:10]),
		ARCount: binary.BigEndian.Uint16(buf[10:12]),
	}

	p := &parser{msg: buf, maxPointerDepth: maxPointerDepth}
	off := headerLength

	questions := make([]Question, 0, hdr.QDCount)
	for i := 0; i < int(hdr.QDCount); i++ {
		q, next, err := p.question(off)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		off = next
	}

	parseSection := func(count uint16) ([]ResourceRecord, error) {
		rrs := make([]ResourceRecord, 0, count)
		for i := 0; i < int(count); i++ {
			rr, next, err := p.resourceRecord(off)
			if err != nil {
				return nil, err
			}
			rrs = append(rrs, rr)
			off = next
		}
		return rrs, nil
	}

	answers, err := parseSection(hdr.ANCount)
	if err != nil {
		return nil, err
	}
	authorities, err := parseSection(hdr.NSCount)
	if err != nil {
		return nil, err
	}
	additionals, err := parseSection(hdr.ARCount)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Header:      hdr,
		Questions:   questions,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
	}

	return &decode.Layer{
		Name:         "DNS",
		Bytes:        buf[:off],
		HeaderLength: off,
		Payload:      nil,
		Value:        msg,
	}, nil
}

// NextProtocol reports no successor: DNS is always a terminal layer.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	return decode.Identifier{}, false
}

type parser struct {
	msg             []byte
	maxPointerDepth int
}

func (p *parser) question(off int) (Question, int, error) {
	name, next, err := p.name(off)
	if err != nil {
		return Question{}, 0, err
	}
	if next+4 > len(p.msg) {
		return Question{}, 0, perr.Structuralf(next, "DNS question truncated after name %q", name)
	}
	q := Question{
		Name:  name,
		Type:  RRType(binary.BigEndian.Uint16(p.msg[next : next+2])),
		Class: binary.BigEndian.Uint16(p.msg[next+2 : next+4]),
	}
	return q, next + 4, nil
}

func (p *parser) resourceRecord(off int) (ResourceRecord, int, error) {
	name, next, err := p.name(off)
	if err != nil {
		return ResourceRecord{}, 0, err
	}
	if next+10 > len(p.msg) {
		return ResourceRecord{}, 0, perr.Structuralf(next, "DNS resource record truncated after name %q", name)
	}
	rrType := RRType(binary.BigEndian.Uint16(p.msg[next : next+2]))
	class := binary.BigEndian.Uint16(p.msg[next+2 : next+4])
	ttl := binary.BigEndian.Uint32(p.msg[next+4 : next+8])
	rdLength := binary.BigEndian.Uint16(p.msg[next+8 : next+10])
	rdStart := next + 10
	rdEnd := rdStart + int(rdLength)
	if rdEnd > len(p.msg) {
		return ResourceRecord{}, 0, perr.Structuralf(rdStart, "DNS RDATA for %q exceeds message bounds", name)
	}
	rdata := p.msg[rdStart:rdEnd]

	rr := ResourceRecord{Name: name, Type: rrType, Class: class, TTL: ttl, RDLength: rdLength}
	rr.Data = p.parseRData(rrType, rdStart, rdata)
	return rr, rdEnd, nil
}

// parseRData type-directs RDATA parsing, falling back to RawData whenever
// the type is unrecognized or the record is malformed: a single bad record
// should not abort the rest of the message.
func (p *parser) parseRData(t RRType, rdStart int, rdata []byte) any {
	switch t {
	case TypeA:
		if len(rdata) != 4 {
			return &RawData{Bytes: rdata}
		}
		var a AData
		copy(a.Address[:], rdata)
		return &a
	case TypeAAAA:
		if len(rdata) != 16 {
			return &RawData{Bytes: rdata}
		}
		var a AAAAData
		copy(a.Address[:], rdata)
		return &a
	case TypeCNAME:
		name, _, err := p.name(rdStart)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return &CNAMEData{Name: name}
	case TypeNS:
		name, _, err := p.name(rdStart)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return &NSData{Name: name}
	case TypePTR:
		name, _, err := p.name(rdStart)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return &PTRData{Name: name}
	case TypeMX:
		if len(rdata) < 2 {
			return &RawData{Bytes: rdata}
		}
		name, _, err := p.name(rdStart + 2)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return &MXData{Preference: binary.BigEndian.Uint16(rdata[0:2]), Exchange: name}
	case TypeTXT:
		strs, err := parseTXT(rdata)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return &TXTData{Strings: strs}
	case TypeSOA:
		soa, err := p.parseSOA(rdStart, rdata)
		if err != nil {
			return &RawData{Bytes: rdata}
		}
		return soa
	default:
		return &RawData{Bytes: rdata}
	}
}

func parseTXT(rdata []byte) ([]string, error) {
	var strs []string
	i := 0
	for i < len(rdata) {
		n := int(rdata[i])
		i++
		if i+n > len(rdata) {
			return nil, perr.Structural(i, "DNS TXT string length exceeds RDATA")
		}
		strs = append(strs, string(rdata[i:i+n]))
		i += n
	}
	return strs, nil
}

func (p *parser) parseSOA(rdStart int, rdata []byte) (*SOAData, error) {
	mname, next, err := p.name(rdStart)
	if err != nil {
		return nil, err
	}
	rname, next, err := p.name(next)
	if err != nil {
		return nil, err
	}
	rdEnd := rdStart + len(rdata)
	if next+20 > rdEnd {
		return nil, perr.Structural(next, "DNS SOA record truncated")
	}
	return &SOAData{
		MName:      mname,
		RName:      rname,
		Serial:     binary.BigEndian.Uint32(p.msg[next : next+4]),
		Refresh:    binary.BigEndian.Uint32(p.msg[next+4 : next+8]),
		Retry:      binary.BigEndian.Uint32(p.msg[next+8 : next+12]),
		Expire:     binary.BigEndian.Uint32(p.msg[next+12 : next+16]),
		MinimumTTL: binary.BigEndian.Uint32(p.msg[next+16 : next+20]),
	}, nil
}

// maxNameWireLength is the RFC 1035 §3.1 bound on a domain name's on-wire
// length: the sum of every label's length octet plus its bytes, plus the
// terminating zero octet, must not exceed 255.
const maxNameWireLength = 255

// name decodes a (possibly compressed) domain name starting at off, per the
// pointer/label discrimination in the top two bits of each length byte.
// The returned offset advances only past the name's in-record
// representation: literal labels plus a terminating zero byte, or a single
// 2-byte pointer the first time one is followed. Jumping to a pointer
// target never changes what the caller resumes reading after. wireLength
// accumulates the name's decompressed on-wire length (length octets plus
// label bytes plus the terminating zero) regardless of how many pointers
// were followed to assemble it, and is rejected past 255 octets per
// spec.md's DNS name invariant.
func (p *parser) name(off int) (string, int, error) {
	var labels []string
	cursor := off
	firstPointerEnd := -1
	pointers := 0
	wireLength := 0

	for {
		if cursor >= len(p.msg) {
			return "", 0, perr.Bounds(cursor, "DNS name read past end of message")
		}
		c := p.msg[cursor]
		switch {
		case c == 0:
			wireLength++
			if wireLength > maxNameWireLength {
				return "", 0, perr.Structuralf(cursor, "DNS name exceeds maximum length of %d octets", maxNameWireLength)
			}
			cursor++
			if firstPointerEnd >= 0 {
				cursor = firstPointerEnd
			}
			return strings.Join(labels, "."), cursor, nil
		case c&0xC0 == 0xC0:
			if cursor+1 >= len(p.msg) {
				return "", 0, perr.Bounds(cursor, "DNS name pointer truncated")
			}
			pointers++
			if pointers > p.maxPointerDepth {
				return "", 0, perr.Structural(cursor, "DNS name exceeds maximum compression pointer depth")
			}
			target := int(c&0x3F)<<8 | int(p.msg[cursor+1])
			if firstPointerEnd < 0 {
				firstPointerEnd = cursor + 2
			}
			cursor = target
		case c&0xC0 == 0x00:
			length := int(c)
			cursor++
			if cursor+length > len(p.msg) {
				return "", 0, perr.Bounds(cursor, "DNS name label exceeds message bounds")
			}
			wireLength += 1 + length
			if wireLength > maxNameWireLength {
				return "", 0, perr.Structuralf(cursor, "DNS name exceeds maximum length of %d octets", maxNameWireLength)
			}
			labels = append(labels, string(p.msg[cursor:cursor+length]))
			cursor += length
		default:
			return "", 0, perr.Structural(cursor, "DNS name label uses a reserved length-byte prefix")
		}
	}
}
