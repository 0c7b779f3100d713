// Package ipv6 decodes IPv6 headers (RFC 8200): the fixed 40-byte header
// plus the extension header chain (Hop-by-Hop, Routing, Fragment,
// Destination Options) each decoder must walk before reaching the true
// transport-layer successor. Adapted from the teacher's pkg/ipv6/packet.go
// Parse function, which stopped at the fixed header; extension-header
// walking is new, grounded on the (next_header, header_length) convention
// RFC 8200 §4.1 shares across every TLV-style extension header.
package ipv6

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const (
	version      = 6
	HeaderLength = 40
)

// ExtensionHeader is one parsed Hop-by-Hop/Routing/Fragment/Destination
// Options header in the chain.
type ExtensionHeader struct {
	NextHeader common.IPProtocol
	Data       []byte
}

func isExtensionHeader(p common.IPProtocol) bool {
	switch p {
	case common.ProtocolIPv6HopByHop, common.ProtocolIPv6Route, common.ProtocolIPv6Frag, common.ProtocolIPv6Opts:
		return true
	default:
		return false
	}
}

// Packet is the parsed form of an IPv6 header plus its extension chain.
type Packet struct {
	Version      uint8
	TrafficClass uint8
	FlowLabel    uint32
	PayloadLen   uint16
	NextHeader   common.IPProtocol
	HopLimit     uint8
	Source       common.IPv6Address
	Destination  common.IPv6Address
	ExtHeaders   []ExtensionHeader
	// FinalNextHeader is the next-header value that terminated the
	// extension chain — i.e. the successor identifier.
	FinalNextHeader common.IPProtocol
}

func (p *Packet) String() string {
	return fmt.Sprintf("IPv6{%s -> %s, Proto=%s, HopLimit=%d}", p.Source, p.Destination, p.FinalNextHeader, p.HopLimit)
}

// Decoder implements decode.Decoder for IPv6.
type Decoder struct{}

// New returns an IPv6 Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an IPv6 packet, walking its extension header chain.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < HeaderLength {
		return nil, decode.ErrNotApplicable
	}

	versionTCFlow := binary.BigEndian.Uint32(buf[0:4])
	v := uint8(versionTCFlow >> 28)
	if v != version {
		return nil, decode.ErrNotApplicable
	}

	pkt := &Packet{
		Version:      v,
		TrafficClass: uint8((versionTCFlow >> 20) & 0xFF),
		FlowLabel:    versionTCFlow & 0xFFFFF,
		PayloadLen:   binary.BigEndian.Uint16(buf[4:6]),
		NextHeader:   common.IPProtocol(buf[6]),
		HopLimit:     buf[7],
	}
	copy(pkt.Source[:], buf[8:24])
	copy(pkt.Destination[:], buf[24:40])

	payloadEnd := HeaderLength + int(pkt.PayloadLen)
	if payloadEnd > len(buf) {
		return nil, perr.Structuralf(4, "IPv6 payload_length %d exceeds available bytes (%d)", pkt.PayloadLen, len(buf)-HeaderLength)
	}

	cursor := HeaderLength
	nextHeader := pkt.NextHeader
	for isExtensionHeader(nextHeader) {
		if cursor+2 > payloadEnd {
			return nil, perr.Structuralf(cursor, "IPv6 extension header truncated")
		}
		ehNext := common.IPProtocol(buf[cursor])
		ehLenUnits := buf[cursor+1]
		ehLen := (int(ehLenUnits) + 1) * 8
		if cursor+ehLen > payloadEnd {
			return nil, perr.Structuralf(cursor, "IPv6 extension header declares length %d beyond payload", ehLen)
		}
		pkt.ExtHeaders = append(pkt.ExtHeaders, ExtensionHeader{
			NextHeader: ehNext,
			Data:       buf[cursor : cursor+ehLen],
		})
		cursor += ehLen
		nextHeader = ehNext
	}
	pkt.FinalNextHeader = nextHeader

	payload := buf[cursor:payloadEnd]

	return &decode.Layer{
		Name:         "IPv6",
		Bytes:        buf[:payloadEnd],
		HeaderLength: cursor,
		Payload:      payload,
		Value:        pkt,
		NextContext: &decode.Context{
			PseudoHeaderV6: &common.PseudoHeaderV6{
				SourceAddr:      pkt.Source,
				DestinationAddr: pkt.Destination,
				NextHeader:      pkt.FinalNextHeader,
				Length:          uint32(len(payload)),
			},
		},
	}, nil
}

// NextProtocol returns the next-header value that terminated the extension
// chain as the successor identifier.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	pkt := layer.Value.(*Packet)
	return decode.IntID(uint32(pkt.FinalNextHeader)), true
}
