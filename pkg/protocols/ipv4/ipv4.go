// Package ipv4 decodes Internet Protocol version 4 headers (RFC 791):
// version/IHL, DSCP/ECN, total length, identification, flags and fragment
// offset, TTL, protocol, header checksum, addresses, and options.
// Adapted from the teacher's pkg/ip/packet.go Parse function; where the
// teacher rejects a total_length that overruns available bytes outright,
// this decoder instead clips the payload and reports the truncation,
// per spec.md's "log a warning and truncate" rule.
package ipv4

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const (
	version         = 4
	minHeaderLength = 20
)

// Flags represents the 3-bit flags field of an IPv4 header.
type Flags uint8

const (
	FlagReserved      Flags = 1 << 2
	FlagDontFragment  Flags = 1 << 1
	FlagMoreFragments Flags = 1 << 0
)

// Packet is the parsed form of an IPv4 header.
type Packet struct {
	Version        uint8
	IHL            uint8
	DSCP           uint8
	ECN            uint8
	TotalLength    uint16
	Identification uint16
	Flags          Flags
	FragmentOffset uint16
	TTL            uint8
	Protocol       common.IPProtocol
	Checksum       uint16
	Source         common.IPv4Address
	Destination    common.IPv4Address
	Options        []byte
	// Truncated reports whether TotalLength exceeded the bytes actually
	// available, meaning Payload was clipped to what was present rather
	// than to the header's declared total length.
	Truncated bool
}

func (p *Packet) String() string {
	return fmt.Sprintf("IPv4{Src=%s, Dst=%s, Proto=%s, TTL=%d}", p.Source, p.Destination, p.Protocol, p.TTL)
}

// Decoder implements decode.Decoder for IPv4.
type Decoder struct{}

// New returns an IPv4 Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an IPv4 packet.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < minHeaderLength {
		return nil, decode.ErrNotApplicable
	}

	versionIHL := buf[0]
	v := versionIHL >> 4
	ihl := versionIHL & 0x0F

	if v != version {
		return nil, decode.ErrNotApplicable
	}
	if ihl < 5 {
		return nil, perr.Structuralf(0, "IPv4 IHL %d below minimum 5", ihl)
	}

	headerLength := int(ihl) * 4
	if len(buf) < headerLength {
		return nil, perr.Structuralf(0, "IPv4 header declares IHL %d (%d bytes), only %d available", ihl, headerLength, len(buf))
	}

	pkt := &Packet{Version: v, IHL: ihl}
	dscpECN := buf[1]
	pkt.DSCP = dscpECN >> 2
	pkt.ECN = dscpECN & 0x03
	pkt.TotalLength = binary.BigEndian.Uint16(buf[2:4])

	if int(pkt.TotalLength) < headerLength {
		return nil, perr.Structuralf(2, "IPv4 total_length %d below header length %d", pkt.TotalLength, headerLength)
	}

	pkt.Identification = binary.BigEndian.Uint16(buf[4:6])
	flagsFragOffset := binary.BigEndian.Uint16(buf[6:8])
	pkt.Flags = Flags(flagsFragOffset >> 13)
	pkt.FragmentOffset = flagsFragOffset & 0x1FFF
	pkt.TTL = buf[8]
	pkt.Protocol = common.IPProtocol(buf[9])
	pkt.Checksum = binary.BigEndian.Uint16(buf[10:12])
	copy(pkt.Source[:], buf[12:16])
	copy(pkt.Destination[:], buf[16:20])

	if ihl > 5 {
		pkt.Options = buf[20:headerLength]
	}

	wantEnd := int(pkt.TotalLength)
	payloadEnd := wantEnd
	if payloadEnd > len(buf) {
		pkt.Truncated = true
		payloadEnd = len(buf)
	}
	payload := buf[headerLength:payloadEnd]

	return &decode.Layer{
		Name:         "IPv4",
		Bytes:        buf[:payloadEnd],
		HeaderLength: headerLength,
		Payload:      payload,
		Value:        pkt,
		NextContext: &decode.Context{
			PseudoHeader: &common.PseudoHeader{
				SourceAddr:      pkt.Source,
				DestinationAddr: pkt.Destination,
				Protocol:        pkt.Protocol,
				Length:          uint16(len(payload)),
			},
		},
	}, nil
}

// NextProtocol returns the protocol field as the successor identifier.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	pkt := layer.Value.(*Packet)
	return decode.IntID(uint32(pkt.Protocol)), true
}
