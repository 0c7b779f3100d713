// Package udp decodes UDP datagrams (RFC 768): an 8-byte fixed header
// (ports, length, checksum) followed by data. Adapted directly from the
// teacher's pkg/udp/packet.go Parse function; layout and length validation
// are unchanged.
package udp

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const headerLength = 8

const (
	portDNS  = 53
	portHTTP = 80
)

// Datagram is the parsed form of a UDP datagram.
type Datagram struct {
	SourcePort      uint16
	DestinationPort uint16
	Length          uint16
	Checksum        uint16
	// ChecksumValid is only meaningful when ctx.Config.ValidateChecksums
	// was set and Context carried an enclosing IP pseudo-header.
	ChecksumValid bool
}

// Decoder implements decode.Decoder for UDP.
type Decoder struct{}

// New returns a UDP Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as a UDP datagram. The length field is validated
// against both its own minimum (the header itself) and the available
// buffer, same as the teacher's Parse.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < headerLength {
		return nil, decode.ErrNotApplicable
	}

	dgram := &Datagram{
		SourcePort:      binary.BigEndian.Uint16(buf[0:2]),
		DestinationPort: binary.BigEndian.Uint16(buf[2:4]),
		Length:          binary.BigEndian.Uint16(buf[4:6]),
		Checksum:        binary.BigEndian.Uint16(buf[6:8]),
	}

	if int(dgram.Length) < headerLength {
		return nil, perr.Structuralf(4, "UDP length %d below minimum %d", dgram.Length, headerLength)
	}
	if int(dgram.Length) > len(buf) {
		return nil, perr.Structuralf(4, "UDP length %d exceeds available %d bytes", dgram.Length, len(buf))
	}

	segment := buf[:dgram.Length]

	// A zero checksum field means "no checksum computed" per RFC 768
	// (valid only over IPv4); it is not a mismatch to validate against.
	if dgram.Checksum != 0 && ctx != nil && ctx.Config.ValidateChecksums {
		switch {
		case ctx.PseudoHeader != nil:
			ph := *ctx.PseudoHeader
			ph.Length = dgram.Length
			dgram.ChecksumValid = common.VerifyChecksumWithPseudoHeader(ph, segment)
			if !dgram.ChecksumValid {
				return nil, perr.Structural(6, "UDP checksum mismatch")
			}
		case ctx.PseudoHeaderV6 != nil:
			ph := *ctx.PseudoHeaderV6
			ph.Length = uint32(dgram.Length)
			dgram.ChecksumValid = common.VerifyChecksumWithPseudoHeaderV6(ph, segment)
			if !dgram.ChecksumValid {
				return nil, perr.Structural(6, "UDP checksum mismatch")
			}
		}
	}

	return &decode.Layer{
		Name:         "UDP",
		Bytes:        segment,
		HeaderLength: headerLength,
		Payload:      buf[headerLength:dgram.Length],
		Value:        dgram,
	}, nil
}

// NextProtocol resolves an application-layer successor by well-known port,
// the same port-dispatch convention tcp.Decoder implements.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	dgram := layer.Value.(*Datagram)
	if dgram.SourcePort == portDNS || dgram.DestinationPort == portDNS {
		return decode.SymID("dns"), true
	}
	if dgram.SourcePort == portHTTP || dgram.DestinationPort == portHTTP {
		return decode.IdentHTTP, true
	}
	return decode.Identifier{}, false
}
