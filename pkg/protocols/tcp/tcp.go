// Package tcp decodes TCP segments (RFC 793, RFC 3168 ECN, RFC 3540 nonce
// sum). Adapted from the teacher's pkg/tcp/packet.go: the field layout,
// DataOffset validation, and options handling are kept; the teacher's
// 8-bit Flags is expanded to a 9-bit flag set by pulling the NS bit out of
// the low bit of the reserved nibble that sits alongside DataOffset in
// byte 12, since the teacher's Segment predates ECN-nonce support.
package tcp

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const (
	minHeaderLength = 20
	maxHeaderLength = 60
)

// Flags bit values. NS is the ECN-nonce concealment protection bit
// (RFC 3540); the teacher's Flags field never carried it.
const (
	FlagFIN uint16 = 1 << 0
	FlagSYN uint16 = 1 << 1
	FlagRST uint16 = 1 << 2
	FlagPSH uint16 = 1 << 3
	FlagACK uint16 = 1 << 4
	FlagURG uint16 = 1 << 5
	FlagECE uint16 = 1 << 6
	FlagCWR uint16 = 1 << 7
	FlagNS  uint16 = 1 << 8
)

// Well-known ports this decoder resolves to an application-layer successor.
// Per the port-based dispatch the TCP/UDP decoders each implement -
// spec.md's "successor belongs to the caller" is satisfied here, inside the
// decoder, rather than by a special case in the driver.
const (
	portDNS  = 53
	portHTTP = 80
)

// Segment is the parsed form of a TCP segment.
type Segment struct {
	SourcePort      uint16
	DestinationPort uint16
	SequenceNumber  uint32
	AckNumber       uint32
	DataOffset      uint8
	Flags           uint16
	WindowSize      uint16
	Checksum        uint16
	UrgentPointer   uint16
	Options         []byte
	// ChecksumValid is only meaningful when ctx.Config.ValidateChecksums
	// was set and Context carried an enclosing IP pseudo-header; it is
	// false (uninterpreted) otherwise.
	ChecksumValid bool
}

// HasFlag reports whether flag is set.
func (s *Segment) HasFlag(flag uint16) bool {
	return s.Flags&flag != 0
}

// Decoder implements decode.Decoder for TCP.
type Decoder struct{}

// New returns a TCP Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as a TCP segment. Checksum validation requires the
// enclosing IP pseudo-header, which this decoder does not compute itself:
// spec.md §4.F has an outer layer forward it via Context, which the ipv4
// and ipv6 decoders do via Layer.NextContext. When ctx carries no
// pseudo-header (e.g. TCP decoded standalone, without an IP layer above
// it), validation is skipped rather than treated as a failure.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < minHeaderLength {
		return nil, decode.ErrNotApplicable
	}

	dataOffsetReserved := buf[12]
	dataOffset := dataOffsetReserved >> 4
	if dataOffset < 5 {
		return nil, perr.Structuralf(12, "TCP data offset %d below minimum 5", dataOffset)
	}

	headerLength := int(dataOffset) * 4
	if headerLength > maxHeaderLength {
		return nil, perr.Structuralf(12, "TCP data offset %d exceeds maximum header length", dataOffset)
	}
	if len(buf) < headerLength {
		return nil, perr.Structuralf(12, "TCP header length %d exceeds available %d bytes", headerLength, len(buf))
	}

	flags := uint16(buf[13])
	if dataOffsetReserved&0x01 != 0 {
		flags |= FlagNS
	}

	seg := &Segment{
		SourcePort:      binary.BigEndian.Uint16(buf[0:2]),
		DestinationPort: binary.BigEndian.Uint16(buf[2:4]),
		SequenceNumber:  binary.BigEndian.Uint32(buf[4:8]),
		AckNumber:       binary.BigEndian.Uint32(buf[8:12]),
		DataOffset:      dataOffset,
		Flags:           flags,
		WindowSize:      binary.BigEndian.Uint16(buf[14:16]),
		Checksum:        binary.BigEndian.Uint16(buf[16:18]),
		UrgentPointer:   binary.BigEndian.Uint16(buf[18:20]),
	}

	if headerLength > minHeaderLength {
		seg.Options = buf[minHeaderLength:headerLength]
	}

	if ctx != nil && ctx.Config.ValidateChecksums {
		switch {
		case ctx.PseudoHeader != nil:
			ph := *ctx.PseudoHeader
			ph.Length = uint16(len(buf))
			seg.ChecksumValid = common.VerifyChecksumWithPseudoHeader(ph, buf)
			if !seg.ChecksumValid {
				return nil, perr.Structural(16, "TCP checksum mismatch")
			}
		case ctx.PseudoHeaderV6 != nil:
			ph := *ctx.PseudoHeaderV6
			ph.Length = uint32(len(buf))
			seg.ChecksumValid = common.VerifyChecksumWithPseudoHeaderV6(ph, buf)
			if !seg.ChecksumValid {
				return nil, perr.Structural(16, "TCP checksum mismatch")
			}
		}
	}

	return &decode.Layer{
		Name:         "TCP",
		Bytes:        buf,
		HeaderLength: headerLength,
		Payload:      buf[headerLength:],
		Value:        seg,
	}, nil
}

// NextProtocol resolves an application-layer successor by well-known port.
// TCP carries no protocol-demultiplexing field of its own; per spec.md this
// dispatch belongs to the caller, implemented here as port inspection.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	seg := layer.Value.(*Segment)
	if seg.SourcePort == portDNS || seg.DestinationPort == portDNS {
		return decode.SymID("dns"), true
	}
	if seg.SourcePort == portHTTP || seg.DestinationPort == portHTTP {
		return decode.IdentHTTP, true
	}
	return decode.Identifier{}, false
}
