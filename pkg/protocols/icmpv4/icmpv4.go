// Package icmpv4 decodes ICMP for IPv4 (RFC 792): a 4-byte base header
// (type, code, checksum) followed by a type-directed body. Adapted from the
// teacher's pkg/icmp/icmp.go, which only modeled a flat Echo-shaped
// {ID,Sequence,Data} message; expanded per spec.md to the full set of
// type-directed body variants plus checksum validation (the teacher only
// computed a checksum when serializing, never validated one on decode).
package icmpv4

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const baseHeaderLen = 8

// Type identifies an ICMPv4 message type.
type Type uint8

const (
	TypeEchoReply              Type = 0
	TypeDestinationUnreachable Type = 3
	TypeSourceQuench           Type = 4
	TypeRedirect               Type = 5
	TypeEcho                   Type = 8
	TypeRouterAdvertisement    Type = 9
	TypeRouterSolicitation     Type = 10
	TypeTimeExceeded           Type = 11
	TypeParameterProblem       Type = 12
	TypeTimestamp              Type = 13
	TypeTimestampReply         Type = 14
	TypeAddressMaskRequest     Type = 17
	TypeAddressMaskReply       Type = 18
)

// EchoBody carries the identifier/sequence pair and trailing data shared by
// Echo Request and Echo Reply.
type EchoBody struct {
	ID       uint16
	Sequence uint16
	Data     []byte
}

// UnreachableBody carries the optional next-hop MTU (meaningful only for
// code 4, Fragmentation Needed) and the offending datagram's leading bytes.
type UnreachableBody struct {
	NextHopMTU       uint16
	OriginalDatagram []byte
}

// TimeExceededBody carries the offending datagram's leading bytes.
type TimeExceededBody struct {
	OriginalDatagram []byte
}

// RedirectBody carries the suggested gateway and the offending datagram.
type RedirectBody struct {
	GatewayAddress   common.IPv4Address
	OriginalDatagram []byte
}

// ParameterProblemBody carries the byte offset of the offending octet and
// the offending datagram.
type ParameterProblemBody struct {
	Pointer          uint8
	OriginalDatagram []byte
}

// TimestampBody carries the three RFC 792 32-bit millisecond-since-midnight
// timestamps shared by Timestamp Request/Reply.
type TimestampBody struct {
	ID                 uint16
	Sequence           uint16
	OriginateTimestamp uint32
	ReceiveTimestamp   uint32
	TransmitTimestamp  uint32
}

// AddressMaskBody carries the subnet mask shared by Address Mask
// Request/Reply.
type AddressMaskBody struct {
	ID          uint16
	Sequence    uint16
	AddressMask common.IPv4Address
}

// RouterAddressEntry is one advertised router address in a Router
// Advertisement body.
type RouterAddressEntry struct {
	RouterAddress   common.IPv4Address
	PreferenceLevel int32
}

// RouterAdvertisementBody carries the advertised router address entries.
type RouterAdvertisementBody struct {
	Lifetime uint16
	Entries  []RouterAddressEntry
}

// RouterSolicitationBody is empty; Router Solicitation carries only
// reserved bytes.
type RouterSolicitationBody struct{}

// RawBody is the fallback body for unrecognized types: the bytes after the
// base header, uninterpreted.
type RawBody struct {
	Data []byte
}

// Message is the parsed form of an ICMPv4 message. Body holds one of the
// *Body types above, selected by Type.
type Message struct {
	Type          Type
	Code          uint8
	Checksum      uint16
	ChecksumValid bool
	Body          any
}

// Decoder implements decode.Decoder for ICMPv4.
type Decoder struct{}

// New returns an ICMPv4 Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an ICMPv4 message. When ctx is nil or
// ctx.Config.ValidateChecksums is set, it validates the Internet checksum
// (sum of 16-bit big-endian words with end-around carry, expected 0xFFFF or
// equivalently 0 after complementing) per spec.md's §4.I rule. A checksum
// mismatch is a structural error.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < baseHeaderLen {
		return nil, decode.ErrNotApplicable
	}

	msg := &Message{
		Type:     Type(buf[0]),
		Code:     buf[1],
		Checksum: binary.BigEndian.Uint16(buf[2:4]),
	}

	if ctx == nil || ctx.Config.ValidateChecksums {
		msg.ChecksumValid = common.VerifyChecksum(buf)
		if !msg.ChecksumValid {
			return nil, perr.Structural(2, "ICMPv4 checksum mismatch")
		}
	}

	rest := buf[4:8]
	tail := buf[8:]

	switch msg.Type {
	case TypeEcho, TypeEchoReply:
		msg.Body = &EchoBody{
			ID:       binary.BigEndian.Uint16(rest[0:2]),
			Sequence: binary.BigEndian.Uint16(rest[2:4]),
			Data:     tail,
		}
	case TypeDestinationUnreachable:
		msg.Body = &UnreachableBody{
			NextHopMTU:       binary.BigEndian.Uint16(rest[2:4]),
			OriginalDatagram: tail,
		}
	case TypeTimeExceeded, TypeSourceQuench:
		msg.Body = &TimeExceededBody{OriginalDatagram: tail}
	case TypeRedirect:
		var gw common.IPv4Address
		copy(gw[:], rest)
		msg.Body = &RedirectBody{GatewayAddress: gw, OriginalDatagram: tail}
	case TypeParameterProblem:
		msg.Body = &ParameterProblemBody{Pointer: rest[0], OriginalDatagram: tail}
	case TypeTimestamp, TypeTimestampReply:
		if len(tail) < 12 {
			return nil, perr.Structural(8, "ICMPv4 timestamp body too short")
		}
		msg.Body = &TimestampBody{
			ID:                 binary.BigEndian.Uint16(rest[0:2]),
			Sequence:           binary.BigEndian.Uint16(rest[2:4]),
			OriginateTimestamp: binary.BigEndian.Uint32(tail[0:4]),
			ReceiveTimestamp:   binary.BigEndian.Uint32(tail[4:8]),
			TransmitTimestamp:  binary.BigEndian.Uint32(tail[8:12]),
		}
	case TypeAddressMaskRequest, TypeAddressMaskReply:
		if len(tail) < 4 {
			return nil, perr.Structural(8, "ICMPv4 address mask body too short")
		}
		var mask common.IPv4Address
		copy(mask[:], tail[0:4])
		msg.Body = &AddressMaskBody{
			ID:          binary.BigEndian.Uint16(rest[0:2]),
			Sequence:    binary.BigEndian.Uint16(rest[2:4]),
			AddressMask: mask,
		}
	case TypeRouterAdvertisement:
		body, err := parseRouterAdvertisement(rest, tail)
		if err != nil {
			return nil, err
		}
		msg.Body = body
	case TypeRouterSolicitation:
		msg.Body = &RouterSolicitationBody{}
	default:
		msg.Body = &RawBody{Data: tail}
	}

	return &decode.Layer{
		Name:         "ICMPv4",
		Bytes:        buf,
		HeaderLength: len(buf),
		Payload:      nil,
		Value:        msg,
	}, nil
}

func parseRouterAdvertisement(rest, tail []byte) (*RouterAdvertisementBody, error) {
	numAddrs := rest[0]
	entrySize := rest[1]
	lifetime := binary.BigEndian.Uint16(rest[2:4])

	if entrySize != 2 {
		return nil, perr.Structuralf(5, "ICMPv4 router advertisement entry size must be 2, got %d", entrySize)
	}
	needed := int(numAddrs) * 8
	if len(tail) < needed {
		return nil, perr.Structuralf(8, "ICMPv4 router advertisement declares %d entries, body too short", numAddrs)
	}

	entries := make([]RouterAddressEntry, 0, numAddrs)
	for i := 0; i < int(numAddrs); i++ {
		off := i * 8
		var addr common.IPv4Address
		copy(addr[:], tail[off:off+4])
		pref := int32(binary.BigEndian.Uint32(tail[off+4 : off+8]))
		entries = append(entries, RouterAddressEntry{RouterAddress: addr, PreferenceLevel: pref})
	}

	return &RouterAdvertisementBody{Lifetime: lifetime, Entries: entries}, nil
}

// NextProtocol reports no successor: ICMPv4 is always a terminal layer.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	return decode.Identifier{}, false
}
