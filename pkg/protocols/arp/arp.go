// Package arp decodes Address Resolution Protocol packets (RFC 826): an
// 8-byte fixed header (hardware type, protocol type, address lengths,
// opcode) followed by four variable-length addresses whose lengths the
// header itself declares. Adapted from the teacher's pkg/arp/packet.go,
// which only supported the Ethernet/IPv4 combination; generalized per
// spec.md's rule to render any other hardware/protocol type combination as
// raw hex instead of rejecting it.
package arp

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const headerLen = 8

const (
	hardwareTypeEthernet = 1
	protocolTypeIPv4     = 0x0800
)

// Operation identifies an ARP opcode.
type Operation uint16

const (
	OperationRequest Operation = 1
	OperationReply   Operation = 2
)

func (op Operation) String() string {
	switch op {
	case OperationRequest:
		return "Request"
	case OperationReply:
		return "Reply"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(op))
	}
}

// Packet is the parsed form of an ARP packet. Sender/Target addresses are
// kept as raw bytes plus the declared type/length that governs how to
// render them; use SenderHWString/SenderProtoString etc. for the
// MAC/IPv4/hex rendering spec.md requires.
type Packet struct {
	HardwareType   uint16
	ProtocolType   uint16
	HardwareLength uint8
	ProtocolLength uint8
	Operation      Operation
	SenderHW       []byte
	SenderProto    []byte
	TargetHW       []byte
	TargetProto    []byte
}

// addressString renders addr as a MAC if hwType/length match Ethernet, as
// an IPv4 dotted quad if protoType/length match IPv4, or as colon-hex
// otherwise.
func addressString(typ uint16, wantType uint16, length uint8, wantLength uint8, addr []byte, render func([]byte) string) string {
	if typ == wantType && length == wantLength {
		return render(addr)
	}
	return common.HexString(addr)
}

// SenderHWString renders the sender hardware address per spec.md's
// type-directed rule.
func (p *Packet) SenderHWString() string {
	return addressString(p.HardwareType, hardwareTypeEthernet, p.HardwareLength, 6, p.SenderHW, macString)
}

// SenderProtoString renders the sender protocol address per spec.md's
// type-directed rule.
func (p *Packet) SenderProtoString() string {
	return addressString(p.ProtocolType, protocolTypeIPv4, p.ProtocolLength, 4, p.SenderProto, ipv4String)
}

// TargetHWString renders the target hardware address per spec.md's
// type-directed rule.
func (p *Packet) TargetHWString() string {
	return addressString(p.HardwareType, hardwareTypeEthernet, p.HardwareLength, 6, p.TargetHW, macString)
}

// TargetProtoString renders the target protocol address per spec.md's
// type-directed rule.
func (p *Packet) TargetProtoString() string {
	return addressString(p.ProtocolType, protocolTypeIPv4, p.ProtocolLength, 4, p.TargetProto, ipv4String)
}

func macString(b []byte) string {
	var m common.MACAddress
	copy(m[:], b)
	return m.String()
}

func ipv4String(b []byte) string {
	var ip common.IPv4Address
	copy(ip[:], b)
	return ip.String()
}

func (p *Packet) String() string {
	return fmt.Sprintf("ARP{Op=%s, Sender=%s(%s), Target=%s(%s)}",
		p.Operation, p.SenderProtoString(), p.SenderHWString(), p.TargetProtoString(), p.TargetHWString())
}

// Decoder implements decode.Decoder for ARP packets.
type Decoder struct{}

// New returns an ARP Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an ARP packet.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < headerLen {
		return nil, decode.ErrNotApplicable
	}

	hwType := binary.BigEndian.Uint16(buf[0:2])
	protoType := binary.BigEndian.Uint16(buf[2:4])
	hwLen := buf[4]
	protoLen := buf[5]
	op := Operation(binary.BigEndian.Uint16(buf[6:8]))

	addrBlock := 2 * (int(hwLen) + int(protoLen))
	totalLen := headerLen + addrBlock
	if len(buf) < totalLen {
		return nil, perr.Structuralf(0, "ARP packet declares address lengths %d+%d, needs %d bytes total, have %d",
			hwLen, protoLen, totalLen, len(buf))
	}

	pkt := &Packet{
		HardwareType:   hwType,
		ProtocolType:   protoType,
		HardwareLength: hwLen,
		ProtocolLength: protoLen,
		Operation:      op,
	}

	off := headerLen
	pkt.SenderHW = buf[off : off+int(hwLen)]
	off += int(hwLen)
	pkt.SenderProto = buf[off : off+int(protoLen)]
	off += int(protoLen)
	pkt.TargetHW = buf[off : off+int(hwLen)]
	off += int(hwLen)
	pkt.TargetProto = buf[off : off+int(protoLen)]
	off += int(protoLen)

	return &decode.Layer{
		Name:         "ARP",
		Bytes:        buf[:totalLen],
		HeaderLength: totalLen,
		Payload:      nil,
		Value:        pkt,
	}, nil
}

// NextProtocol returns false: ARP is always a terminal layer.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	return decode.Identifier{}, false
}
