// Package icmpv6 decodes the ICMPv6 4-byte base header (RFC 4443): type,
// code, checksum. The body is opaque to this core per spec.md — Neighbor
// Discovery, MLD, and the rest of the ICMPv6 message zoo are exposed as raw
// bytes rather than parsed. New package grounded on icmpv4's decoder
// structure (same 4-byte header shape) rather than any teacher source,
// since the teacher repo has no ICMPv6 support at all.
package icmpv6

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

const headerLen = 4

// Message is the parsed form of an ICMPv6 message: its fixed header plus
// the opaque remainder.
type Message struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	Body     []byte
	// ChecksumValid is only meaningful when ctx.Config.ValidateChecksums
	// was set and Context carried an enclosing IPv6 pseudo-header.
	ChecksumValid bool
}

// Decoder implements decode.Decoder for ICMPv6.
type Decoder struct{}

// New returns an ICMPv6 Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an ICMPv6 message. Unlike ICMPv4, ICMPv6's checksum
// (RFC 4443 §2.3) is computed over an IPv6 pseudo-header, so validation
// only runs when Context carries one, forwarded by the ipv6 decoder via
// Layer.NextContext (spec.md §4.F).
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < headerLen {
		return nil, decode.ErrNotApplicable
	}

	msg := &Message{
		Type:     buf[0],
		Code:     buf[1],
		Checksum: binary.BigEndian.Uint16(buf[2:4]),
		Body:     buf[headerLen:],
	}

	if ctx != nil && ctx.Config.ValidateChecksums && ctx.PseudoHeaderV6 != nil {
		ph := *ctx.PseudoHeaderV6
		ph.Length = uint32(len(buf))
		msg.ChecksumValid = common.VerifyChecksumWithPseudoHeaderV6(ph, buf)
		if !msg.ChecksumValid {
			return nil, perr.Structural(2, "ICMPv6 checksum mismatch")
		}
	}

	return &decode.Layer{
		Name:         "ICMPv6",
		Bytes:        buf,
		HeaderLength: len(buf),
		Payload:      nil,
		Value:        msg,
	}, nil
}

// NextProtocol reports no successor: ICMPv6 is always a terminal layer.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	return decode.Identifier{}, false
}
