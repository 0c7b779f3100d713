// Package ethernet decodes Ethernet II frames: the 14-byte fixed header
// (destination MAC, source MAC, EtherType) plus whatever payload follows.
// Adapted from the teacher's pkg/ethernet/frame.go Parse function, wired
// into the decode.Decoder trait and stripped of the serialize/size/string
// helpers that a decode-only pipeline never exercises.
package ethernet

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

// HeaderSize is the size of an Ethernet II header.
const HeaderSize = 14

// Frame is the parsed form of an Ethernet II header.
type Frame struct {
	Destination common.MACAddress
	Source      common.MACAddress
	EtherType   common.EtherType
}

func (f *Frame) String() string {
	return fmt.Sprintf("Ethernet{Dst=%s, Src=%s, Type=%s}", f.Destination, f.Source, f.EtherType)
}

// Decoder implements decode.Decoder for Ethernet II frames.
type Decoder struct{}

// New returns an Ethernet II Decoder.
func New() *Decoder { return &Decoder{} }

// Decode parses buf as an Ethernet II frame. Ethernet is the link-layer
// root of the chain, so a too-short buffer is a structural error rather
// than ErrNotApplicable — there is no "next decoder" to fall back to.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	if len(buf) < HeaderSize {
		return nil, perr.Structuralf(0, "ethernet frame too short: %d bytes, need %d", len(buf), HeaderSize)
	}

	frame := &Frame{}
	copy(frame.Destination[:], buf[0:6])
	copy(frame.Source[:], buf[6:12])
	frame.EtherType = common.EtherType(binary.BigEndian.Uint16(buf[12:14]))

	return &decode.Layer{
		Name:         "Ethernet II",
		Bytes:        buf,
		HeaderLength: HeaderSize,
		Payload:      buf[HeaderSize:],
		Value:        frame,
	}, nil
}

// NextProtocol returns the EtherType as the successor identifier.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	frame := layer.Value.(*Frame)
	return decode.IntID(uint32(frame.EtherType)), true
}
