// Package tlv walks the option TLV sequences embedded in pcap-ng blocks:
// Section Header, Interface Description, Enhanced Packet, and Name
// Resolution blocks all end with the same (code:2, length:2, value:length,
// padding-to-4) run terminated by a code-0 sentinel, so the walk is
// factored once here rather than duplicated per block type.
package tlv

import (
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/bufreader"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

// Option is one decoded (code, value) pair from an options TLV run. Value
// aliases the block body buffer (zero-copy), excluding padding.
type Option struct {
	Code  uint16
	Value []byte
}

// EndCode is the sentinel option code (opt_endofopt) terminating a run.
const EndCode uint16 = 0

// Walk reads the options TLV sequence from body, in the given byte order,
// starting at r's current cursor, stopping at the code-0 sentinel or at the
// end of body (some writers omit the terminator when options run to the
// end of the block). It rejects any option whose declared length would
// overrun body.
func Walk(r *bufreader.Reader, endian bufreader.Endian) ([]Option, error) {
	var opts []Option
	for r.Remaining() > 0 {
		if r.Remaining() < 4 {
			// Not enough left for even a code+length pair: treat as an
			// implicit end, matching writers that omit the terminator.
			break
		}
		start := r.Position()
		code, err := r.ReadUint16(endian)
		if err != nil {
			return nil, err
		}
		length, err := r.ReadUint16(endian)
		if err != nil {
			return nil, err
		}
		if code == EndCode {
			return opts, nil
		}
		value, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, perr.Structuralf(start, "option code %d declares length %d beyond containing block", code, length)
		}
		padded := (int(length) + 3) &^ 3
		if pad := padded - int(length); pad > 0 {
			if err := r.Skip(pad); err != nil {
				return nil, perr.Structuralf(start, "option code %d padding runs past containing block", code)
			}
		}
		opts = append(opts, Option{Code: code, Value: value})
	}
	return opts, nil
}

// Find returns the value of the first option with the given code, or false
// if none is present.
func Find(opts []Option, code uint16) ([]byte, bool) {
	for _, o := range opts {
		if o.Code == code {
			return o.Value, true
		}
	}
	return nil, false
}
