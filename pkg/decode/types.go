// Package decode defines the protocol-decoder dispatch pipeline: the
// Decoder trait every protocol package implements, the Identifier sum type
// decoders use to name "what comes next," the Registry that maps an
// Identifier to its candidate decoders, and the Driver that threads a
// packet's bytes through successive decoders.
package decode

import (
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/common"
)

// identKind discriminates the two Identifier variants. Go has no native sum
// types, so Identifier carries its own discriminant alongside both payload
// fields (only one of which is meaningful for a given kind).
type identKind int

const (
	identInt identKind = iota
	identSym
)

// Identifier names a protocol a decoder hands off to: either a numeric
// EtherType/IP-protocol-style code (IntID) or a symbolic name (SymID), for
// decoders with no natural integer space (e.g. "http" dispatched on TCP port
// convention rather than a protocol number). Identifier is a plain
// comparable struct, so it can be used directly as a map key.
type Identifier struct {
	kind identKind
	i    uint32
	s    string
}

// IntID builds an Identifier from a numeric protocol code.
func IntID(v uint32) Identifier { return Identifier{kind: identInt, i: v} }

// SymID builds an Identifier from a symbolic protocol name.
func SymID(name string) Identifier { return Identifier{kind: identSym, s: name} }

func (id Identifier) String() string {
	switch id.kind {
	case identInt:
		return fmt.Sprintf("0x%x", id.i)
	case identSym:
		return id.s
	default:
		return "<invalid identifier>"
	}
}

// IsInt reports whether id was built with IntID, returning its value.
func (id Identifier) IsInt() (uint32, bool) {
	return id.i, id.kind == identInt
}

// IsSym reports whether id was built with SymID, returning its value.
func (id Identifier) IsSym() (string, bool) {
	return id.s, id.kind == identSym
}

// Well-known symbolic identifiers used where no numeric protocol field
// exists to dispatch on.
var (
	IdentHTTP = SymID("http")
)

// Context carries per-packet state threaded through a decode chain: the
// overall byte offset of the current layer's start within the original
// packet (for error reporting) and the decoder-supplied Config.
type Context struct {
	// Offset is the byte offset, within the original packet buffer, at
	// which the slice passed to the current Decode call begins.
	Offset int
	Config Config
	// PseudoHeader is the enclosing IPv4 pseudo-header, forwarded by
	// pkg/protocols/ipv4 via the IPv4 Layer's NextContext so a downstream
	// TCP or UDP decoder can validate its checksum per spec.md §4.F's
	// "IP pseudo-header for a downstream transport-layer checksum" note.
	// Nil when the enclosing layer isn't IPv4, or carried no forwarded
	// context at all.
	PseudoHeader *common.PseudoHeader
	// PseudoHeaderV6 is PseudoHeader's IPv6 counterpart, forwarded by
	// pkg/protocols/ipv6.
	PseudoHeaderV6 *common.PseudoHeaderV6
}

// Layer is the structured output of a single decoder invocation. Bytes and
// Payload alias sub-slices of the original packet buffer (zero-copy);
// Value holds the decoder's concrete parsed type (e.g. *ethernet.Frame).
type Layer struct {
	// Name identifies the protocol this layer represents (e.g. "Ethernet II",
	// "IPv4", "TCP"), for logging and human-readable output.
	Name string
	// Bytes is the full header-plus-payload slice this layer was decoded
	// from.
	Bytes []byte
	// HeaderLength is the number of leading bytes of Bytes that form this
	// layer's own header; len(Bytes) == HeaderLength + len(Payload) always
	// holds.
	HeaderLength int
	// Payload is the remaining bytes handed to the next decoder in the
	// chain, or left as a raw tail if none claims it.
	Payload []byte
	// Value is the decoder's own parsed representation, e.g. *tcp.Segment.
	Value any
	// NextContext, when non-nil, is the Context the Driver forwards as the
	// base for the decoder that handles Payload next, instead of a bare
	// Context carrying only Offset and Config. ipv4 and ipv6 set this to
	// forward a transport-checksum pseudo-header; every other decoder
	// leaves it nil.
	NextContext *Context
}

// Decoder is the protocol-decoder trait every pkg/protocols/* package
// implements. Decode parses buf (the bytes available starting at this
// layer) into a Layer, or returns ErrNotApplicable if buf is structurally
// not this decoder's protocol, or a *perr.Error (kind Structural or
// Bounds) if buf looks like this protocol but is malformed.
//
// NextProtocol inspects an already-decoded Layer and reports the Identifier
// of the protocol that should decode its Payload next, or false if this
// layer is known to be terminal (e.g. HTTP, or ICMP payloads).
type Decoder interface {
	Decode(buf []byte, ctx *Context) (*Layer, error)
	NextProtocol(layer *Layer) (Identifier, bool)
}

// ErrNotApplicable is the sentinel a Decoder returns from Decode when buf
// does not look like its protocol at all, as opposed to looking like it but
// being malformed (which is a *perr.Error instead). The Driver records it
// on the DecodedPacket and stops the chain, as it does for a structural
// error; it does not try another decoder registered for the Identifier.
var ErrNotApplicable = errors.New("decode: not applicable")
