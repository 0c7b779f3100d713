// Package pcapdecode is the stable public surface of this module: it
// re-exports the capture-file iterators, the decoder registry/driver, and
// a ready-to-use registry covering every protocol this module decodes, so
// a caller depends on one import path the way the teacher's pkg/common
// anchors its sibling packages.
package pcapdecode

import (
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/capture"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/pcapfile"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/pcapng"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/arp"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/dns"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/ethernet"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/http"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/icmpv4"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/icmpv6"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/ipv4"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/ipv6"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/tcp"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/protocols/udp"
	"go.uber.org/zap"
)

// Re-exported types and constructors so callers need only import this
// package for the common path.
type (
	Config        = decode.Config
	Registry      = decode.Registry
	Driver        = decode.Driver
	DriverOption  = decode.DriverOption
	DecodedPacket = decode.DecodedPacket
	Identifier    = decode.Identifier
	PerPacketUnit = capture.PerPacketUnit
	LinkType      = capture.LinkType
)

var (
	NewRegistry    = decode.NewRegistry
	NewDriver      = decode.NewDriver
	WithLogger     = decode.WithLogger
	DefaultConfig  = decode.DefaultConfig
	LoadConfigYAML = decode.LoadConfigYAML
)

// Well-known link-layer identifiers a caller seeds the Driver with, keyed
// off a PerPacketUnit's LinkType.
var (
	IdentEthernet = decode.IntID(uint32(capture.LinkTypeEthernet))
	IdentRaw      = decode.IntID(uint32(capture.LinkTypeRaw))
)

// DefaultRegistry builds a Registry with every protocol decoder this
// module ships registered under the Identifier its predecessor's
// NextProtocol produces, each at priority 0 (this module registers exactly
// one decoder per identifier; priority only matters once a caller adds a
// second, competing decoder for the same Identifier).
func DefaultRegistry() *Registry {
	r := decode.NewRegistry()

	r.Register(IdentEthernet, 0, ethernet.New())
	// DLT_RAW carries a bare IP datagram with no link-layer framing; this
	// module's capture sources are overwhelmingly IPv4, so raw link type
	// dispatches straight to the IPv4 decoder. An IPv6-over-raw capture
	// would need its own Identifier registered by the caller.
	r.Register(IdentRaw, 0, ipv4.New())

	r.Register(decode.IntID(uint32(0x0806)), 0, arp.New())  // EtherType ARP
	r.Register(decode.IntID(uint32(0x0800)), 0, ipv4.New()) // EtherType IPv4
	r.Register(decode.IntID(uint32(0x86DD)), 0, ipv6.New()) // EtherType IPv6

	r.Register(decode.IntID(1), 0, icmpv4.New())  // IPProtocol ICMPv4
	r.Register(decode.IntID(6), 0, tcp.New())      // IPProtocol TCP
	r.Register(decode.IntID(17), 0, udp.New())     // IPProtocol UDP
	r.Register(decode.IntID(58), 0, icmpv6.New())  // IPProtocol ICMPv6

	r.Register(decode.SymID("dns"), 0, dns.New())
	r.Register(decode.IdentHTTP, 0, http.New())

	return r
}

// IterateClassic returns a pull iterator over a classic pcap byte slice.
func IterateClassic(data []byte, opts ...pcapfile.Option) (*pcapfile.Iterator, error) {
	return pcapfile.New(data, opts...)
}

// IteratePCAPNG returns a pull iterator over a pcap-ng byte slice.
func IteratePCAPNG(data []byte, opts ...pcapng.Option) (*pcapng.Iterator, error) {
	return pcapng.New(data, opts...)
}

// PCAPFileOption and PCAPNGOption alias the iterators' own option types so
// callers configuring logging don't need to import the subpackages
// directly for the common case.
type (
	PCAPFileOption = pcapfile.Option
	PCAPNGOption   = pcapng.Option
)

// WithPCAPFileLogger and WithPCAPNGLogger attach a zap logger to the
// respective iterator constructors.
func WithPCAPFileLogger(logger *zap.Logger) PCAPFileOption { return pcapfile.WithLogger(logger) }
func WithPCAPNGLogger(logger *zap.Logger) PCAPNGOption     { return pcapng.WithLogger(logger) }

// linkTypeIdentifier maps a PerPacketUnit's LinkType to the Identifier a
// Driver should start decoding from.
func linkTypeIdentifier(lt LinkType) (Identifier, bool) {
	switch lt {
	case capture.LinkTypeEthernet:
		return IdentEthernet, true
	case capture.LinkTypeRaw:
		return IdentRaw, true
	default:
		return Identifier{}, false
	}
}

// DecodePacket drives one captured unit through driver starting from the
// Identifier its LinkType implies. It returns a DecodedPacket with a
// single Raw layer if the LinkType is not one this module recognizes,
// rather than erroring outright: an unrecognized link type is still
// useful to a caller as opaque bytes.
func DecodePacket(driver *Driver, unit PerPacketUnit, cfg Config) *DecodedPacket {
	id, ok := linkTypeIdentifier(unit.LinkType)
	if !ok {
		return &DecodedPacket{Layers: []*decode.Layer{{
			Name:         "Raw",
			Bytes:        unit.Data,
			HeaderLength: len(unit.Data),
			Payload:      nil,
			Value:        unit.Data,
		}}}
	}
	return driver.Decode(unit.Data, id, cfg)
}
