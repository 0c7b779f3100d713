// Package capture defines the per-packet unit both capture-file iterators
// (pkg/pcapfile, pkg/pcapng) emit: captured bytes plus the link-type and
// timestamp metadata needed to seed the decode driver.
package capture

import "time"

// LinkType tags the link-layer framing a capture uses, per
// http://www.tcpdump.org/linktypes.html. Only the values this module's
// decoders recognize are named; any other value is carried through
// unmodified and simply fails registry lookup at the decode driver.
type LinkType uint32

const (
	LinkTypeNull     LinkType = 0
	LinkTypeEthernet LinkType = 1
	LinkTypeRaw      LinkType = 101
)

// Timestamp is a capture record's timestamp, normalized to a duration since
// the Unix epoch regardless of the source format's precision (classic pcap
// seconds+microseconds/nanoseconds, or pcap-ng's combined 64-bit tick
// count).
type Timestamp time.Duration

// PerPacketUnit is what a capture-file iterator yields for each record or
// Enhanced Packet Block: the captured bytes and enough metadata to seed the
// decode driver.
type PerPacketUnit struct {
	// Data is the captured bytes (possibly shorter than OriginalLen if the
	// capture snaplen truncated the packet on the wire).
	Data []byte
	// OriginalLen is the packet's length before any capture-time
	// truncation.
	OriginalLen uint32
	// LinkType identifies the link-layer framing of Data, used to seed the
	// decode driver's initial Identifier.
	LinkType LinkType
	// Timestamp is the record's capture timestamp.
	Timestamp Timestamp
	// InterfaceID identifies the capturing interface for pcap-ng captures
	// with more than one Interface Description Block; always 0 for
	// classic pcap files, which carry no per-interface information.
	InterfaceID int
	// InterfaceName and InterfaceDescription are the if_name (option code
	// 2) and if_description (option code 3) values from the Interface
	// Description Block that produced InterfaceID, when present. Always
	// empty for classic pcap files.
	InterfaceName        string
	InterfaceDescription string
}
