// Package common holds address types and formatters shared by every
// protocol decoder: MAC, IPv4, and IPv6 addresses, plus the small integer
// enums (EtherType, IPProtocol) decoders dispatch on.
package common

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

// MACAddress represents a 48-bit hardware address.
type MACAddress [6]byte

// String returns the MAC address in canonical colon-separated lowercase hex.
func (m MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast returns true if this is the broadcast MAC (ff:ff:ff:ff:ff:ff).
func (m MACAddress) IsBroadcast() bool {
	return m == BroadcastMAC
}

// IsMulticast returns true if the least significant bit of the first byte is 1.
func (m MACAddress) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// BroadcastMAC is the broadcast MAC address.
var BroadcastMAC = MACAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IPv4Address represents a 32-bit IPv4 address.
type IPv4Address [4]byte

// String returns the address in dotted-quad form (e.g. "192.168.1.1").
func (ip IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

// ToUint32 returns the address as a big-endian uint32.
func (ip IPv4Address) ToUint32() uint32 {
	return binary.BigEndian.Uint32(ip[:])
}

// IPv4FromUint32 builds an address from a big-endian uint32.
func IPv4FromUint32(v uint32) IPv4Address {
	var addr IPv4Address
	binary.BigEndian.PutUint32(addr[:], v)
	return addr
}

// IPv6Address represents a 128-bit IPv6 address.
type IPv6Address [16]byte

// String returns the canonical colon-hex form, using net.IP's compression
// rules (:: for the longest run of zero groups).
func (ip IPv6Address) String() string {
	return net.IP(ip[:]).String()
}

// ParseMAC parses a string MAC address (e.g. "00:11:22:33:44:55").
func ParseMAC(s string) (MACAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MACAddress{}, err
	}
	if len(hw) != 6 {
		return MACAddress{}, fmt.Errorf("invalid MAC address length: %d", len(hw))
	}
	var mac MACAddress
	copy(mac[:], hw)
	return mac, nil
}

// ParseIPv4 parses a dotted-quad string IPv4 address.
func ParseIPv4(s string) (IPv4Address, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return IPv4Address{}, fmt.Errorf("invalid IP address: %s", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return IPv4Address{}, fmt.Errorf("not an IPv4 address: %s", s)
	}
	var addr IPv4Address
	copy(addr[:], ip4)
	return addr, nil
}

// EtherType identifies the protocol carried by an Ethernet II frame.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeIPv6 EtherType = 0x86DD
)

func (et EtherType) String() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(et))
	}
}

// IPProtocol identifies the protocol carried by an IPv4/IPv6 payload.
type IPProtocol uint8

const (
	ProtocolIPv6HopByHop IPProtocol = 0
	ProtocolICMPv4       IPProtocol = 1
	ProtocolTCP          IPProtocol = 6
	ProtocolUDP          IPProtocol = 17
	ProtocolIPv6Route    IPProtocol = 43
	ProtocolIPv6Frag     IPProtocol = 44
	ProtocolICMPv6       IPProtocol = 58
	ProtocolIPv6NoNext   IPProtocol = 59
	ProtocolIPv6Opts     IPProtocol = 60
)

func (p IPProtocol) String() string {
	switch p {
	case ProtocolIPv6HopByHop:
		return "HopByHop"
	case ProtocolICMPv4:
		return "ICMP"
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	case ProtocolIPv6Route:
		return "IPv6-Route"
	case ProtocolIPv6Frag:
		return "IPv6-Frag"
	case ProtocolICMPv6:
		return "ICMPv6"
	case ProtocolIPv6NoNext:
		return "IPv6-NoNextHeader"
	case ProtocolIPv6Opts:
		return "IPv6-DestOpts"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// HexString renders bytes as a colon-separated lowercase hex string, used by
// decoders whose structured rendering falls back to a raw hex dump (ARP
// addresses of an unrecognized hardware/protocol type combination).
func HexString(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
