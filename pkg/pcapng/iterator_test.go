package pcapng

import (
	"encoding/binary"
	"testing"
)

func appendU32(b []byte, v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return append(b, buf...)
}

func buildBlock(blockType uint32, body []byte) []byte {
	total := uint32(12 + len(body))
	var b []byte
	b = appendU32(b, blockType)
	b = appendU32(b, total)
	b = append(b, body...)
	b = appendU32(b, total)
	return b
}

func buildSectionHeader() []byte {
	body := appendU32(nil, sectionMagic)
	body = append(body, 1, 0, 0, 0) // major=1, minor=0
	body = append(body, make([]byte, 8)...) // section length = -1 unknown... use 0 for simplicity
	body = appendU32(body, 0)               // opt end
	return buildBlock(blockTypeSectionHeader, body)
}

func buildInterfaceDescription(linkType uint16) []byte {
	body := make([]byte, 0, 8)
	lt := make([]byte, 2)
	binary.LittleEndian.PutUint16(lt, linkType)
	body = append(body, lt...)
	body = append(body, 0, 0) // reserved
	body = appendU32(body, 65535)
	body = appendU32(body, 0) // opt end
	return buildBlock(blockTypeInterfaceDesc, body)
}

func buildInterfaceDescriptionWithName(linkType uint16, name, description string) []byte {
	body := make([]byte, 0, 8)
	lt := make([]byte, 2)
	binary.LittleEndian.PutUint16(lt, linkType)
	body = append(body, lt...)
	body = append(body, 0, 0) // reserved
	body = appendU32(body, 65535)
	body = appendOption(body, optIfName, []byte(name))
	body = appendOption(body, optIfDescription, []byte(description))
	body = appendU32(body, 0) // opt end
	return buildBlock(blockTypeInterfaceDesc, body)
}

func appendOption(body []byte, code uint16, value []byte) []byte {
	codeLen := make([]byte, 4)
	binary.LittleEndian.PutUint16(codeLen[0:2], code)
	binary.LittleEndian.PutUint16(codeLen[2:4], uint16(len(value)))
	body = append(body, codeLen...)
	body = append(body, value...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}
	return body
}

func buildEnhancedPacket(ifaceID uint32, data []byte) []byte {
	body := appendU32(nil, ifaceID)
	body = appendU32(body, 0) // ts high
	body = appendU32(body, 1) // ts low
	body = appendU32(body, uint32(len(data)))
	body = appendU32(body, uint32(len(data)))
	body = append(body, data...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}
	body = appendU32(body, 0) // opt end
	return buildBlock(blockTypeEnhancedPacket, body)
}

func TestIteratorYieldsEnhancedPackets(t *testing.T) {
	var file []byte
	file = append(file, buildSectionHeader()...)
	file = append(file, buildInterfaceDescription(1)...)
	file = append(file, buildEnhancedPacket(0, []byte{0xAA, 0xBB, 0xCC})...)

	it, err := New(file)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	unit, ok := it.Next()
	if !ok {
		t.Fatal("expected a packet unit")
	}
	if len(unit.Data) != 3 || unit.Data[0] != 0xAA {
		t.Errorf("unit.Data = %v, want [0xAA 0xBB 0xCC]", unit.Data)
	}
	if unit.LinkType != 1 {
		t.Errorf("unit.LinkType = %v, want 1", unit.LinkType)
	}

	if _, ok := it.Next(); ok {
		t.Fatal("expected iteration to end")
	}
}

func TestIteratorSurfacesInterfaceNameAndDescription(t *testing.T) {
	var file []byte
	file = append(file, buildSectionHeader()...)
	file = append(file, buildInterfaceDescriptionWithName(1, "eth0", "primary capture interface")...)
	file = append(file, buildEnhancedPacket(0, []byte{0xAA})...)

	it, err := New(file)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	unit, ok := it.Next()
	if !ok {
		t.Fatal("expected a packet unit")
	}
	if unit.InterfaceName != "eth0" {
		t.Errorf("unit.InterfaceName = %q, want eth0", unit.InterfaceName)
	}
	if unit.InterfaceDescription != "primary capture interface" {
		t.Errorf("unit.InterfaceDescription = %q, want %q", unit.InterfaceDescription, "primary capture interface")
	}
}

func TestIteratorSkipsUnknownInterface(t *testing.T) {
	var file []byte
	file = append(file, buildSectionHeader()...)
	file = append(file, buildEnhancedPacket(5, []byte{0x01})...)

	it, err := New(file)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected no units yielded for unknown interface")
	}
}

func TestIteratorRejectsNonSectionHeaderOpening(t *testing.T) {
	body := appendU32(nil, 1)
	block := buildBlock(blockTypeInterfaceDesc, body)
	if _, err := New(block); err == nil {
		t.Fatal("expected error when first block isn't a Section Header")
	}
}
