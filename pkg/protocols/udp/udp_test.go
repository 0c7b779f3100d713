package udp

import (
	"encoding/binary"
	"testing"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
)

func buildUDP(srcPort, dstPort uint16, payload []byte) []byte {
	buf := make([]byte, headerLength+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint16(buf[4:6], uint16(headerLength+len(payload)))
	copy(buf[headerLength:], payload)
	return buf
}

func TestDecodeUDP(t *testing.T) {
	buf := buildUDP(51000, 53, []byte{0x01, 0x02, 0x03})
	d := New()
	layer, err := d.Decode(buf, &decode.Context{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	dgram := layer.Value.(*Datagram)
	if dgram.DestinationPort != 53 {
		t.Errorf("DestinationPort = %d, want 53", dgram.DestinationPort)
	}
	if len(layer.Payload) != 3 {
		t.Errorf("len(Payload) = %d, want 3", len(layer.Payload))
	}
	id, ok := d.NextProtocol(layer)
	if !ok || id.String() != "dns" {
		t.Errorf("NextProtocol = %v, %v; want dns", id, ok)
	}
}

func TestDecodeUDPRejectsLengthBelowHeader(t *testing.T) {
	buf := buildUDP(1, 2, nil)
	binary.BigEndian.PutUint16(buf[4:6], 4)
	d := New()
	if _, err := d.Decode(buf, &decode.Context{}); err == nil {
		t.Fatal("expected structural error for length below header size")
	}
}

func TestDecodeUDPRejectsLengthExceedingBuffer(t *testing.T) {
	buf := buildUDP(1, 2, nil)
	binary.BigEndian.PutUint16(buf[4:6], 100)
	d := New()
	if _, err := d.Decode(buf, &decode.Context{}); err == nil {
		t.Fatal("expected structural error for length exceeding buffer")
	}
}

func TestDecodeUDPTooShort(t *testing.T) {
	d := New()
	if _, err := d.Decode(make([]byte, 4), &decode.Context{}); err != decode.ErrNotApplicable {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestNextProtocolTerminalForUnknownPort(t *testing.T) {
	buf := buildUDP(40000, 40001, nil)
	d := New()
	layer, _ := d.Decode(buf, &decode.Context{})
	if _, ok := d.NextProtocol(layer); ok {
		t.Error("expected no successor for unrecognized port")
	}
}
