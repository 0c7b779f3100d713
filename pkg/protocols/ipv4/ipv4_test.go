package ipv4

import (
	"encoding/binary"
	"testing"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
)

func buildIPv4(payload []byte, proto byte) []byte {
	buf := make([]byte, 20+len(payload))
	buf[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(buf[2:4], uint16(20+len(payload)))
	buf[8] = 64 // TTL
	buf[9] = proto
	copy(buf[12:16], []byte{192, 168, 1, 1})
	copy(buf[16:20], []byte{192, 168, 1, 2})
	copy(buf[20:], payload)
	return buf
}

func TestDecodeIPv4(t *testing.T) {
	buf := buildIPv4([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 17)
	d := New()
	layer, err := d.Decode(buf, &decode.Context{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	pkt := layer.Value.(*Packet)
	if pkt.Source.String() != "192.168.1.1" {
		t.Errorf("Source = %s", pkt.Source)
	}
	if len(layer.Payload) != 4 {
		t.Errorf("Payload length = %d, want 4", len(layer.Payload))
	}
	id, ok := d.NextProtocol(layer)
	if !ok {
		t.Fatal("expected successor")
	}
	if v, _ := id.IsInt(); v != 17 {
		t.Errorf("NextProtocol = %d, want 17", v)
	}
}

func TestDecodeIPv4TruncatesOnShortBuffer(t *testing.T) {
	buf := buildIPv4([]byte{0x01, 0x02, 0x03, 0x04}, 6)
	buf = buf[:22] // declare total_length=24 but only supply 22 bytes

	d := New()
	layer, err := d.Decode(buf, &decode.Context{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	pkt := layer.Value.(*Packet)
	if !pkt.Truncated {
		t.Error("expected Truncated = true")
	}
	if len(layer.Payload) != 2 {
		t.Errorf("Payload length = %d, want 2", len(layer.Payload))
	}
}

func TestDecodeIPv4RejectsBadVersion(t *testing.T) {
	buf := buildIPv4(nil, 6)
	buf[0] = 0x65 // version 6
	d := New()
	if _, err := d.Decode(buf, &decode.Context{}); err != decode.ErrNotApplicable {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestDecodeIPv4RejectsLowIHL(t *testing.T) {
	buf := buildIPv4(nil, 6)
	buf[0] = 0x44 // IHL 4
	d := New()
	if _, err := d.Decode(buf, &decode.Context{}); err == nil {
		t.Fatal("expected structural error for IHL below 5")
	}
}
