package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainDecoder peels off n header bytes and hands off to next, if set.
type chainDecoder struct {
	name       string
	headerLen  int
	next       Identifier
	haveNext   bool
	applicable bool
	err        error
}

func (c *chainDecoder) Decode(buf []byte, ctx *Context) (*Layer, error) {
	if c.err != nil {
		return nil, c.err
	}
	if !c.applicable {
		return nil, ErrNotApplicable
	}
	if len(buf) < c.headerLen {
		return nil, ErrNotApplicable
	}
	return &Layer{
		Name:         c.name,
		Bytes:        buf,
		HeaderLength: c.headerLen,
		Payload:      buf[c.headerLen:],
	}, nil
}

func (c *chainDecoder) NextProtocol(layer *Layer) (Identifier, bool) {
	return c.next, c.haveNext
}

func TestDriverDecodesChainToTerminal(t *testing.T) {
	r := NewRegistry()
	eth := &chainDecoder{name: "Ethernet II", headerLen: 2, applicable: true, next: IntID(0x0800), haveNext: true}
	ip := &chainDecoder{name: "IPv4", headerLen: 2, applicable: true, haveNext: false}
	r.Register(IntID(1), 0, eth)
	r.Register(IntID(0x0800), 0, ip)

	d := NewDriver(r)
	packet := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	result := d.Decode(packet, IntID(1), DefaultConfig())

	require.NoError(t, result.Err)
	require.Len(t, result.Layers, 2)
	assert.Equal(t, "Ethernet II", result.Layers[0].Name)
	assert.Equal(t, "IPv4", result.Layers[1].Name)
}

func TestDriverAppendsRawTailWhenIdentifierUnknown(t *testing.T) {
	r := NewRegistry()
	eth := &chainDecoder{name: "Ethernet II", headerLen: 2, applicable: true, next: IntID(0x9999), haveNext: true}
	r.Register(IntID(1), 0, eth)

	d := NewDriver(r)
	packet := []byte{0xAA, 0xBB, 0x01, 0x02, 0x03}
	result := d.Decode(packet, IntID(1), DefaultConfig())

	require.NoError(t, result.Err)
	require.Len(t, result.Layers, 2)
	assert.Equal(t, "Raw", result.Layers[1].Name)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, result.Layers[1].Bytes)
}

func TestDriverStopsOnStructuralError(t *testing.T) {
	r := NewRegistry()
	eth := &chainDecoder{name: "Ethernet II", headerLen: 2, applicable: true, next: IntID(6), haveNext: true}
	bad := &chainDecoder{name: "TCP", err: assertStructuralErr}
	r.Register(IntID(1), 0, eth)
	r.Register(IntID(6), 0, bad)

	d := NewDriver(r)
	packet := []byte{0xAA, 0xBB, 0x01, 0x02}
	result := d.Decode(packet, IntID(1), DefaultConfig())

	require.Error(t, result.Err)
	require.Len(t, result.Layers, 2)
	assert.Equal(t, "Ethernet II", result.Layers[0].Name)
}

func TestDriverBreaksWhenNoDecoderRegistered(t *testing.T) {
	r := NewRegistry()
	d := NewDriver(r)
	packet := []byte{0x01, 0x02, 0x03}
	result := d.Decode(packet, IntID(1234), DefaultConfig())

	require.NoError(t, result.Err)
	require.Len(t, result.Layers, 1)
	assert.Equal(t, "Raw", result.Layers[0].Name)
}

var assertStructuralErr = &structuralStub{}

type structuralStub struct{}

func (s *structuralStub) Error() string { return "structural decode error" }
