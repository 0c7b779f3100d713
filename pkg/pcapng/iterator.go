// Package pcapng iterates the pcap-ng (next-generation) capture format: a
// sequence of self-describing blocks (type, total length, body, trailing
// total length) opening with a Section Header Block that fixes the
// section's endianness. Grounded on spec.md §4.E directly (no pcap-ng
// parser exists in the retrieval pack); the option TLV walk is factored
// into pkg/tlv per spec's note that every block type shares it.
package pcapng

import (
	"encoding/binary"
	"time"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/bufreader"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/capture"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/tlv"
	"go.uber.org/zap"
)

const (
	blockTypeSectionHeader    uint32 = 0x0A0D0D0A
	blockTypeInterfaceDesc    uint32 = 0x00000001
	blockTypeObsoletePacket   uint32 = 0x00000002
	blockTypeSimplePacket     uint32 = 0x00000003
	blockTypeNameResolution   uint32 = 0x00000004
	blockTypeInterfaceStats   uint32 = 0x00000005
	blockTypeEnhancedPacket   uint32 = 0x00000006
	blockTypeDecryptSecrets   uint32 = 0x0000000A

	sectionMagic uint32 = 0x1A2B3C4D

	minBlockLen = 12

	optIfTSResol     uint16 = 9
	optIfName        uint16 = 2
	optIfDescription uint16 = 3
)

type interfaceEntry struct {
	linkType capture.LinkType
	snaplen  uint32
	// tsUnit is the duration of one timestamp tick, derived from the
	// if_tsresol option (default: 1 microsecond per the pcap-ng spec).
	tsUnit time.Duration
	// name and description are the if_name/if_description option values
	// (codes 2 and 3) from this interface's Interface Description Block,
	// per spec.md §3's Interface Descriptor data model.
	name        string
	description string
}

// Iterator pulls successive PerPacketUnits from a pcap-ng byte slice,
// tracking the current section's endianness and interface table as it
// walks blocks.
type Iterator struct {
	data       []byte
	pos        int
	endian     binary.ByteOrder
	interfaces []interfaceEntry
	logger     *zap.Logger
	done       bool
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithLogger attaches a zap logger for per-block diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(it *Iterator) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// New returns an Iterator over data, which must open with a Section Header
// Block. It returns a *perr.Error (kind Format) if the opening block is not
// a recognizable Section Header.
func New(data []byte, opts ...Option) (*Iterator, error) {
	it := &Iterator{data: data, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(it)
	}

	if len(data) < minBlockLen+4 {
		return nil, perr.Formatf(0, "pcap-ng section header needs at least %d bytes", minBlockLen+4)
	}

	blockType := binary.LittleEndian.Uint32(data[0:4])
	if blockType != blockTypeSectionHeader {
		blockType = binary.BigEndian.Uint32(data[0:4])
		if blockType != blockTypeSectionHeader {
			return nil, perr.Formatf(0, "first pcap-ng block is not a Section Header")
		}
	}

	magicLE := binary.LittleEndian.Uint32(data[8:12])
	magicBE := binary.BigEndian.Uint32(data[8:12])
	switch sectionMagic {
	case magicLE:
		it.endian = binary.LittleEndian
	case magicBE:
		it.endian = binary.BigEndian
	default:
		return nil, perr.Formatf(8, "unrecognized pcap-ng byte-order magic")
	}

	return it, nil
}

// Next returns the next per-packet unit decoded from an Enhanced Packet
// Block, skipping and logging any block that fails to parse, is of a
// non-packet-bearing type, or names an unknown interface, until data is
// exhausted.
func (it *Iterator) Next() (capture.PerPacketUnit, bool) {
	for !it.done {
		if len(it.data)-it.pos < minBlockLen {
			it.done = true
			return capture.PerPacketUnit{}, false
		}

		blockStart := it.pos
		blockType := it.endian.Uint32(it.data[it.pos : it.pos+4])
		totalLen := it.endian.Uint32(it.data[it.pos+4 : it.pos+8])

		if totalLen < minBlockLen || int(totalLen) > len(it.data)-blockStart {
			it.logger.Warn("pcap-ng block length invalid, resynchronizing",
				zap.Int("offset", blockStart), zap.Uint32("total_length", totalLen))
			it.pos += 4
			continue
		}

		trailing := it.endian.Uint32(it.data[blockStart+int(totalLen)-4 : blockStart+int(totalLen)])
		if trailing != totalLen {
			it.logger.Warn("pcap-ng block leading/trailing length mismatch, skipping",
				zap.Int("offset", blockStart), zap.Uint32("leading", totalLen), zap.Uint32("trailing", trailing))
			it.pos = blockStart + int(totalLen)
			continue
		}

		body := it.data[blockStart+8 : blockStart+int(totalLen)-4]
		nextPos := blockStart + int(totalLen)

		unit, yielded, err := it.dispatch(blockType, body, blockStart)
		it.pos = nextPos
		if err != nil {
			it.logger.Warn("pcap-ng block parse failure, skipping",
				zap.Int("offset", blockStart), zap.Error(err))
			continue
		}
		if yielded {
			return unit, true
		}
	}
	return capture.PerPacketUnit{}, false
}

func (it *Iterator) dispatch(blockType uint32, body []byte, offset int) (capture.PerPacketUnit, bool, error) {
	switch blockType {
	case blockTypeSectionHeader:
		return capture.PerPacketUnit{}, false, it.parseSectionHeader(body)
	case blockTypeInterfaceDesc:
		return capture.PerPacketUnit{}, false, it.parseInterfaceDescription(body)
	case blockTypeEnhancedPacket:
		return it.parseEnhancedPacket(body, offset)
	case blockTypeNameResolution:
		return capture.PerPacketUnit{}, false, it.parseNameResolution(body)
	case blockTypeSimplePacket, blockTypeInterfaceStats, blockTypeObsoletePacket, blockTypeDecryptSecrets:
		return capture.PerPacketUnit{}, false, nil
	default:
		return capture.PerPacketUnit{}, false, nil
	}
}

func (it *Iterator) parseSectionHeader(body []byte) error {
	if len(body) < 16 {
		return perr.Structural(0, "section header body too short")
	}
	magicLE := binary.LittleEndian.Uint32(body[0:4])
	magicBE := binary.BigEndian.Uint32(body[0:4])
	switch sectionMagic {
	case magicLE:
		it.endian = binary.LittleEndian
	case magicBE:
		it.endian = binary.BigEndian
	default:
		return perr.Structural(0, "section header byte-order magic changed to an unrecognized value")
	}
	it.interfaces = nil
	if _, err := tlv.Walk(bufreader.New(body[16:]), endianOf(it.endian)); err != nil {
		return err
	}
	return nil
}

func (it *Iterator) parseInterfaceDescription(body []byte) error {
	if len(body) < 8 {
		return perr.Structural(0, "interface description body too short")
	}
	r := bufreader.New(body)
	rawLinkType, _ := r.ReadUint16(endianOf(it.endian))
	if _, err := r.ReadUint16(endianOf(it.endian)); err != nil { // reserved
		return err
	}
	snaplen, err := r.ReadUint32(endianOf(it.endian))
	if err != nil {
		return err
	}
	opts, err := tlv.Walk(r, endianOf(it.endian))
	if err != nil {
		return err
	}

	tsUnit := time.Microsecond
	if v, ok := tlv.Find(opts, optIfTSResol); ok && len(v) == 1 {
		tsUnit = resolveTSUnit(v[0])
	}

	var name, description string
	if v, ok := tlv.Find(opts, optIfName); ok {
		name = string(v)
	}
	if v, ok := tlv.Find(opts, optIfDescription); ok {
		description = string(v)
	}

	it.interfaces = append(it.interfaces, interfaceEntry{
		linkType:    capture.LinkType(rawLinkType),
		snaplen:     snaplen,
		tsUnit:      tsUnit,
		name:        name,
		description: description,
	})
	return nil
}

// resolveTSUnit interprets the if_tsresol option byte (RFC: high bit set
// means a negative power of 2, otherwise a negative power of 10).
func resolveTSUnit(b byte) time.Duration {
	exp := int(b &^ 0x80)
	if b&0x80 != 0 {
		denom := uint64(1) << uint(exp)
		return time.Second / time.Duration(denom)
	}
	denom := uint64(1)
	for i := 0; i < exp; i++ {
		denom *= 10
	}
	return time.Second / time.Duration(denom)
}

func (it *Iterator) parseEnhancedPacket(body []byte, offset int) (capture.PerPacketUnit, bool, error) {
	if len(body) < 20 {
		return capture.PerPacketUnit{}, false, perr.Structural(offset, "enhanced packet body too short")
	}
	r := bufreader.New(body)
	e := endianOf(it.endian)

	ifaceID, err := r.ReadUint32(e)
	if err != nil {
		return capture.PerPacketUnit{}, false, err
	}
	tsHigh, err := r.ReadUint32(e)
	if err != nil {
		return capture.PerPacketUnit{}, false, err
	}
	tsLow, err := r.ReadUint32(e)
	if err != nil {
		return capture.PerPacketUnit{}, false, err
	}
	capturedLen, err := r.ReadUint32(e)
	if err != nil {
		return capture.PerPacketUnit{}, false, err
	}
	packetLen, err := r.ReadUint32(e)
	if err != nil {
		return capture.PerPacketUnit{}, false, err
	}

	packetData, err := r.ReadBytes(int(capturedLen))
	if err != nil {
		return capture.PerPacketUnit{}, false, perr.Structuralf(offset, "enhanced packet declares captured_len %d beyond block", capturedLen)
	}
	padded := (int(capturedLen) + 3) &^ 3
	if pad := padded - int(capturedLen); pad > 0 {
		if err := r.Skip(pad); err != nil {
			return capture.PerPacketUnit{}, false, err
		}
	}
	if _, err := tlv.Walk(r, e); err != nil {
		return capture.PerPacketUnit{}, false, err
	}

	if int(ifaceID) >= len(it.interfaces) {
		return capture.PerPacketUnit{}, false, perr.Structuralf(offset, "enhanced packet references unknown interface %d", ifaceID)
	}
	iface := it.interfaces[ifaceID]

	tick := (uint64(tsHigh) << 32) | uint64(tsLow)
	ts := capture.Timestamp(time.Duration(tick) * iface.tsUnit)

	unit := capture.PerPacketUnit{
		Data:                 packetData,
		OriginalLen:          packetLen,
		LinkType:             iface.linkType,
		Timestamp:            ts,
		InterfaceID:          int(ifaceID),
		InterfaceName:        iface.name,
		InterfaceDescription: iface.description,
	}
	return unit, true, nil
}

func (it *Iterator) parseNameResolution(body []byte) error {
	r := bufreader.New(body)
	e := endianOf(it.endian)
	for r.Remaining() >= 4 {
		recordType, err := r.ReadUint16(e)
		if err != nil {
			return err
		}
		recordLen, err := r.ReadUint16(e)
		if err != nil {
			return err
		}
		if recordType == 0 && recordLen == 0 {
			break
		}
		if _, err := r.ReadBytes(int(recordLen)); err != nil {
			return perr.Structuralf(0, "name resolution record declares length %d beyond block", recordLen)
		}
		padded := (int(recordLen) + 3) &^ 3
		if pad := padded - int(recordLen); pad > 0 {
			if err := r.Skip(pad); err != nil {
				return err
			}
		}
	}
	_, err := tlv.Walk(r, e)
	return err
}

func endianOf(bo binary.ByteOrder) bufreader.Endian {
	if bo == binary.LittleEndian {
		return bufreader.LittleEndian
	}
	return bufreader.BigEndian
}
