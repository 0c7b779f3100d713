// Package pcapfile iterates the classic pcap capture format: a 24-byte
// global header followed by a sequence of 16-byte record headers each
// immediately followed by that record's captured bytes. Grounded on the
// retrieval pack's gopcap parser (magic-number endianness detection,
// global-header layout, per-record length fields) adapted from a
// read-everything-into-memory Parse into a resumable pull iterator that
// skips malformed records instead of aborting.
package pcapfile

import (
	"encoding/binary"
	"time"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/capture"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
	"go.uber.org/zap"
)

const (
	magicMicroseconds uint32 = 0xA1B2C3D4
	magicNanoseconds  uint32 = 0xA1B23C4D
	globalHeaderLen          = 24
	recordHeaderLen          = 16
)

// Iterator pulls successive PerPacketUnits from a classic pcap byte slice.
type Iterator struct {
	data     []byte
	pos      int
	endian   binary.ByteOrder
	nanos    bool
	linkType capture.LinkType
	logger   *zap.Logger
	done     bool
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithLogger attaches a zap logger for per-record warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(it *Iterator) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// New parses data's 24-byte global header and returns an Iterator positioned
// at the first record. It returns a *perr.Error (kind Format) if data is too
// short or its magic number is unrecognized.
func New(data []byte, opts ...Option) (*Iterator, error) {
	if len(data) < globalHeaderLen {
		return nil, perr.Formatf(0, "pcap global header needs %d bytes, have %d", globalHeaderLen, len(data))
	}

	magicBE := binary.BigEndian.Uint32(data[0:4])
	magicLE := binary.LittleEndian.Uint32(data[0:4])

	var endian binary.ByteOrder
	var nanos bool
	switch {
	case magicLE == magicMicroseconds:
		endian, nanos = binary.LittleEndian, false
	case magicLE == magicNanoseconds:
		endian, nanos = binary.LittleEndian, true
	case magicBE == magicMicroseconds:
		endian, nanos = binary.BigEndian, false
	case magicBE == magicNanoseconds:
		endian, nanos = binary.BigEndian, true
	default:
		return nil, perr.Formatf(0, "unrecognized pcap magic number 0x%08x", magicBE)
	}

	linkType := capture.LinkType(endian.Uint32(data[20:24]))

	it := &Iterator{
		data:     data,
		pos:      globalHeaderLen,
		endian:   endian,
		nanos:    nanos,
		linkType: linkType,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it, nil
}

// Next returns the next per-packet unit, or false once the file is
// exhausted. It never returns a partial record: when a record header
// declares more captured bytes than remain in data, it logs a warning and
// ends iteration. No other per-record check is made.
func (it *Iterator) Next() (capture.PerPacketUnit, bool) {
	for !it.done {
		if len(it.data)-it.pos < recordHeaderLen {
			it.done = true
			return capture.PerPacketUnit{}, false
		}

		header := it.data[it.pos : it.pos+recordHeaderLen]
		seconds := it.endian.Uint32(header[0:4])
		subsecond := it.endian.Uint32(header[4:8])
		capturedLen := it.endian.Uint32(header[8:12])
		originalLen := it.endian.Uint32(header[12:16])

		recordStart := it.pos
		dataStart := it.pos + recordHeaderLen
		dataEnd := dataStart + int(capturedLen)

		if dataEnd > len(it.data) {
			it.logger.Warn("pcap record length inconsistent with remaining data, aborting iteration",
				zap.Int("offset", recordStart),
				zap.Uint32("captured_len", capturedLen),
				zap.Int("remaining", len(it.data)-dataStart))
			it.done = true
			return capture.PerPacketUnit{}, false
		}

		it.pos = dataEnd

		unit := capture.PerPacketUnit{
			Data:        it.data[dataStart:dataEnd],
			OriginalLen: originalLen,
			LinkType:    it.linkType,
			Timestamp:   it.recordTimestamp(seconds, subsecond),
		}
		return unit, true
	}
	return capture.PerPacketUnit{}, false
}

func (it *Iterator) recordTimestamp(seconds, subsecond uint32) capture.Timestamp {
	sub := time.Duration(subsecond) * time.Microsecond
	if it.nanos {
		sub = time.Duration(subsecond) * time.Nanosecond
	}
	return capture.Timestamp(time.Duration(seconds)*time.Second + sub)
}

// LinkType returns the link-layer type declared in the global header.
func (it *Iterator) LinkType() capture.LinkType { return it.linkType }
