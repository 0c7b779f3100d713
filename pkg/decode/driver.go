package decode

import "go.uber.org/zap"

// DecodedPacket is the result of driving a packet through the registry: the
// ordered layers successfully decoded, any error that stopped the chain
// early, and a raw trailing layer for whatever bytes no decoder claimed.
type DecodedPacket struct {
	Layers []*Layer
	// Err is the error (if any) that terminated the chain before reaching
	// a terminal layer or an unknown identifier. A non-nil Err does not
	// mean Layers is empty — decoding up to the failure point is kept.
	Err error
}

// Driver threads a packet's bytes through successive decoders looked up
// from a Registry, per spec component H.
type Driver struct {
	registry *Registry
	logger   *zap.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger attaches a zap logger the Driver uses for per-packet decode
// detail and structural-failure reporting.
func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver builds a Driver dispatching through registry.
func NewDriver(registry *Registry, opts ...DriverOption) *Driver {
	d := &Driver{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode drives bytes through the registry starting from initialID (the
// link-type for a captured packet), per §4.H. It never panics: any decoder
// error stops the chain for this packet and is recorded on the returned
// DecodedPacket, leaving iteration over the rest of a capture file
// unaffected.
func (d *Driver) Decode(bytes []byte, initialID Identifier, cfg Config) *DecodedPacket {
	result := &DecodedPacket{}
	remaining := bytes
	nextID := initialID
	haveNext := true
	var forwarded *Context

	for len(remaining) > 0 && haveNext {
		decoder, ok := d.registry.Get(nextID)
		if !ok {
			d.logger.Debug("no decoder registered", zap.String("identifier", nextID.String()))
			break
		}

		ctx := &Context{Offset: len(bytes) - len(remaining), Config: cfg}
		if forwarded != nil {
			ctx.PseudoHeader = forwarded.PseudoHeader
			ctx.PseudoHeaderV6 = forwarded.PseudoHeaderV6
		}
		layer, err := decoder.Decode(remaining, ctx)
		if err != nil {
			if err == ErrNotApplicable {
				d.logger.Warn("decoder not applicable",
					zap.String("identifier", nextID.String()),
					zap.Int("offset", ctx.Offset))
			} else {
				d.logger.Warn("structural decode error",
					zap.String("identifier", nextID.String()),
					zap.Int("offset", ctx.Offset),
					zap.Error(err))
			}
			result.Err = err
			break
		}

		result.Layers = append(result.Layers, layer)
		d.logger.Debug("decoded layer",
			zap.String("layer", layer.Name),
			zap.Int("header_length", layer.HeaderLength))

		nextID, haveNext = decoder.NextProtocol(layer)
		remaining = layer.Payload
		forwarded = layer.NextContext
	}

	if len(remaining) > 0 {
		result.Layers = append(result.Layers, &Layer{
			Name:         "Raw",
			Bytes:        remaining,
			HeaderLength: len(remaining),
			Payload:      nil,
			Value:        remaining,
		})
	}

	return result
}
