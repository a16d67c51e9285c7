package lineparser

import (
	"context"

	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/sample"
)

// Sink receives decoded samples, typically a device's cache insert path
// (§4.7).
type Sink interface {
	Insert(sample.Quantity)
}

// Protocol implements device.Protocol for text/NMEA-style line devices:
// no command handshake, just a continuous byte stream fed through a
// Scanner.
type Protocol struct {
	Sink    Sink
	scanner *Scanner
}

// NewProtocol constructs a line-protocol device.Protocol over filters,
// delivering decoded samples to sink.
func NewProtocol(filters []*Filter, sink Sink) *Protocol {
	return &Protocol{Sink: sink, scanner: NewScanner(filters)}
}

// Initialize is a no-op: line-oriented text devices have no handshake.
func (p *Protocol) Initialize(context.Context, *device.Engine) error { return nil }

// ChunkSize returns 0, selecting the engine default.
func (p *Protocol) ChunkSize() int { return 0 }

// HandleData feeds the raw chunk through the scanner and dispatches every
// decoded sample to the sink.
func (p *Protocol) HandleData(stamp float64, data []byte) {
	for _, s := range p.scanner.Feed(string(data), stamp) {
		if p.Sink != nil {
			p.Sink.Insert(sample.Quantity{Value: s.Value, Stamp: s.Stamp, Quantity: s.Quantity})
		}
	}
}
