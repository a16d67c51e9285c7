// Package processor implements the processor interface of §4's data
// model: insertion, scalar indexing, a JSON snapshot, and a Modbus
// input-register view, adapted from the teacher's atomic-counter/
// snapshot pattern (metrics.go). Unlike a device, which is only ever
// driven by the one goroutine polling its transport, a processor can be
// attached to several devices at once (processor{i}.devices, §6) and is
// also read from the HTTP/Modbus view goroutines, so RollingStats guards
// its mutable fields with a mutex rather than relying on single-threaded
// access.
package processor

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/orca-st/sensact/internal/quantity"
	"github.com/orca-st/sensact/internal/sample"
)

// Processor is implemented by every concrete processor kind.
type Processor interface {
	// InsertValue is called on every StampedQuantity delivered by a
	// device this processor is attached to (§4.7).
	InsertValue(sample.Quantity)
	// Name returns the processor's configured identity.
	Name() string
	// Snapshot returns a JSON-marshalable point-in-time view, per §6's
	// GET /processors/{sel} contract.
	Snapshot() any
	// ModbusRegister returns the value of input register index within
	// this processor's Modbus map (§6's [20000, ...) range), and whether
	// index is in range.
	ModbusRegister(index int) (uint16, bool)
}

// Filter restricts a processor to a subset of quantities; a nil or empty
// filter accepts every quantity, per §3's "optional filter set" entity
// description.
type Filter map[quantity.Quantity]bool

// Accepts reports whether q passes the filter.
func (f Filter) Accepts(q quantity.Quantity) bool {
	if len(f) == 0 {
		return true
	}
	return f[q]
}

// StatsSnapshot is the JSON/Modbus-visible state of a RollingStats
// processor.
type StatsSnapshot struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// RollingStats computes trapezoidal-weighted mean and standard deviation
// over a sliding time window of raw samples for one quantity, per §8
// scenario 6: consecutive samples (v[i], t[i]) contribute a representative
// interval value (v[i]+v[i+1])/2 weighted by (t[i+1]-t[i]); mean and
// variance are the weighted mean/variance of those interval values. N
// reports the count of raw samples currently in the window, not the
// interval count.
type RollingStats struct {
	name   string
	filter Filter
	window float64

	mu      sync.Mutex
	samples []sample.Value
	last    StatsSnapshot
	scaler  *quantity.Scaler
}

// NewRollingStats constructs a RollingStats processor over the given
// quantity filter with a window of windowSeconds.
func NewRollingStats(name string, filter Filter, windowSeconds float64) *RollingStats {
	return &RollingStats{name: name, filter: filter, window: windowSeconds, scaler: quantity.NewScaler()}
}

func (p *RollingStats) Name() string { return p.name }

// InsertValue appends the sample if it passes the filter, evicts samples
// older than the window relative to the newest stamp, and recomputes the
// statistics snapshot.
func (p *RollingStats) InsertValue(v sample.Quantity) {
	if !p.filter.Accepts(v.Quantity) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples = append(p.samples, sample.Value{Value: v.Value, Stamp: v.Stamp})

	start := 0
	for start < len(p.samples) && v.Stamp-p.samples[start].Stamp > p.window {
		start++
	}
	if start > 0 {
		p.samples = append(p.samples[:0], p.samples[start:]...)
	}

	p.last = computeStats(p.samples)
}

// computeStats implements the trapezoidal weighted mean/variance
// described on RollingStats.
func computeStats(samples []sample.Value) StatsSnapshot {
	n := len(samples)
	if n == 0 {
		return StatsSnapshot{}
	}
	if n == 1 {
		return StatsSnapshot{N: 1, Mean: samples[0].Value, StdDev: 0}
	}

	type interval struct {
		avg, weight float64
	}
	intervals := make([]interval, 0, n-1)
	totalWeight := 0.0
	for i := 0; i+1 < n; i++ {
		w := samples[i+1].Stamp - samples[i].Stamp
		if w <= 0 {
			continue
		}
		avg := (samples[i].Value + samples[i+1].Value) / 2
		intervals = append(intervals, interval{avg: avg, weight: w})
		totalWeight += w
	}
	if totalWeight == 0 {
		return StatsSnapshot{N: n, Mean: samples[n-1].Value, StdDev: 0}
	}

	mean := 0.0
	for _, iv := range intervals {
		mean += iv.avg * iv.weight
	}
	mean /= totalWeight

	variance := 0.0
	for _, iv := range intervals {
		d := iv.avg - mean
		variance += d * d * iv.weight
	}
	variance /= totalWeight

	return StatsSnapshot{N: n, Mean: mean, StdDev: math.Sqrt(variance)}
}

// Snapshot returns the most recent StatsSnapshot.
func (p *RollingStats) Snapshot() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// ModbusRegister exposes mean at index 0 and stddev at index 1, both
// scaled through the default AX-range scaler (no processor-specific
// scale is defined by §6, so the catalogue default is used); n is not
// exposed as it has no natural fixed-width physical encoding.
func (p *RollingStats) ModbusRegister(index int) (uint16, bool) {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()

	switch index {
	case 0:
		return p.scaler.ScaleTo16(quantity.AX, last.Mean), true
	case 1:
		return p.scaler.ScaleTo16(quantity.AX, last.StdDev), true
	default:
		return 0, false
	}
}

// PutRegisterPair writes a big-endian IEEE-754 double across 4 Modbus
// registers, per §6's "plain map" encoding.
func PutRegisterPair(out []uint16, v float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	for i := 0; i < 4; i++ {
		out[i] = binary.BigEndian.Uint16(buf[i*2 : i*2+2])
	}
}
