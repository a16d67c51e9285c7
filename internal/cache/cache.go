// Package cache implements the per-device sample cache and processor
// fan-out of §4.7: insertion updates the clock when the device is the
// configured time source, pushes into a per-quantity ring, fans out to
// attached processors, and optionally appends a rate-limited device log
// line.
package cache

import (
	"fmt"
	"io"
	"sync"

	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/quantity"
	"github.com/orca-st/sensact/internal/sample"
)

// Processor receives every StampedQuantity inserted into a device's cache.
type Processor interface {
	InsertValue(sample.Quantity)
}

// logFailureLogEvery is the device-log I/O failure suppression interval
// of §4.7/§6: one message per this many consecutive failures.
const logFailureLogEvery = 10000

// Device is one device's cache: a ring per quantity plus its attached
// processors and optional device-log writer.
type Device struct {
	mu sync.Mutex

	rings      map[quantity.Quantity]*sample.Ring
	processors []Processor

	useAsTimeSource bool
	clock           *clock.Clock

	logWriter   io.Writer
	logFailures int
	logger      *logging.Logger
}

// New constructs a Device cache. clk is the process clock this device may
// adjust when useAsTimeSource is true and it reports a "ut" quantity.
func New(clk *clock.Clock, useAsTimeSource bool) *Device {
	return &Device{
		rings:           make(map[quantity.Quantity]*sample.Ring),
		useAsTimeSource: useAsTimeSource,
		clock:           clk,
		logger:          logging.Default(),
	}
}

// AttachProcessor adds p to the set of processors fanned out to on every
// insert.
func (d *Device) AttachProcessor(p Processor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processors = append(d.processors, p)
}

// SetLogWriter enables device-log line appending to w; nil disables it.
func (d *Device) SetLogWriter(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logWriter = w
	d.logFailures = 0
}

// Insert runs the §4.7 insertion algorithm for one StampedQuantity.
func (d *Device) Insert(v sample.Quantity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.useAsTimeSource && v.Quantity == quantity.UT && d.clock != nil {
		d.clock.AdjustDiff(v.Value - v.Stamp)
	}

	ring, ok := d.rings[v.Quantity]
	if !ok {
		ring = sample.NewRing()
		d.rings[v.Quantity] = ring
	}
	ring.Push(sample.Value{Value: v.Value, Stamp: v.Stamp})

	for _, p := range d.processors {
		p.InsertValue(v)
	}

	if d.logWriter != nil {
		line := fmt.Sprintf("%.15f,%s,%v\n", v.Stamp, v.Quantity.Name(), v.Value)
		if _, err := io.WriteString(d.logWriter, line); err != nil {
			d.logFailures++
			if d.logFailures == 1 || d.logFailures%logFailureLogEvery == 0 {
				d.logger.Warn("device log write failed", "failures", d.logFailures, "err", err)
			}
		} else {
			d.logFailures = 0
		}
	}
}

// Ring returns the ring for q, or nil if no value has been inserted for
// that quantity yet.
func (d *Device) Ring(q quantity.Quantity) *sample.Ring {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rings[q]
}

// Quantities returns the set of quantities with a non-empty ring.
func (d *Device) Quantities() []quantity.Quantity {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]quantity.Quantity, 0, len(d.rings))
	for q := range d.rings {
		out = append(out, q)
	}
	return out
}
