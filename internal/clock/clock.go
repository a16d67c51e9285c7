// Package clock provides the monotonic, slew-adjusted time source described
// in §4.8. It is a process-wide singleton with initialise-on-first-use
// semantics, grounded on the original's Clock (a global owned by the
// service in the re-architected design, §9).
package clock

import (
	"sync"
	"time"
)

// DefaultAdjustRate is the slew fraction applied by Adjust/AdjustDiff for
// most time sources.
const DefaultAdjustRate = 0.025

// XSensAdjustRate is the slew fraction used when an XSens device is the
// active time source: XSens publishes ut at high frequency, so a much
// gentler rate avoids overshoot (§4.4).
const XSensAdjustRate = 0.0001

// SysTime returns the current wall-clock time in seconds since the Unix
// epoch. Extracted as a variable so tests can stub it deterministically.
var SysTime = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Clock is a monotonic, slew-adjusted wall-clock provider. now() never runs
// backwards and never jumps more than one system-time sample at a time.
type Clock struct {
	mu          sync.Mutex
	value       float64
	offset      float64
	adjustRate  float64
	initialized bool
}

// New constructs a Clock with the default adjust rate and a zero initial
// offset: SysTime already reads wall-clock time, so the first Now() is
// close to true UTC without any correction.
func New() *Clock {
	now := SysTime()
	return &Clock{
		value:       now,
		offset:      0,
		adjustRate:  DefaultAdjustRate,
		initialized: true,
	}
}

// Now recomputes sys_time() + offset and publishes max(previous, candidate).
func (c *Clock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	candidate := SysTime() + c.offset
	if candidate > c.value {
		c.value = candidate
	}
	return c.value
}

// Adjust nudges the offset toward making the clock read target:
// offset += adjust_rate * (target - sys_time_sec()).
func (c *Clock) Adjust(target float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += c.adjustRate * (target - SysTime())
}

// AdjustDiff nudges the offset by adjust_rate * delta.
func (c *Clock) AdjustDiff(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += c.adjustRate * delta
}

// SetAdjustRate stores the slew rate used by future Adjust/AdjustDiff calls.
func (c *Clock) SetAdjustRate(r float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adjustRate = r
}

// AdjustRate returns the currently configured slew rate.
func (c *Clock) AdjustRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adjustRate
}

var (
	defaultOnce  sync.Once
	defaultClock *Clock
)

// Default returns the process-wide Clock singleton, creating it on first use.
func Default() *Clock {
	defaultOnce.Do(func() {
		defaultClock = New()
	})
	return defaultClock
}
