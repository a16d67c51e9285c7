// Package modbusview implements the read-only Modbus/TCP input-register
// view of §6: three address ranges (per-device base map, per-device plain
// map, per-processor map) resolved against the live sample caches and
// processor outputs. The raw Modbus wire framing itself is explicitly out
// of this specification's scope (§1: "assumed to be provided by a
// library"); server.go wires github.com/tbrandon/mbserver for that part.
// This file holds the register-resolution logic, independent of any wire
// library, so it can be exercised directly (§8 scenario 7).
package modbusview

import (
	"encoding/binary"
	"math"

	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/processor"
	"github.com/orca-st/sensact/internal/quantity"
)

// PackedVersion is the semver packed into base-map register 0: major in
// the high byte, minor in the low byte.
const PackedVersion uint16 = (1 << 8) | 0

// Address range boundaries of §6.
const (
	BaseMapStart  = 0
	PlainMapStart = 10000
	ProcMapStart  = 20000
)

// DeviceEntry pairs one device's cache with the scaler used to project
// its quantities onto the base map's u16 registers.
type DeviceEntry struct {
	Cache  *cache.Device
	Scaler *quantity.Scaler
}

// Registers resolves Modbus input-register reads against the current set
// of devices and processors.
type Registers struct {
	Devices    []DeviceEntry
	Processors []processor.Processor
}

// baseMapQuantities is the catalogue slice used for registers 7 and
// beyond: "one register per quantity in catalogue order starting at
// Quantity{4}" (§6), i.e. skipping ut, la, lo, hg84.
func baseMapQuantities() []quantity.Quantity {
	all := quantity.Iter()
	if len(all) <= 4 {
		return nil
	}
	return all[4:]
}

// Read answers one input-register read at unitID/address, per §6's three
// ranges. Unit id 0xFF means "device 0". Unknown unit ids return zero.
func (r *Registers) Read(unitID byte, address uint16) uint16 {
	idx := int(unitID)
	if unitID == 0xFF {
		idx = 0
	}
	switch {
	case address < PlainMapStart:
		return r.readBaseMap(idx, address)
	case address < ProcMapStart:
		return r.readPlainMap(idx, address-PlainMapStart)
	default:
		return r.readProcMap(idx, int(address-ProcMapStart))
	}
}

func (r *Registers) readBaseMap(deviceIdx int, reg uint16) uint16 {
	if deviceIdx < 0 || deviceIdx >= len(r.Devices) {
		return 0
	}
	d := r.Devices[deviceIdx]
	// scaled projects q's latest value onto a register; a quantity with no
	// sample contributes 0.
	scaled := func(q quantity.Quantity) uint16 {
		if d.Cache == nil || d.Cache.Ring(q) == nil {
			return 0
		}
		return d.Scaler.ScaleTo16(q, latestValue(d.Cache, q))
	}

	switch reg {
	case 0:
		return PackedVersion
	case 1, 2:
		ut := latestValue(d.Cache, quantity.UT)
		return u32Halves(uint32(ut), reg-1)
	case 3, 4:
		if reg == 3 {
			return 0
		}
		return scaled(quantity.LA)
	case 5, 6:
		if reg == 5 {
			return 0
		}
		return scaled(quantity.LO)
	default:
		qs := baseMapQuantities()
		i := int(reg) - 7
		if i < 0 || i >= len(qs) {
			return 0
		}
		return scaled(qs[i])
	}
}

// readPlainMap answers the per-device "plain map": each quantity occupies
// 4 registers holding the IEEE-754 double of its most recent value in
// big-endian register order, plus 3 unused registers.
func (r *Registers) readPlainMap(deviceIdx int, offset uint16) uint16 {
	if deviceIdx < 0 || deviceIdx >= len(r.Devices) {
		return 0
	}
	d := r.Devices[deviceIdx]
	qs := quantity.Iter()
	slot := int(offset) / 7
	within := int(offset) % 7
	if slot < 0 || slot >= len(qs) || within >= 4 {
		return 0
	}
	v := latestValue(d.Cache, qs[slot])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	return binary.BigEndian.Uint16(buf[within*2 : within*2+2])
}

func (r *Registers) readProcMap(procIdx int, index int) uint16 {
	if procIdx < 0 || procIdx >= len(r.Processors) {
		return 0
	}
	v, ok := r.Processors[procIdx].ModbusRegister(index)
	if !ok {
		return 0
	}
	return v
}

// latestValue returns the most recent value for q, or 0 if unavailable
// (QuantityNotAvailable, §7: "no register contribution in Modbus").
func latestValue(d *cache.Device, q quantity.Quantity) float64 {
	if d == nil {
		return 0
	}
	ring := d.Ring(q)
	if ring == nil {
		return 0
	}
	v, ok := ring.Back()
	if !ok {
		return 0
	}
	return v.Value
}

// u32Halves splits v into two 16-bit registers and returns half (0 = high,
// 1 = low), per §6's "(high, low)" register-pair convention.
func u32Halves(v uint32, half uint16) uint16 {
	if half == 0 {
		return uint16(v >> 16)
	}
	return uint16(v)
}
