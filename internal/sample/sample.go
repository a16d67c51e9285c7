// Package sample defines the stamped value/quantity model and the
// per-(device, quantity) sample ring, grounded on the original
// Stamped_value/Stamped_quantity and Data_queue/Data_map types
// (quantities.h).
package sample

import "github.com/orca-st/sensact/internal/quantity"

// Value is a (value, stamp) pair: stamp is seconds since Unix epoch as
// provided by the Clock.
type Value struct {
	Value float64
	Stamp float64
}

// Quantity is a (value, stamp, quantity) triple.
type Quantity struct {
	Value    float64
	Stamp    float64
	Quantity quantity.Quantity
}

// AsValue drops the quantity tag.
func (q Quantity) AsValue() Value {
	return Value{Value: q.Value, Stamp: q.Stamp}
}
