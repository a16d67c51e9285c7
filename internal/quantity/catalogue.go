// Package quantity defines the closed catalogue of physical quantities the
// runtime understands, their wrap policies, and their default scale bounds.
package quantity

import "math"

// Quantity identifies one physical measurement kind. The catalogue is fixed
// at build time; the zero value is UT.
type Quantity int

// The catalogue, in the order it is declared in the original quantities
// table. end is a sentinel, not a real quantity, and marks iteration end.
const (
	UT Quantity = iota // UTC time, seconds since epoch
	LA                 // latitude, rad
	LO                 // longitude, rad
	HG84               // altitude above WGS84 ellipsoid, m
	HMSL               // altitude above mean sea level, m
	VOG                // velocity over ground, m/s
	VTW                // velocity through water, m/s
	HDG                // heading, rad [0, 2pi)
	CRS                // course, rad [0, 2pi)
	MN                 // magnetic variation, rad
	MX
	MY
	MZ // magnetic field components, tesla
	X
	Y
	Z // position components, m
	VX
	VY
	VZ // velocity components, m/s
	AX
	AY
	AZ // acceleration components, m/s^2
	RO // roll, rad
	PI // pitch, rad
	YA // yaw, rad
	Q1
	Q2
	Q3
	Q4 // orientation quaternion
	RR
	PR
	YR // rate of turn components, rad/s
	FAX
	FAY
	FAZ // free acceleration components, m/s^2
	DU  // duration/uptime, s
	HACC
	VACC
	SACC
	CACC
	RACC
	PACC
	YACC
	HDAC // accuracy estimates
	RAX
	RAY
	RAZ // raw acceleration components
	RRR
	RPR
	RYR // raw rate of turn components
	RMX
	RMY
	RMZ // raw magnetic field components
	GTMP
	STMP
	WTMP
	ATMP
	ETMP
	OTMP // temperatures: gyro, sensor, water, air, electronics, other
	VSUP
	ISUP // supply voltage/current
	VSET
	VSIG // set voltage / signal voltage
	FRQ  // frequency
	STS0
	STS1 // device status slots
	MD0
	MD1
	MD2
	MD3 // device mode slots
	CST0
	CST1
	CST2
	CST3
	CST4
	CST5
	CST6
	CST7 // custom slots
	end  // sentinel: not a real quantity
)

// names is the canonical round-trip name table, indexed by Quantity.
var names = [...]string{
	UT: "ut", LA: "la", LO: "lo", HG84: "hg84", HMSL: "hmsl",
	VOG: "vog", VTW: "vtw", HDG: "hdg", CRS: "crs", MN: "mn",
	MX: "mx", MY: "my", MZ: "mz",
	X: "x", Y: "y", Z: "z",
	VX: "vx", VY: "vy", VZ: "vz",
	AX: "ax", AY: "ay", AZ: "az",
	RO: "ro", PI: "pi", YA: "ya",
	Q1: "q1", Q2: "q2", Q3: "q3", Q4: "q4",
	RR: "rr", PR: "pr", YR: "yr",
	FAX: "fax", FAY: "fay", FAZ: "faz",
	DU: "du",
	HACC: "hacc", VACC: "vacc", SACC: "sacc", CACC: "cacc",
	RACC: "racc", PACC: "pacc", YACC: "yacc", HDAC: "hdac",
	RAX: "rax", RAY: "ray", RAZ: "raz",
	RRR: "rrr", RPR: "rpr", RYR: "ryr",
	RMX: "rmx", RMY: "rmy", RMZ: "rmz",
	GTMP: "gtmp", STMP: "stmp", WTMP: "wtmp", ATMP: "atmp", ETMP: "etmp", OTMP: "otmp",
	VSUP: "vsup", ISUP: "isup", VSET: "vset", VSIG: "vsig", FRQ: "frq",
	STS0: "sts0", STS1: "sts1",
	MD0: "md0", MD1: "md1", MD2: "md2", MD3: "md3",
	CST0: "cst0", CST1: "cst1", CST2: "cst2", CST3: "cst3",
	CST4: "cst4", CST5: "cst5", CST6: "cst6", CST7: "cst7",
}

var byName map[string]Quantity

func init() {
	byName = make(map[string]Quantity, int(end))
	for q := Quantity(0); q < end; q++ {
		byName[names[q]] = q
	}
}

// Name returns the canonical short name of q, or "" if q is out of range.
func (q Quantity) Name() string {
	if q < 0 || q >= end {
		return ""
	}
	return names[q]
}

// ByName looks up a Quantity by its canonical name.
func ByName(name string) (Quantity, bool) {
	q, ok := byName[name]
	return q, ok
}

// Count is the number of real quantities in the catalogue.
func Count() int { return int(end) }

// Iter returns every quantity in the catalogue, in declaration order.
func Iter() []Quantity {
	out := make([]Quantity, 0, end)
	for q := Quantity(0); q < end; q++ {
		out = append(out, q)
	}
	return out
}

// WrapPolicy describes how a quantity's values wrap onto a canonical interval.
type WrapPolicy int

const (
	WrapNone      WrapPolicy = iota // no wrapping
	WrapSymmetric                   // wraps into [-pi, pi)
	WrapPositive                    // wraps into [0, 2pi)
)

var wrapPolicies = map[Quantity]WrapPolicy{
	LO: WrapSymmetric, RO: WrapSymmetric, PI: WrapSymmetric, YA: WrapSymmetric,
	HDG: WrapPositive, CRS: WrapPositive,
}

// Policy returns the wrap policy for q (WrapNone if q has none).
func Policy(q Quantity) WrapPolicy {
	return wrapPolicies[q]
}

// Norm reduces v into q's canonical interval per its wrap policy.
// It is idempotent: Norm(q, Norm(q, x)) == Norm(q, x).
func Norm(q Quantity, v float64) float64 {
	switch wrapPolicies[q] {
	case WrapSymmetric:
		for v >= math.Pi {
			v -= 2 * math.Pi
		}
		for v < -math.Pi {
			v += 2 * math.Pi
		}
		return v
	case WrapPositive:
		for v >= 2*math.Pi {
			v -= 2 * math.Pi
		}
		for v < 0 {
			v += 2 * math.Pi
		}
		return v
	default:
		return v
	}
}

// Diff returns the shortest signed difference a - b respecting q's wrap
// policy: for wrapping quantities the result lies in [-pi, pi).
func Diff(q Quantity, a, b float64) float64 {
	result := a - b
	switch wrapPolicies[q] {
	case WrapSymmetric, WrapPositive:
		for result >= math.Pi {
			result -= 2 * math.Pi
		}
		for result < -math.Pi {
			result += 2 * math.Pi
		}
		return result
	default:
		return result
	}
}

// Bounds is the default (min, max) scale bounds for a quantity, sourced
// from the original implementation's def_config_data table.
type Bounds struct {
	Min, Max float64
}

var defaultBounds = map[Quantity]Bounds{
	UT:   {0, 4294967296},
	LA:   {-math.Pi, math.Pi}, LO: {-math.Pi, math.Pi},
	HDG: {0, 2 * math.Pi}, CRS: {0, 2 * math.Pi},
	HG84: {-327.68, 327.68}, HMSL: {-327.68, 327.68},
	AX: {-32.768, 32.768}, AY: {-32.768, 32.768}, AZ: {-32.768, 32.768},
	VX: {-32.768, 32.768}, VY: {-32.768, 32.768}, VZ: {-32.768, 32.768},
	VOG: {-32.768, 32.768}, VTW: {-32.768, 32.768},
	MX: {-0.00032768, 0.00032768}, MY: {-0.00032768, 0.00032768}, MZ: {-0.00032768, 0.00032768},
	MN: {-math.Pi, math.Pi},
	DU: {0, 6553.6},
	RO: {-math.Pi, math.Pi}, PI: {-math.Pi, math.Pi}, YA: {-math.Pi, math.Pi},
	RR: {-math.Pi, math.Pi}, PR: {-math.Pi, math.Pi}, YR: {-math.Pi, math.Pi},
	Q1: {-1, 1}, Q2: {-1, 1}, Q3: {-1, 1}, Q4: {-1, 1},
	FAX: {-32.768, 32.768}, FAY: {-32.768, 32.768}, FAZ: {-32.768, 32.768},
	HACC: {0, 655.36}, VACC: {0, 655.36}, SACC: {0, 655.36}, CACC: {0, 655.36},
	RACC: {0, 655.36}, PACC: {0, 655.36}, YACC: {0, 655.36}, HDAC: {0, 655.36},
	RAX: {-32.768, 32.768}, RAY: {-32.768, 32.768}, RAZ: {-32.768, 32.768},
	RRR: {-math.Pi, math.Pi}, RPR: {-math.Pi, math.Pi}, RYR: {-math.Pi, math.Pi},
	RMX: {-0.00032768, 0.00032768}, RMY: {-0.00032768, 0.00032768}, RMZ: {-0.00032768, 0.00032768},
	GTMP: {0, 655.36}, STMP: {0, 655.36}, WTMP: {0, 655.36}, ATMP: {0, 655.36},
	ETMP: {0, 6553.6}, OTMP: {0, 655.36},
	VSUP: {0, 655.36}, ISUP: {0, 655.36},
	VSET: {-327.68, 327.68}, VSIG: {-327.68, 327.68},
	FRQ: {0, 655360},
	STS0: {0, 65536}, STS1: {0, 65536},
	MD0: {0, 65536}, MD1: {0, 65536}, MD2: {0, 65536}, MD3: {0, 65536},
	CST0: {0, 65536}, CST1: {0, 65536}, CST2: {0, 65536}, CST3: {0, 65536},
	CST4: {0, 65536}, CST5: {0, 65536}, CST6: {0, 65536}, CST7: {0, 65536},
}

// DefaultBounds returns the built-in (min, max) for q, falling back to the
// global default of [-32768, 32768] used by the original config loader for
// any quantity it left unlisted.
func DefaultBounds(q Quantity) Bounds {
	if b, ok := defaultBounds[q]; ok {
		return b
	}
	return Bounds{-32768.0, 32768.0}
}
