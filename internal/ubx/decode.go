package ubx

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/orca-st/sensact/internal/quantity"
)

// DecodedSample is one quantity value extracted from a NAV/ESF payload.
type DecodedSample struct {
	Quantity quantity.Quantity
	Value    float64
}

func i32(b []byte) int32  { return int32(binary.LittleEndian.Uint32(b)) }
func u32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// decodeNavPVT decodes the position/velocity/time fields of NAV-PVT that
// are stable across firmware revisions (§4.5's Open Question on NAV/ESF
// field layout: only the UTC date/time fields (year..sec, nano) and
// lon/lat/height/hMSL/velN/velE/velD are decoded here; iTOW and the
// remaining flags, accuracy estimates, and DOP are a documented extension
// point, left unparsed).
func decodeNavPVT(payload []byte) []DecodedSample {
	if len(payload) < 92 {
		return nil
	}
	year := binary.LittleEndian.Uint16(payload[4:6])
	month, day := payload[6], payload[7]
	hour, minute, second := payload[8], payload[9], payload[10]
	nano := i32(payload[16:20])
	lon := float64(i32(payload[24:28])) * 1e-7 * math.Pi / 180.0
	lat := float64(i32(payload[28:32])) * 1e-7 * math.Pi / 180.0
	height := float64(i32(payload[32:36])) / 1000.0
	hMSL := float64(i32(payload[36:40])) / 1000.0
	velN := float64(i32(payload[48:52])) / 1000.0
	velE := float64(i32(payload[52:56])) / 1000.0
	velD := float64(i32(payload[56:60])) / 1000.0

	t := time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), int(second), 0, time.UTC)
	stampUT := float64(t.Unix()) + float64(nano)/1e9

	return []DecodedSample{
		{quantity.UT, stampUT},
		{quantity.LA, quantity.Norm(quantity.LA, lat)},
		{quantity.LO, quantity.Norm(quantity.LO, lon)},
		{quantity.HG84, height},
		{quantity.HMSL, hMSL},
		{quantity.VX, velN},
		{quantity.VY, velE},
		{quantity.VZ, velD},
	}
}

// decodeNavATT decodes roll/pitch/heading (1e-5 degree units) from NAV-ATT.
func decodeNavATT(payload []byte) []DecodedSample {
	if len(payload) < 32 {
		return nil
	}
	roll := float64(i32(payload[8:12])) * 1e-5 * math.Pi / 180.0
	pitch := float64(i32(payload[12:16])) * 1e-5 * math.Pi / 180.0
	heading := float64(i32(payload[16:20])) * 1e-5 * math.Pi / 180.0
	return []DecodedSample{
		{quantity.RO, quantity.Norm(quantity.RO, roll)},
		{quantity.PI, quantity.Norm(quantity.PI, pitch)},
		{quantity.YA, quantity.Norm(quantity.YA, heading)},
	}
}

// decodeEsfINS decodes angular rate (1e-3 deg/s) and acceleration
// (1e-2 m/s^2) fields from ESF-INS.
func decodeEsfINS(payload []byte) []DecodedSample {
	if len(payload) < 36 {
		return nil
	}
	xAngRate := float64(i32(payload[12:16])) * 1e-3 * math.Pi / 180.0
	yAngRate := float64(i32(payload[16:20])) * 1e-3 * math.Pi / 180.0
	zAngRate := float64(i32(payload[20:24])) * 1e-3 * math.Pi / 180.0
	xAccel := float64(i32(payload[24:28])) * 1e-2
	yAccel := float64(i32(payload[28:32])) * 1e-2
	zAccel := float64(i32(payload[32:36])) * 1e-2
	return []DecodedSample{
		{quantity.RR, xAngRate},
		{quantity.PR, yAngRate},
		{quantity.YR, zAngRate},
		{quantity.AX, xAccel},
		{quantity.AY, yAccel},
		{quantity.AZ, zAccel},
	}
}

// esfRawDataType values identify the measurement kind in the top byte
// (bits 24-31) of each ESF-RAW record's 32-bit data word, per the u-blox
// interface description.
const (
	esfRawGyroZ    = 5
	esfRawAccelX   = 14
	esfRawAccelY   = 15
	esfRawAccelZ   = 16
	esfRawGyroTemp = 12
	esfRawGyroX    = 13
	esfRawGyroY    = 17
)

// decodeEsfRAW decodes the variable-length list of 8-byte (data:u32,
// sTag:u32) measurement records that follow ESF-RAW's 4-byte reserved
// header. Only the gyro/accelerometer channels are mapped to quantities;
// decoding the remaining data types (temperature, pressure) is a
// documented extension point (§4.5's Open Question on NAV/ESF layout).
func decodeEsfRAW(payload []byte) []DecodedSample {
	if len(payload) < 4 {
		return nil
	}
	var out []DecodedSample
	for i := 4; i+8 <= len(payload); i += 8 {
		data := u32(payload[i : i+4])
		dataType := byte(data >> 24)
		value := int32(data<<8) >> 8 // sign-extend 24-bit two's complement
		switch dataType {
		case esfRawGyroX:
			out = append(out, DecodedSample{quantity.RR, float64(value) * 2000.0 / 8388608.0 * math.Pi / 180.0})
		case esfRawGyroY:
			out = append(out, DecodedSample{quantity.PR, float64(value) * 2000.0 / 8388608.0 * math.Pi / 180.0})
		case esfRawGyroZ:
			out = append(out, DecodedSample{quantity.YR, float64(value) * 2000.0 / 8388608.0 * math.Pi / 180.0})
		case esfRawAccelX:
			out = append(out, DecodedSample{quantity.AX, float64(value) / 1024.0})
		case esfRawAccelY:
			out = append(out, DecodedSample{quantity.AY, float64(value) / 1024.0})
		case esfRawAccelZ:
			out = append(out, DecodedSample{quantity.AZ, float64(value) / 1024.0})
		}
	}
	return out
}
