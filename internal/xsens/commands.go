package xsens

// MT protocol message IDs (MID), grounded on the canonical command table in
// original_source/src/xsens_impl.h's `namespace command`. Ack MID always
// equals command MID + 1, per §4.4.
const (
	MIDWakeup               = 0x3E
	MIDWakeupAck            = 0x3F
	MIDGotoConfig           = 0x30
	MIDGotoConfigAck        = 0x31
	MIDGotoMeasurement      = 0x10
	MIDGotoMeasurementAck   = 0x11
	MIDReset                = 0x40
	MIDResetAck             = 0x41
	MIDReqDid               = 0x00
	MIDDeviceID             = 0x01
	MIDInitbus              = 0x22
	MIDInitBusResults       = 0x23
	MIDReqProductCode       = 0x1C
	MIDProductCode          = 0x1D
	MIDReqFirmwareRevision  = 0x12
	MIDFirmwareRevision     = 0x13
	MIDSetOptionFlags       = 0x48
	MIDSetOptionFlagsAck    = 0x49
	MIDSetStringOutputType  = 0x8E
	MIDSetStringOutputAck   = 0x8F
	MIDSetFilterProfile     = 0x64
	MIDSetFilterProfileAck  = 0x65
	MIDReqOutputConfig      = 0xC0
	MIDSetOutputConfig      = 0xC0
	MIDSetOutputConfigAck   = 0xC1
	MIDError                = 0x42
	MIDMtData2              = 0x36
)

// Option flag bits for SetOptionFlags, per xsens_impl.h's documented
// meanings.
const (
	OptionEnableAHS                    uint32 = 0x10
	OptionEnableInRunCompassCalibration uint32 = 0x80
	OptionEnableBeidou                 uint32 = 0x04
)

// outputConfigEntry is one (DID, frequency) pair of the canonical
// SetOutputConfiguration table (§4.4/xsens_impl.h).
type outputConfigEntry struct {
	did  uint16
	freq uint16
}

// DefaultOutputConfiguration is the canonical output configuration table:
// UtcTime, Acceleration@100Hz, FreeAcceleration@100Hz, RateOfTurn@100Hz,
// LatLon@10Hz, MagneticField@10Hz, Velocity@10Hz, AltitudeEllipsoid@10Hz,
// AltitudeMsl@10Hz, EulerAngles@10Hz, Quaternion@10Hz.
var DefaultOutputConfiguration = []outputConfigEntry{
	{DIDUtcTime, 0},
	{DIDAcceleration, 100},
	{DIDFreeAcceleration, 100},
	{DIDRateOfTurn, 100},
	{DIDLatLon, 10},
	{DIDMagneticField, 10},
	{DIDVelocityXYZ, 10},
	{DIDAltitudeEllipsoid, 10},
	{DIDAltitudeMsl, 10},
	{DIDEulerAngles, 10},
	{DIDQuaternion, 10},
}

// EncodeOutputConfiguration marshals the output configuration table as a
// sequence of (DID: u16 BE, freq: u16 BE) pairs, the payload of
// SetOutputConfiguration.
func EncodeOutputConfiguration(entries []outputConfigEntry) []byte {
	out := make([]byte, 0, 4*len(entries))
	for _, e := range entries {
		out = append(out, byte(e.did>>8), byte(e.did), byte(e.freq>>8), byte(e.freq))
	}
	return out
}
