package ubx

// UBX class/ID pairs for the configuration and acknowledgement messages of
// §4.5.
const (
	ClassACK = 0x05
	IDAckNak = 0x00
	IDAckAck = 0x01

	ClassCFG   = 0x06
	IDCfgPRT   = 0x00
	IDCfgMSG   = 0x01
	IDCfgRATE  = 0x08
	IDCfgNAV5  = 0x24
	IDCfgPMS   = 0x86
	IDCfgHNR   = 0x5C
	IDCfgGNSS  = 0x3E

	ClassMON   = 0x0A
	IDMonVER   = 0x04

	ClassSEC    = 0x27
	IDSecUniqid = 0x03

	ClassNAV  = 0x01
	IDNavPVT  = 0x07
	IDNavATT  = 0x05

	ClassESF  = 0x10
	IDEsfINS  = 0x15
	IDEsfRAW  = 0x03
)

// DynModel is the CFG-NAV5 dynamic platform model (byte 2 of the payload).
type DynModel byte

const (
	DynPortable   DynModel = 0
	DynStationary DynModel = 2
	DynPedestrian DynModel = 3
	DynAutomotive DynModel = 4
	DynSea        DynModel = 5
	DynAirborne1G DynModel = 6
	DynAirborne2G DynModel = 7
	DynAirborne4G DynModel = 8
	DynWristWatch DynModel = 9
	DynBike       DynModel = 10
)

// GNSSType selects one of the three mutually exclusive secondary GNSS
// constellations alongside GPS+SBAS+QZSS, per §4.5.
type GNSSType int

const (
	GNSSGlonass GNSSType = iota
	GNSSGalileo
	GNSSBeidou
)

// gnssConfigID is the CFG-GNSS per-constellation config block gnssId byte.
const (
	gnssIDGPS     = 0
	gnssIDSBAS    = 1
	gnssIDGalileo = 2
	gnssIDBeidou  = 3
	gnssIDQZSS    = 5
	gnssIDGlonass = 6
)

// BuildCfgNAV5 builds a minimal CFG-NAV5 payload (36 bytes) setting only
// the dynamic model, per §4.5's Options (dyn_model is byte 2).
func BuildCfgNAV5(model DynModel) []byte {
	payload := make([]byte, 36)
	payload[0] = 0x01 // mask: apply dynamic model settings only
	payload[1] = 0x00
	payload[2] = byte(model)
	return payload
}

// BuildCfgGNSS builds a CFG-GNSS payload enabling GPS+SBAS+QZSS plus
// exactly one of Glonass, Galileo, or Beidou, per §4.5's Options.
func BuildCfgGNSS(extra GNSSType) []byte {
	type block struct {
		id           byte
		resTrkMin    byte
		resTrkMax    byte
		enable       bool
	}
	blocks := []block{
		{gnssIDGPS, 8, 16, true},
		{gnssIDSBAS, 1, 3, true},
		{gnssIDQZSS, 0, 3, true},
		{gnssIDGlonass, 8, 14, extra == GNSSGlonass},
		{gnssIDGalileo, 4, 8, extra == GNSSGalileo},
		{gnssIDBeidou, 8, 16, extra == GNSSBeidou},
	}
	payload := make([]byte, 4, 4+8*len(blocks))
	payload[0] = 0x00 // msgVer
	payload[1] = 0x20 // numTrkChHw (placeholder)
	payload[2] = 0x20 // numTrkChUse
	payload[3] = byte(len(blocks))
	for _, b := range blocks {
		enable := byte(0)
		if b.enable {
			enable = 1
		}
		payload = append(payload, b.id, b.resTrkMin, b.resTrkMax, 0, enable, 0, 0, 0)
	}
	return payload
}

// BuildCfgMSG enables periodic output of msgClass/msgID using the 8-byte
// per-port form of CFG-MSG: rate goes in the second port slot and every
// other port slot is 0, per §4.5's list (NAV-PVT, NAV-ATT, ESF-INS,
// ESF-RAW).
func BuildCfgMSG(msgClass, msgID, rate byte) []byte {
	return []byte{msgClass, msgID, 0, rate, 0, 0, 0, 0}
}
