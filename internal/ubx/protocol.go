package ubx

import (
	"context"
	"fmt"
	"time"

	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/sample"
)

// Options configures one u-blox receiver instance (§4.5).
type Options struct {
	DynModel DynModel
	GNSS     GNSSType
	// NavRateMs is the measurement period in milliseconds sent via
	// CFG-RATE; 0 leaves the receiver's current rate untouched.
	NavRateMs uint16
}

// Sink receives decoded StampedQuantity samples, typically the device's
// insert path (§4.7).
type Sink interface {
	Insert(sample.Quantity)
}

// Protocol implements device.Protocol for a u-blox receiver: framing,
// checksum verification, NAV/ESF decoding, and the configuration sequence
// of §4.5.
type Protocol struct {
	Options Options
	Sink    Sink

	frame  FrameParser
	logger *logging.Logger
}

// NewProtocol constructs a ubx Protocol delivering decoded samples to
// sink.
func NewProtocol(opts Options, sink Sink) *Protocol {
	return &Protocol{Options: opts, Sink: sink, logger: logging.Default()}
}

// ChunkSize returns 0, meaning "use the engine default" (§4.5 imposes no
// device-specific polling chunk size).
func (p *Protocol) ChunkSize() int { return 0 }

// HandleData feeds raw bytes to the frame parser and dispatches every
// complete, checksum-valid frame's payload to the NAV/ESF decoder.
func (p *Protocol) HandleData(stamp float64, data []byte) {
	p.frame.Feed(data)
	for {
		res, ok := p.frame.Next()
		if !ok {
			return
		}
		if res.ChecksumBad {
			p.logger.Warn("ubx: checksum mismatch, discarding frame")
			continue
		}
		var decoded []DecodedSample
		switch {
		case res.Frame.Class == ClassNAV && res.Frame.ID == IDNavPVT:
			decoded = decodeNavPVT(res.Frame.Payload)
		case res.Frame.Class == ClassNAV && res.Frame.ID == IDNavATT:
			decoded = decodeNavATT(res.Frame.Payload)
		case res.Frame.Class == ClassESF && res.Frame.ID == IDEsfINS:
			decoded = decodeEsfINS(res.Frame.Payload)
		case res.Frame.Class == ClassESF && res.Frame.ID == IDEsfRAW:
			decoded = decodeEsfRAW(res.Frame.Payload)
		default:
			continue
		}
		for _, d := range decoded {
			if p.Sink != nil {
				p.Sink.Insert(sample.Quantity{Value: d.Value, Stamp: stamp, Quantity: d.Quantity})
			}
		}
	}
}

// ackMarkers returns the ACK-ACK / ACK-NAK byte markers exec_command
// watches for; §8 scenario 3: a CFG-PRT sent expecting ACK-ACK (class
// 0x06) that instead receives ACK-NAK must return false without error.
func ackMarkers() (ack, nak []byte) {
	return []byte{Sync1, Sync2, ClassACK, IDAckAck}, []byte{Sync1, Sync2, ClassACK, IDAckNak}
}

// doCfg sends one CFG-* message and waits for ACK-ACK/ACK-NAK.
func doCfg(ctx context.Context, e *device.Engine, id byte, payload []byte) (bool, error) {
	ack, nak := ackMarkers()
	cmd := Encode(ClassCFG, id, payload)
	return e.ExecCommand(ctx, cmd, ack, nak, device.DefaultCommandTimeout)
}

// Initialize runs the configuration sequence of §4.5: request MON-VER,
// request SEC-UNIQID (sets the device id from the 5-byte unique id),
// then apply the dynamic model, GNSS configuration, navigation rate, and
// NAV-PVT/NAV-ATT/ESF-INS/ESF-RAW message enables.
func (p *Protocol) Initialize(ctx context.Context, e *device.Engine) error {
	verAck := []byte{Sync1, Sync2, ClassMON, IDMonVER}
	_, ok, err := e.ExecQuery(ctx, Encode(ClassMON, IDMonVER, nil), verAck, nil,
		device.LengthOffsets{LSOffset: 4, MSOffset: 5}, device.DefaultCommandTimeout)
	if err != nil || !ok {
		return fmt.Errorf("mon_ver failed: %v", err)
	}

	uidAck := []byte{Sync1, Sync2, ClassSEC, IDSecUniqid}
	uidResp, ok, err := e.ExecQuery(ctx, Encode(ClassSEC, IDSecUniqid, nil), uidAck, nil,
		device.LengthOffsets{LSOffset: 4, MSOffset: 5}, device.DefaultCommandTimeout)
	if err != nil || !ok {
		return fmt.Errorf("sec_uniqid failed: %v", err)
	}
	// Payload: version(1) reserved(3) uniqueId(5); frame header is 6
	// bytes, so the unique id starts at offset 6+4=10.
	if len(uidResp) >= 15 {
		e.SetID(fmt.Sprintf("%x", uidResp[10:15]))
	}

	if ok, err := doCfg(ctx, e, IDCfgNAV5, BuildCfgNAV5(p.Options.DynModel)); err != nil || !ok {
		return fmt.Errorf("cfg_nav5 failed: %v", err)
	}
	if ok, err := doCfg(ctx, e, IDCfgGNSS, BuildCfgGNSS(p.Options.GNSS)); err != nil || !ok {
		return fmt.Errorf("cfg_gnss failed: %v", err)
	}
	if p.Options.NavRateMs > 0 {
		rate := []byte{byte(p.Options.NavRateMs), byte(p.Options.NavRateMs >> 8), 0x01, 0x00, 0x00, 0x00}
		if ok, err := doCfg(ctx, e, IDCfgRATE, rate); err != nil || !ok {
			return fmt.Errorf("cfg_rate failed: %v", err)
		}
	}

	msgs := []struct{ class, id byte }{
		{ClassNAV, IDNavPVT},
		{ClassNAV, IDNavATT},
		{ClassESF, IDEsfINS},
		{ClassESF, IDEsfRAW},
	}
	for _, m := range msgs {
		if ok, err := doCfg(ctx, e, IDCfgMSG, BuildCfgMSG(m.class, m.id, 1)); err != nil || !ok {
			return fmt.Errorf("cfg_msg(%#x,%#x) failed: %v", m.class, m.id, err)
		}
		if err := e.Sleep(ctx, 20*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
