package xsens

import (
	"context"
	"fmt"
	"time"

	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/sample"
)

// Options configures one XSens device instance (§4.4).
type Options struct {
	// FlipAxes selects the axis-flip convention. The service factory reads
	// it from the flip_axes option, defaulting to true for every XSens
	// device; no per-variant default is applied.
	FlipAxes bool
	// FilterProfile is sent via SetFilterProfile; 0 means "untouched".
	FilterProfile byte
	// ChunkSize overrides the default polling chunk size; XSens 6xx/63x
	// devices use 65 instead of the engine default of 512.
	ChunkSize int
	// UseAsTimeSource marks the device as the time source; the service's
	// XSens factory then sets the clock's adjust rate to XSensAdjustRate
	// when it builds the device.
	UseAsTimeSource bool
}

// Sink receives decoded StampedQuantity samples from the protocol,
// typically the device's insert path (§4.7).
type Sink interface {
	Insert(sample.Quantity)
}

// Protocol implements device.Protocol for an XSens MTi-G-710-class device:
// framing, checksum verification, data-identifier decoding, and the
// initialisation command sequence of §4.4.
type Protocol struct {
	Options Options
	Sink    Sink

	frame  FrameParser
	logger *logging.Logger
}

// NewProtocol constructs an XSens Protocol delivering decoded samples to
// sink.
func NewProtocol(opts Options, sink Sink) *Protocol {
	return &Protocol{Options: opts, Sink: sink, logger: logging.Default()}
}

// ChunkSize returns the configured polling chunk size, or the engine
// default (512) if unset.
func (p *Protocol) ChunkSize() int {
	if p.Options.ChunkSize > 0 {
		return p.Options.ChunkSize
	}
	return 0
}

// HandleData feeds raw bytes to the frame parser, decodes every complete
// frame, and dispatches decoded quantities to the sink with the chunk's
// reception timestamp, per §4.4's framing algorithm: on checksum failure,
// log and discard; on success, if MID == MtData2, dispatch to the
// data-identifier decoder.
func (p *Protocol) HandleData(stamp float64, data []byte) {
	p.frame.Feed(data)
	for {
		res, ok := p.frame.Next()
		if !ok {
			return
		}
		if res.ChecksumBad {
			p.logger.Warn("xsens: checksum mismatch, discarding frame")
			continue
		}
		if res.Frame.MID != MIDMtData2 {
			continue
		}
		for _, d := range DecodeDataIdentifiers(res.Frame.Payload, p.Options.FlipAxes) {
			if p.Sink != nil {
				p.Sink.Insert(sample.Quantity{Value: d.Value, Stamp: stamp, Quantity: d.Quantity})
			}
		}
	}
}

// doCommand runs one exec_command step in the initialisation sequence,
// first waiting 50ms per §5's yield-point convention.
func doCommand(ctx context.Context, e *device.Engine, mid byte, payload []byte, ackMid byte) (bool, error) {
	if err := e.Sleep(ctx, 50*time.Millisecond); err != nil {
		return false, err
	}
	cmd := Encode(mid, payload)
	ack := []byte{PreambleSync, PreambleBus, ackMid}
	errMarker := []byte{PreambleSync, PreambleBus, MIDError}
	return e.ExecCommand(ctx, cmd, ack, errMarker, device.DefaultCommandTimeout)
}

// Initialize runs the command sequence of §4.4: GotoConfig -> ReqDid
// (sets device id) -> ReqProductCode -> ReqFirmwareRevision ->
// SetOptionFlags -> SetStringOutputType -> optional SetFilterProfile ->
// SetOutputConfiguration -> GotoMeasurement. No wakeup handshake is sent
// before GotoConfig.
func (p *Protocol) Initialize(ctx context.Context, e *device.Engine) error {
	if p.Options.UseAsTimeSource {
		// The time-source adjust rate is set by the service's XSens
		// factory when the device is built; nothing more is done here.
	}

	if ok, err := doCommand(ctx, e, MIDGotoConfig, nil, MIDGotoConfigAck); err != nil || !ok {
		return fmt.Errorf("goto_config failed: %v", err)
	}

	didResp, ok, err := e.ExecQuery(ctx, Encode(MIDReqDid, nil),
		[]byte{PreambleSync, PreambleBus, MIDDeviceID}, []byte{PreambleSync, PreambleBus, MIDError},
		device.LengthOffsets{LSOffset: 3, MSOffset: -1}, device.DefaultCommandTimeout)
	if err != nil || !ok {
		return fmt.Errorf("req_did failed: %v", err)
	}
	if len(didResp) >= 8 {
		serial := fmt.Sprintf("%x", didResp[4:8])
		e.SetID(serial)
	}

	if ok, err := doCommand(ctx, e, MIDReqProductCode, nil, MIDProductCode); err != nil || !ok {
		return fmt.Errorf("req_product_code failed: %v", err)
	}
	if ok, err := doCommand(ctx, e, MIDReqFirmwareRevision, nil, MIDFirmwareRevision); err != nil || !ok {
		return fmt.Errorf("req_firmware_revision failed: %v", err)
	}

	optFlags := make([]byte, 8)
	if ok, err := doCommand(ctx, e, MIDSetOptionFlags, optFlags, MIDSetOptionFlagsAck); err != nil || !ok {
		return fmt.Errorf("set_option_flags failed: %v", err)
	}

	// SetStringOutputType: disable NMEA, rely on binary MTData2 only.
	strOutType := []byte{0x00, 0x00}
	if ok, err := doCommand(ctx, e, MIDSetStringOutputType, strOutType, MIDSetStringOutputAck); err != nil || !ok {
		return fmt.Errorf("set_string_output_type failed: %v", err)
	}

	if p.Options.FilterProfile != 0 {
		if ok, err := doCommand(ctx, e, MIDSetFilterProfile, []byte{p.Options.FilterProfile}, MIDSetFilterProfileAck); err != nil || !ok {
			return fmt.Errorf("set_filter_profile failed: %v", err)
		}
	}

	outCfg := EncodeOutputConfiguration(DefaultOutputConfiguration)
	if ok, err := doCommand(ctx, e, MIDSetOutputConfig, outCfg, MIDSetOutputConfigAck); err != nil || !ok {
		return fmt.Errorf("set_output_configuration failed: %v", err)
	}

	if ok, err := doCommand(ctx, e, MIDGotoMeasurement, nil, MIDGotoMeasurementAck); err != nil || !ok {
		return fmt.Errorf("goto_measurement failed: %v", err)
	}
	return nil
}
