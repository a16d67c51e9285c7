// Package device implements the port-agnostic command/response/polling
// engine of §4.2, generalised per §9 from the original's
// Port_device<Transport> template (and its polling/port-polling CRTP
// mixins) into composition over an explicit transport.Adapter and a
// device-supplied Protocol. Identity handling follows the original's
// Named_object (device.h): the id starts as the configured name and is
// replaced through SetID (e.g. from a device-reported serial during
// initialisation), which logs the transition; the name itself is fixed at
// construction.
package device

import (
	"bytes"
	"context"
	"sync"
	"time"

	sensact "github.com/orca-st/sensact"
	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/transport"
)

// DefaultCommandTimeout is the default deadline for exec_command/exec_query
// per §4.2.
const DefaultCommandTimeout = 1000 * time.Millisecond

// DefaultChunkSize is the default read_some chunk size used by the polling
// loop (§4.2); some device protocols override it (XSens 6xx/63x use 65).
const DefaultChunkSize = 512

// Protocol is implemented by each concrete device kind (XSens, UBX, regex
// line, dummy generator) and supplies the initialisation sequence and the
// data callback the engine drives.
type Protocol interface {
	// Initialize runs the device's command sequence over e. Returning an
	// error closes the transport, leaves the device disconnected, and makes
	// Connect return an ErrTransportOpen error whose message starts with
	// "init failed".
	Initialize(ctx context.Context, e *Engine) error
	// ChunkSize is the read_some buffer size used while polling.
	ChunkSize() int
	// HandleData is invoked with every chunk read while polling, tagged
	// with its reception timestamp.
	HandleData(stamp float64, data []byte)
}

// State is a device's lifecycle state (§4.9).
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Engine drives one device's lifecycle over a transport.Adapter.
type Engine struct {
	mu sync.Mutex

	id      string
	name    string
	enabled bool

	state     State
	transport transport.Adapter
	connStr   string
	protocol  Protocol
	clock     *clock.Clock
	logger    *logging.Logger

	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

// New constructs an Engine for one device. connStr is opaque to the
// engine; it is passed verbatim to transport.Open.
func New(name, connStr string, t transport.Adapter, protocol Protocol, clk *clock.Clock) *Engine {
	return &Engine{
		id:        name,
		name:      name,
		connStr:   connStr,
		transport: t,
		protocol:  protocol,
		clock:     clk,
		logger:    logging.Default(),
		state:     StateConfigured,
	}
}

// ID returns the device's current identity, mutable only by SetID during
// initialisation.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// SetID updates the device's identity, e.g. from a device-reported serial
// number, logging the transition (Named_object::set_id).
func (e *Engine) SetID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != e.id {
		e.logger.Info("setting device id", "from", e.id, "to", id)
		e.id = id
	}
}

// Name returns the device's configured name.
func (e *Engine) Name() string { return e.name }

// SetEnabled toggles the enabled flag used by the 60-second reconnect tick.
func (e *Engine) SetEnabled(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = v
}

// Enabled reports the enabled flag.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// State returns the device's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Connected reports whether the device is in the Connected state.
func (e *Engine) Connected() bool {
	return e.State() == StateConnected
}

// Connect opens the transport and runs the protocol's Initialize sequence.
// Re-entering Connect on an already-connected device is a no-op with a
// warning (§4.2).
func (e *Engine) Connect(ctx context.Context) error {
	if e.Connected() {
		e.logger.Warn("connect called on already-connected device", "device", e.id)
		return nil
	}
	e.setState(StateConnecting)
	if err := e.transport.Open(ctx, e.connStr); err != nil {
		e.setState(StateDisconnected)
		return sensact.WrapError("connect", err)
	}
	if err := e.protocol.Initialize(ctx, e); err != nil {
		_ = e.transport.Close()
		e.setState(StateDisconnected)
		return sensact.NewDeviceError("connect", e.id, sensact.ErrTransportOpen, "init failed: "+err.Error())
	}
	e.setState(StateConnected)
	return nil
}

// Disconnect closes the transport and clears the connected state.
func (e *Engine) Disconnect() {
	e.stopPolling()
	e.transport.Cancel()
	_ = e.transport.Close()
	e.setState(StateDisconnected)
}

// ExecCommand writes cmd, then repeatedly reads into an accumulating
// buffer until errorMarker appears (returns false), expectedAck appears
// (returns true), or the deadline elapses (returns false, cancelling the
// handle). Per §9's Open Question decision, failure is always reported as
// false, never as a distinct sentinel.
func (e *Engine) ExecCommand(ctx context.Context, cmd, expectedAck, errorMarker []byte, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if err := e.transport.WriteAll(ctx, cmd); err != nil {
		return false, sensact.WrapError("exec_command", err)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var acc bytes.Buffer
	buf := make([]byte, 256)
	for {
		n, err := e.transport.ReadSome(deadlineCtx, buf)
		if n > 0 {
			acc.Write(buf[:n])
			if errorMarker != nil && bytes.Contains(acc.Bytes(), errorMarker) {
				return false, nil
			}
			if bytes.Contains(acc.Bytes(), expectedAck) {
				return true, nil
			}
		}
		if err != nil {
			if deadlineCtx.Err() != nil {
				e.transport.Cancel()
				return false, sensact.NewDeviceError("exec_command", e.id, sensact.ErrCommandTimeout, "deadline elapsed")
			}
			return false, sensact.WrapError("exec_command", err)
		}
	}
}

// LengthOffsets locates a little-endian length field within the
// accumulated ack header, per §4.2's exec_query contract.
type LengthOffsets struct {
	LSOffset int
	MSOffset int // -1 if the length is a single byte
}

// ExecQuery behaves like ExecCommand but additionally consumes a
// length-prefixed payload once expectedAck is found: the length byte(s) at
// lenOff past the start of the matched ack are read as the total length of
// the framed response counted from the first ack byte (ack header
// included), more bytes are accumulated until that many are available, and
// a copy of the framed response (ack header + payload) is returned.
func (e *Engine) ExecQuery(ctx context.Context, cmd, expectedAck, errorMarker []byte, lenOff LengthOffsets, timeout time.Duration) (out []byte, ok bool, err error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if err := e.transport.WriteAll(ctx, cmd); err != nil {
		return nil, false, sensact.WrapError("exec_query", err)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var acc bytes.Buffer
	buf := make([]byte, 256)
	ackIdx := -1
	var declaredLen int
	haveLen := false
	for {
		n, rerr := e.transport.ReadSome(deadlineCtx, buf)
		if n > 0 {
			acc.Write(buf[:n])
			data := acc.Bytes()
			if errorMarker != nil && bytes.Contains(data, errorMarker) {
				return nil, false, nil
			}
			if ackIdx < 0 {
				if idx := bytes.Index(data, expectedAck); idx >= 0 {
					ackIdx = idx
				}
			}
			if ackIdx >= 0 && !haveLen {
				lsPos := ackIdx + lenOff.LSOffset
				if lenOff.MSOffset < 0 {
					if len(data) > lsPos {
						declaredLen = int(data[lsPos])
						haveLen = true
					}
				} else {
					msPos := ackIdx + lenOff.MSOffset
					if len(data) > lsPos && len(data) > msPos {
						declaredLen = int(data[lsPos]) | int(data[msPos])<<8
						haveLen = true
					}
				}
			}
			if haveLen && len(data)-ackIdx >= declaredLen {
				framed := make([]byte, declaredLen)
				copy(framed, data[ackIdx:ackIdx+declaredLen])
				return framed, true, nil
			}
		}
		if rerr != nil {
			if deadlineCtx.Err() != nil {
				e.transport.Cancel()
				return nil, false, sensact.NewDeviceError("exec_query", e.id, sensact.ErrCommandTimeout, "deadline elapsed")
			}
			return nil, false, sensact.WrapError("exec_query", rerr)
		}
	}
}

// StartPolling starts the polling loop on its own goroutine, owned by the
// Engine rather than submitted to the scheduler: the loop's entire body is
// one blocking ReadSome call after another, so it is never a candidate for
// cooperative multiplexing, and Disconnect/stopPolling already join it
// deterministically via pollDone. While connected it calls ReadSome with
// the protocol's chunk size, timestamps the read with clock.Now(), and
// delivers it to HandleData. Any read error transitions the device to
// disconnected.
func (e *Engine) StartPolling(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancelPoll = cancel
	e.pollDone = make(chan struct{})
	done := e.pollDone
	e.mu.Unlock()

	go func() {
		defer close(done)
		chunk := e.protocol.ChunkSize()
		if chunk <= 0 {
			chunk = DefaultChunkSize
		}
		buf := make([]byte, chunk)
		for e.Connected() {
			n, err := e.transport.ReadSome(pollCtx, buf)
			if n > 0 {
				stamp := e.clock.Now()
				data := make([]byte, n)
				copy(data, buf[:n])
				e.protocol.HandleData(stamp, data)
			}
			if err != nil {
				if pollCtx.Err() != nil {
					return
				}
				e.logger.Warn("polling read failed, disconnecting", "device", e.id, "err", err)
				// Disconnect() would block here: stopPolling() waits on
				// pollDone, which this same goroutine only closes on
				// return. Do the disconnect work inline instead.
				e.transport.Cancel()
				_ = e.transport.Close()
				e.setState(StateDisconnected)
				return
			}
		}
	}()
}

func (e *Engine) stopPolling() {
	e.mu.Lock()
	cancel := e.cancelPoll
	done := e.pollDone
	e.cancelPoll = nil
	e.pollDone = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Sleep implements the yield-point-with-50ms-wait pattern used between
// configuration steps (§5: do_command/do_set/do_check/do_request each
// first wait 50ms, then issue the command).
func (e *Engine) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Transport exposes the underlying adapter for protocols that need direct
// write access outside the exec_command/exec_query contract (e.g. sending
// a raw wakeup byte).
func (e *Engine) Transport() transport.Adapter { return e.transport }
