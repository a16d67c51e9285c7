// Package sensact is the sensor-aggregation daemon's top-level library: it
// wires the device-protocol runtime (transports, parsers, sample cache,
// processors) into a running service and exposes the structured error
// taxonomy of §7.
package sensact

import (
	"errors"
	"fmt"
)

// Error is a structured runtime error carrying the §7 taxonomy, the
// device/quantity it concerns, and any wrapped cause. Generalises the
// teacher's Error{Op, DevID, Queue, Code, Errno, Msg, Inner}.
type Error struct {
	Op       string    // operation that failed, e.g. "connect", "exec_command"
	Device   string    // device id (empty if not applicable)
	Quantity string    // quantity name (empty if not applicable)
	Code     ErrorCode // high-level error category
	Msg      string    // human-readable message
	Inner    error     // wrapped error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Device != "" {
		parts = append(parts, fmt.Sprintf("device=%s", e.Device))
	}
	if e.Quantity != "" {
		parts = append(parts, fmt.Sprintf("quantity=%s", e.Quantity))
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("sensact: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("sensact: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode is the §7 error taxonomy.
type ErrorCode string

const (
	// ErrConfig: invalid or missing configuration; fatal to the affected
	// device or processor at startup; that entity is skipped, the service
	// continues.
	ErrConfig ErrorCode = "config error"
	// ErrTransportOpen: transport cannot be opened; logged; device remains
	// disconnected; retried on the 60-second tick.
	ErrTransportOpen ErrorCode = "transport open failed"
	// ErrTransportIo: I/O failure; disconnects the device.
	ErrTransportIo ErrorCode = "transport I/O error"
	// ErrDisconnected: device removal detected; disconnects the device.
	ErrDisconnected ErrorCode = "device disconnected"
	// ErrCancelled: benign; surfaces as false from exec_command/exec_query
	// or as graceful polling termination.
	ErrCancelled ErrorCode = "cancelled"
	// ErrCommandTimeout: deadline elapsed; identical surface to Cancelled
	// at the call site but logged distinctly.
	ErrCommandTimeout ErrorCode = "command timeout"
	// ErrChecksum: parser-local checksum mismatch; logged; bytes skipped;
	// never propagated.
	ErrChecksum ErrorCode = "checksum error"
	// ErrFrame: parser-local framing error; logged; bytes skipped; never
	// propagated.
	ErrFrame ErrorCode = "frame error"
	// ErrQuantityNotAvailable: requested quantity has no sample.
	ErrQuantityNotAvailable ErrorCode = "quantity not available"
	// ErrFatalProcess: PID lock contention, signal install failure; aborts
	// the daemon with the stable exit codes of §6.
	ErrFatalProcess ErrorCode = "fatal process error"
)

// NewError creates a structured error with no device/quantity context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewDeviceError creates a device-scoped structured error.
func NewDeviceError(op, device string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Device: device, Code: code, Msg: msg}
}

// NewQuantityError creates a device+quantity-scoped structured error.
func NewQuantityError(op, device, quantity string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Device: device, Quantity: quantity, Code: code, Msg: msg}
}

// WrapError wraps inner with operation context, preserving the inner
// *Error's code/device/quantity when present.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if se, ok := inner.(*Error); ok {
		return &Error{
			Op:       op,
			Device:   se.Device,
			Quantity: se.Quantity,
			Code:     se.Code,
			Msg:      se.Msg,
			Inner:    se.Inner,
		}
	}
	return &Error{Op: op, Code: ErrTransportIo, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
