// Package transport implements the uniform transport contract of §4.1:
// open/read_some/write_all/cancel/close over serial, USB bulk, and TCP.
// Generalised from the teacher's internal/interfaces.Backend capability
// set (ReadAt/WriteAt/Size/Close/Flush) onto a stream-oriented device
// protocol instead of a block device.
package transport

import (
	"context"
	"fmt"
)

// Adapter is the capability set every transport exposes. Implementations
// must be safe to call Cancel from a different goroutine than the one
// blocked in ReadSome/WriteAll (mirroring the teacher's Observer note that
// callbacks may arrive from a dedicated polling thread and must only post
// back to the scheduler, §5).
type Adapter interface {
	// Open parses a transport-specific connection string and acquires the
	// handle. Failure is reported as *sensact.Error with code
	// ErrTransportOpen.
	Open(ctx context.Context, connStr string) error
	// ReadSome suspends until at least one byte is available, the handle
	// is cancelled (err wraps ErrCancelled), or an I/O error occurs (err
	// wraps ErrTransportIo/ErrDisconnected).
	ReadSome(ctx context.Context, buf []byte) (n int, err error)
	// WriteAll suspends until every byte in buf is delivered.
	WriteAll(ctx context.Context, buf []byte) error
	// Cancel aborts any in-flight ReadSome/WriteAll on this handle.
	Cancel()
	// Close releases the handle. Idempotent.
	Close() error
}

// Kind identifies which concrete adapter a connection string selects.
type Kind int

const (
	KindSerial Kind = iota
	KindUSB
	KindTCP
)

// New constructs the Adapter for kind. The connection string is not parsed
// until Open is called.
func New(kind Kind) (Adapter, error) {
	switch kind {
	case KindSerial:
		return &Serial{}, nil
	case KindUSB:
		return &USB{}, nil
	case KindTCP:
		return &TCP{}, nil
	default:
		return nil, fmt.Errorf("transport: unknown kind %d", kind)
	}
}
