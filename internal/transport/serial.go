package transport

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/daedaluz/goserial"

	sensact "github.com/orca-st/sensact"
)

// Serial implements Adapter over a termios serial line via
// github.com/daedaluz/goserial, parsing connection strings of the form
// device[:baud[:bits[:parity[:stop]]]] per §4.1.
type Serial struct {
	mu   sync.Mutex
	port goserial.Port
}

func parseSerialConnStr(connStr string) (device string, baud, bits int, parity string, stop int) {
	parts := strings.Split(connStr, ":")
	device = parts[0]
	baud, bits, stop = 115200, 8, 1
	parity = "none"
	if len(parts) > 1 {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			baud = v
		}
	}
	if len(parts) > 2 {
		if v, err := strconv.Atoi(parts[2]); err == nil {
			bits = v
		}
	}
	if len(parts) > 3 {
		parity = parts[3]
	}
	if len(parts) > 4 {
		if v, err := strconv.Atoi(parts[4]); err == nil {
			stop = v
		}
	}
	return
}

// Open acquires the serial handle.
func (s *Serial) Open(ctx context.Context, connStr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, baud, bits, parity, stop := parseSerialConnStr(connStr)
	cfg := goserial.Config{
		Baudrate: baud,
		DataBits: bits,
		StopBits: stop,
		Parity:   parseParity(parity),
	}
	port, err := goserial.Open(device, cfg)
	if err != nil {
		return sensact.NewDeviceError("open", device, sensact.ErrTransportOpen, err.Error())
	}
	s.port = port
	return nil
}

func parseParity(p string) goserial.Parity {
	switch p {
	case "odd":
		return goserial.ParityOdd
	case "even":
		return goserial.ParityEven
	default:
		return goserial.ParityNone
	}
}

// ReadSome suspends until at least one byte is available.
func (s *Serial) ReadSome(ctx context.Context, buf []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, sensact.NewError("read_some", sensact.ErrDisconnected, "serial port not open")
	}
	// Closing the port is the only way to unblock a pending Read, so it is
	// closed when ctx ends; the failed Read then reports ErrCancelled.
	stop := context.AfterFunc(ctx, s.Cancel)
	defer stop()
	n, err := port.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return n, sensact.NewError("read_some", sensact.ErrCancelled, "read cancelled")
		}
		return n, sensact.WrapError("read_some", err)
	}
	return n, nil
}

// WriteAll suspends until every byte in buf is delivered.
func (s *Serial) WriteAll(ctx context.Context, buf []byte) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return sensact.NewError("write_all", sensact.ErrDisconnected, "serial port not open")
	}
	total := 0
	for total < len(buf) {
		n, err := port.Write(buf[total:])
		if err != nil {
			return sensact.WrapError("write_all", err)
		}
		total += n
	}
	return nil
}

// Cancel aborts any in-flight operation by closing the underlying handle's
// read/write side; goserial.Port does not expose a finer-grained cancel,
// so a pending Read unblocks with an error, which ReadSome reports as
// ErrCancelled once its context is done.
func (s *Serial) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		_ = s.port.Close()
	}
}

// Close releases the handle.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
