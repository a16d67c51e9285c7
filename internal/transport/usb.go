package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"

	sensact "github.com/orca-st/sensact"
)

// USB implements Adapter over a libusb bulk endpoint pair via
// github.com/google/gousb, parsing connection strings of the form
// VID:PID[,index] per §4.1. A cancelled read surfaces as ErrCancelled, a
// read from a removed device (libusb NO_DEVICE) as ErrDisconnected, and
// any other read error, stalls and overflows included, as ErrTransportIo.
// WriteAll reports every transfer error as ErrTransportIo.
type USB struct {
	mu      sync.Mutex
	ctx     *gousb.Context
	dev     *gousb.Device
	intf    *gousb.Interface
	done    func()
	inEp    *gousb.InEndpoint
	outEp   *gousb.OutEndpoint
}

func parseUSBConnStr(connStr string) (vid, pid gousb.ID, index int, err error) {
	head := connStr
	if i := strings.IndexByte(connStr, ','); i >= 0 {
		head = connStr[:i]
		index, err = strconv.Atoi(connStr[i+1:])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("usb: bad index in %q: %w", connStr, err)
		}
	}
	parts := strings.SplitN(head, ":", 2)
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("usb: connection string must be VID:PID[,index], got %q", connStr)
	}
	v, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("usb: bad vid %q: %w", parts[0], err)
	}
	p, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("usb: bad pid %q: %w", parts[1], err)
	}
	return gousb.ID(v), gousb.ID(p), index, nil
}

// Open acquires the USB device, claims interface 0, alternate setting 0,
// of its active configuration, and opens IN and OUT endpoint number 1.
func (u *USB) Open(ctx context.Context, connStr string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	vid, pid, _, err := parseUSBConnStr(connStr)
	if err != nil {
		return sensact.NewError("open", sensact.ErrTransportOpen, err.Error())
	}

	u.ctx = gousb.NewContext()
	dev, err := u.ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil || dev == nil {
		u.ctx.Close()
		u.ctx = nil
		msg := "device not found"
		if err != nil {
			msg = err.Error()
		}
		return sensact.NewError("open", sensact.ErrTransportOpen, msg)
	}
	_ = dev.SetAutoDetach(true)

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		u.ctx.Close()
		u.ctx = nil
		return sensact.NewError("open", sensact.ErrTransportOpen, err.Error())
	}

	inEp, err := intf.InEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		u.ctx.Close()
		u.ctx = nil
		return sensact.NewError("open", sensact.ErrTransportOpen, err.Error())
	}
	outEp, err := intf.OutEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		u.ctx.Close()
		u.ctx = nil
		return sensact.NewError("open", sensact.ErrTransportOpen, err.Error())
	}

	u.dev, u.intf, u.done, u.inEp, u.outEp = dev, intf, done, inEp, outEp
	return nil
}

// ReadSome performs one bulk IN transfer, suspending until data arrives,
// the context is cancelled, or the transfer errors.
func (u *USB) ReadSome(ctx context.Context, buf []byte) (int, error) {
	u.mu.Lock()
	ep := u.inEp
	u.mu.Unlock()
	if ep == nil {
		return 0, sensact.NewError("read_some", sensact.ErrDisconnected, "usb endpoint not open")
	}
	n, err := ep.ReadContext(ctx, buf)
	if err != nil {
		if ctx.Err() != nil {
			return n, sensact.NewError("read_some", sensact.ErrCancelled, "read cancelled")
		}
		if errors.Is(err, gousb.TransferNoDevice) || errors.Is(err, gousb.ErrorNoDevice) {
			return n, sensact.NewError("read_some", sensact.ErrDisconnected, err.Error())
		}
		return n, sensact.NewError("read_some", sensact.ErrTransportIo, err.Error())
	}
	return n, nil
}

// WriteAll performs bulk OUT transfers until buf is fully delivered.
func (u *USB) WriteAll(ctx context.Context, buf []byte) error {
	u.mu.Lock()
	ep := u.outEp
	u.mu.Unlock()
	if ep == nil {
		return sensact.NewError("write_all", sensact.ErrDisconnected, "usb endpoint not open")
	}
	total := 0
	for total < len(buf) {
		n, err := ep.WriteContext(ctx, buf[total:])
		if err != nil {
			return sensact.NewError("write_all", sensact.ErrTransportIo, err.Error())
		}
		total += n
	}
	return nil
}

// Cancel has no separate libusb handle to abort here; outstanding
// ReadContext/WriteContext calls are cancelled by cancelling their ctx,
// which the port device engine does by cancelling the operation's context.
func (u *USB) Cancel() {}

// Close releases the interface, device, and libusb context.
func (u *USB) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done != nil {
		u.done()
		u.done = nil
	}
	if u.dev != nil {
		u.dev.Close()
		u.dev = nil
	}
	if u.ctx != nil {
		err := u.ctx.Close()
		u.ctx = nil
		return err
	}
	return nil
}
