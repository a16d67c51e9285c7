package transport

import (
	"context"
	"net"
	"sync"
	"time"

	sensact "github.com/orca-st/sensact"
)

// TCP implements Adapter over a plain TCP stream. The connection string
// is passed to net.Dialer as given, so it has the form host:port; a
// string without a port fails to open.
type TCP struct {
	mu   sync.Mutex
	conn net.Conn
}

// Open dials the remote host.
func (t *TCP) Open(ctx context.Context, connStr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", connStr)
	if err != nil {
		return sensact.NewError("open", sensact.ErrTransportOpen, err.Error())
	}
	t.conn = conn
	return nil
}

// ReadSome suspends until at least one byte is available.
func (t *TCP) ReadSome(ctx context.Context, buf []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, sensact.NewError("read_some", sensact.ErrDisconnected, "tcp connection not open")
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, sensact.NewError("read_some", sensact.ErrCancelled, "read cancelled")
		}
		return n, sensact.NewError("read_some", sensact.ErrDisconnected, err.Error())
	}
	return n, nil
}

// WriteAll suspends until every byte in buf is delivered.
func (t *TCP) WriteAll(ctx context.Context, buf []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return sensact.NewError("write_all", sensact.ErrDisconnected, "tcp connection not open")
	}
	total := 0
	for total < len(buf) {
		n, err := conn.Write(buf[total:])
		if err != nil {
			return sensact.NewError("write_all", sensact.ErrTransportIo, err.Error())
		}
		total += n
	}
	return nil
}

// Cancel aborts in-flight operations by forcing an immediate read/write
// deadline.
func (t *TCP) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.SetDeadline(time.Now().Add(-time.Second))
	}
}

// Close releases the connection.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
