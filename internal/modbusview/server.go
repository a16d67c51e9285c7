package modbusview

import (
	"github.com/tbrandon/mbserver"

	"github.com/orca-st/sensact/internal/logging"
)

// Server answers Modbus/TCP "read input registers" (function code 4)
// requests over the live Registers view. The wire framing itself is
// deliberately not this package's concern (§1 lists raw Modbus framing
// as assumed library-provided); mbserver supplies it, and Server only
// installs a handler that delegates register resolution to Registers.
type Server struct {
	regs   *Registers
	srv    *mbserver.Server
	logger *logging.Logger
}

// NewServer wires regs behind a Modbus/TCP listener.
func NewServer(regs *Registers) *Server {
	srv := mbserver.NewServer()
	s := &Server{regs: regs, srv: srv, logger: logging.Default()}
	srv.RegisterFunctionHandler(4, s.handleReadInputRegisters)
	return s
}

// ListenAndServe starts accepting Modbus/TCP connections on addr.
func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenTCP(addr)
}

// Close stops the listener and any open connections.
func (s *Server) Close() {
	s.srv.Close()
}

// handleReadInputRegisters implements function code 4 by resolving every
// requested register through Registers.Read, ignoring mbserver's static
// InputRegisters array entirely.
func (s *Server) handleReadInputRegisters(srv *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return nil, &mbserver.IllegalDataAddress
	}
	start := uint16(data[0])<<8 | uint16(data[1])
	count := uint16(data[2])<<8 | uint16(data[3])
	if count == 0 || count > 125 {
		return nil, &mbserver.IllegalDataValue
	}

	unitID := byte(0xFF)
	if tcp, ok := frame.(*mbserver.TCPFrame); ok {
		unitID = tcp.Device
	}

	out := make([]byte, 1+2*int(count))
	out[0] = byte(2 * int(count))
	for i := uint16(0); i < count; i++ {
		v := s.regs.Read(unitID, start+i)
		out[1+2*i] = byte(v >> 8)
		out[2+2*i] = byte(v)
	}
	return out, &mbserver.Success
}
