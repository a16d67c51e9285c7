// Package xsens implements the XSens MT binary protocol parser and command
// sequencer of §4.4, grounded on the original's newer "MT protocol"
// implementation (original_source/src/xsens_impl.h), per §9's Open
// Question decision to specify only that version and not the legacy
// byte-array command table in xsens.cpp.
package xsens

import "github.com/orca-st/sensact/internal/parser"

// Preamble bytes.
const (
	PreambleSync = 0xFA
	PreambleBus  = 0xFF
)

// Frame is one decoded XSens MT frame: MID, payload, and whether the
// checksum verified.
type Frame struct {
	MID     byte
	Payload []byte
}

// Checksum computes the 8-bit two's complement checksum over mid, len, and
// payload, matching §4.4: the full frame (mid..chk) sums to zero mod 256,
// not including the 0xFA 0xFF preamble. This is the literal spec
// definition, chosen over either C++ variant's accumulator seed per the
// Open Question decision recorded in DESIGN.md.
func Checksum(mid byte, payload []byte) byte {
	sum := int(mid) + len(payload)
	for _, b := range payload {
		sum += int(b)
	}
	return byte(256 - (sum % 256))
}

// Encode builds a complete framed message: preamble, mid, len, payload,
// checksum.
func Encode(mid byte, payload []byte) []byte {
	out := make([]byte, 0, 4+len(payload))
	out = append(out, PreambleSync, PreambleBus, mid, byte(len(payload)))
	out = append(out, payload...)
	out = append(out, Checksum(mid, payload))
	return out
}

// FrameParser extracts framed messages from a restartable byte buffer,
// per §4.3: skip bytes until the preamble, read MID/LEN/payload/CHK,
// verify the checksum; on failure, log and discard; on success, advance
// past the consumed frame leaving any trailing bytes for the next feed.
type FrameParser struct {
	buf parser.Buffer
}

// Feed appends raw bytes to the internal buffer.
func (p *FrameParser) Feed(data []byte) {
	p.buf.Feed(data)
}

// FrameResult is one decode attempt's outcome.
type FrameResult struct {
	Frame       Frame
	ChecksumBad bool
}

// Next extracts the next complete frame from the buffer, if any. It
// returns ok=false when no complete frame is currently available (more
// bytes are needed). A checksum failure is reported via
// FrameResult.ChecksumBad=true and the offending bytes are still consumed
// so the parser can resynchronise on subsequent junk.
func (p *FrameParser) Next() (FrameResult, bool) {
	data := p.buf.Bytes()
	// Skip junk until the two-byte preamble.
	i := 0
	for i+1 < len(data) && !(data[i] == PreambleSync && data[i+1] == PreambleBus) {
		i++
	}
	if i > 0 {
		p.buf.Advance(i)
		data = p.buf.Bytes()
	}
	if len(data) < 4 {
		return FrameResult{}, false
	}
	mid := data[2]
	length := int(data[3])
	total := 4 + length + 1
	if len(data) < total {
		return FrameResult{}, false
	}
	payload := make([]byte, length)
	copy(payload, data[4:4+length])
	chk := data[4+length]
	p.buf.Advance(total)

	want := Checksum(mid, payload)
	if chk != want {
		return FrameResult{ChecksumBad: true}, true
	}
	return FrameResult{Frame: Frame{MID: mid, Payload: payload}}, true
}
