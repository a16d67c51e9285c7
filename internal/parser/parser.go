// Package parser provides the buffered-byte-stream framework of §4.3. Its
// hard-capped, restartable accumulation Buffer is shared by the XSens and
// UBX frame parsers, whose Feed/Next operations skip junk up to a valid
// preamble and advance past each consumed frame. The regex line parser
// keeps its own string buffer and does not use this package.
package parser

// MaxBufferSize is the hard cap on the parser's internal buffer (§4.3): an
// overflow clears the buffer as protection against unframed garbage.
const MaxBufferSize = 4096

// Buffer is a restartable byte accumulator shared by the binary parsers.
type Buffer struct {
	data []byte
}

// Feed appends bytes to the buffer, clearing it first if the append would
// exceed MaxBufferSize.
func (b *Buffer) Feed(data []byte) {
	if len(b.data)+len(data) > MaxBufferSize {
		b.data = b.data[:0]
	}
	b.data = append(b.data, data...)
}

// Bytes returns the buffer's current contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Advance discards the first n bytes, e.g. after a frame (or junk prefix)
// has been consumed.
func (b *Buffer) Advance(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	b.data = append(b.data[:0], b.data[n:]...)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Frame is a decoded, framework-agnostic parser consumer.
type Frame interface {
	// Feed appends bytes tagged with their reception timestamp.
	Feed(stamp float64, data []byte)
	// Drain returns and clears any samples ready for dispatch.
	Drain() []Sample
}

// Sample is the framework's view of a decoded reading, with the quantity
// identified by name. Nothing else in the module produces or consumes it:
// the XSens and UBX parsers emit their own DecodedSample values.
type Sample struct {
	QuantityName string
	Value        float64
	Stamp        float64
}
