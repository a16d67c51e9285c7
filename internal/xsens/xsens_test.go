package xsens

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-st/sensact/internal/quantity"
)

func utcTimeRecord(nano uint32, year uint16, month, day, hour, minute, second, flags byte) []byte {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], nano)
	binary.BigEndian.PutUint16(payload[4:6], year)
	payload[6] = month
	payload[7] = day
	payload[8] = hour
	payload[9] = minute
	payload[10] = second
	payload[11] = flags
	return payload
}

// TestXSensUTCRoundTrip is §8 scenario 2: an MtData2 frame with a single
// UtcTime record decodes to one StampedQuantity(ut, 1536569876.343, stamp).
func TestXSensUTCRoundTrip(t *testing.T) {
	rec := utcTimeRecord(343000000, 2018, 9, 10, 8, 57, 56, 0x04)
	did := make([]byte, 0, 3+len(rec))
	did = append(did, byte(DIDUtcTime>>8), byte(DIDUtcTime), byte(len(rec)))
	did = append(did, rec...)

	frameBytes := Encode(MIDMtData2, did)

	fp := &FrameParser{}
	fp.Feed(frameBytes)
	res, ok := fp.Next()
	require.True(t, ok)
	require.False(t, res.ChecksumBad)
	assert.Equal(t, byte(MIDMtData2), res.Frame.MID)

	samples := DecodeDataIdentifiers(res.Frame.Payload, true)
	require.Len(t, samples, 1)
	assert.Equal(t, quantity.UT, samples[0].Quantity)
	assert.InDelta(t, 1536569876.343, samples[0].Value, 1e-6)
}

func TestChecksumRejectsBitFlip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	frameBytes := Encode(MIDMtData2, payload)
	// Flip one bit in the payload.
	frameBytes[5] ^= 0x01

	fp := &FrameParser{}
	fp.Feed(frameBytes)
	res, ok := fp.Next()
	require.True(t, ok)
	assert.True(t, res.ChecksumBad)
}

func TestFrameParserResynchronisesAfterJunk(t *testing.T) {
	good := Encode(MIDGotoConfigAck, nil)
	junk := []byte{0x00, 0x11, 0x22, 0xFA, 0x00}
	fp := &FrameParser{}
	fp.Feed(append(junk, good...))
	res, ok := fp.Next()
	require.True(t, ok)
	assert.False(t, res.ChecksumBad)
	assert.Equal(t, byte(MIDGotoConfigAck), res.Frame.MID)
}

func TestFrameParserAccumulatesPartialFrame(t *testing.T) {
	full := Encode(MIDGotoConfigAck, []byte{1, 2, 3})
	fp := &FrameParser{}
	fp.Feed(full[:3])
	_, ok := fp.Next()
	assert.False(t, ok)
	fp.Feed(full[3:])
	res, ok := fp.Next()
	require.True(t, ok)
	assert.False(t, res.ChecksumBad)
}

func TestAccelerationFlip(t *testing.T) {
	payload := []float64{1.0, 2.0, 3.0}
	flipped := flipVector(3, true, payload)
	assert.Equal(t, []float64{1.0, -2.0, -3.0}, flipped)
	unflipped := flipVector(3, false, payload)
	assert.Equal(t, payload, unflipped)
}

func TestEulerConvertUnflipped(t *testing.T) {
	out := eulerConvert(3, false, []float64{0, 0, 0})
	assert.InDelta(t, 3.14159265, out[0], 1e-6)
}

func TestQuaternionConvertFlipped(t *testing.T) {
	out := quaternionConvert(4, true, []float64{1, 1, 1, 1})
	assert.Equal(t, []float64{1, 1, -1, -1}, out)
}
