package quantity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameRoundTrip(t *testing.T) {
	for _, q := range Iter() {
		name := q.Name()
		assert.NotEmpty(t, name)
		got, ok := ByName(name)
		assert.True(t, ok)
		assert.Equal(t, q, got)
	}
}

func TestNormIdempotent(t *testing.T) {
	values := []float64{-10, -3 * math.Pi, -math.Pi, -0.1, 0, 0.1, math.Pi, 3 * math.Pi, 10}
	for _, q := range []Quantity{LO, RO, PI, YA, HDG, CRS, AX} {
		for _, v := range values {
			once := Norm(q, v)
			twice := Norm(q, once)
			assert.InDelta(t, once, twice, 1e-9, "q=%v v=%v", q.Name(), v)
		}
	}
}

func TestNormWrapsIntoCanonicalInterval(t *testing.T) {
	for _, v := range []float64{-10, -math.Pi - 0.001, math.Pi, 3.5 * math.Pi} {
		n := Norm(LO, v)
		assert.GreaterOrEqual(t, n, -math.Pi)
		assert.Less(t, n, math.Pi)
	}
	for _, v := range []float64{-0.1, -10, 2 * math.Pi, 5 * math.Pi} {
		n := Norm(HDG, v)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.Less(t, n, 2*math.Pi)
	}
}

func TestNormNoWrapPassesThrough(t *testing.T) {
	assert.Equal(t, 123.456, Norm(AX, 123.456))
}

func TestDiffWrappingRangeBounds(t *testing.T) {
	cases := []struct{ a, b float64 }{
		{0.1, -0.1}, {3.0, -3.0}, {-3.1, 3.1}, {0, math.Pi - 0.001},
	}
	for _, c := range cases {
		d := Diff(LO, c.a, c.b)
		assert.GreaterOrEqual(t, d, -math.Pi)
		assert.Less(t, d, math.Pi)
	}
}

func TestDiffNoWrapIsPlainSubtraction(t *testing.T) {
	assert.Equal(t, 5.0, Diff(AX, 8.0, 3.0))
}

func TestScaleRoundTripWithinResolution(t *testing.T) {
	s := NewScaler()
	for _, q := range []Quantity{AX, LA, LO, HDG} {
		b := DefaultBounds(q)
		resolution := (b.Max - b.Min) / 65536.0
		for _, frac := range []float64{0.0, 0.25, 0.5, 0.75, 0.999} {
			x := b.Min + frac*(b.Max-b.Min)
			reg := s.ScaleTo16(q, x)
			decoded := b.Min + float64(reg)/65536.0*(b.Max-b.Min)
			assert.InDelta(t, x, decoded, resolution+1e-9, "q=%v x=%v", q.Name(), x)
		}
	}
}

func TestScaleClampsOutOfRangeWhenOverflowFalse(t *testing.T) {
	s := NewScaler()
	b := DefaultBounds(AX)
	below := s.ScaleTo16(AX, b.Min-1000)
	above := s.ScaleTo16(AX, b.Max+1000)
	assert.Equal(t, uint16(0), below)
	assert.Equal(t, uint16(0xFFFF), above)
}

func TestScaleUnknownQuantityReturnsZero(t *testing.T) {
	s := &Scaler{}
	assert.Equal(t, uint16(0), s.ScaleTo16(AX, 1.0))
}
