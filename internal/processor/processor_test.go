package processor

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-st/sensact/internal/quantity"
	"github.com/orca-st/sensact/internal/sample"
)

// TestRollingStatsSquareWave is §8 scenario 6: inserting (0.9, 1.1, 1.3,
// 1.1) at stamps 0.0, 0.25, 0.5, 0.75 (closing with the next period's 0.9
// at 1.0) into a 1-second window yields n=5, mean=1.1, stddev=0.1 to eight
// decimals.
func TestRollingStatsSquareWave(t *testing.T) {
	p := NewRollingStats("squarewave", nil, 1.0)
	values := []float64{0.9, 1.1, 1.3, 1.1, 0.9}
	stamps := []float64{0.0, 0.25, 0.5, 0.75, 1.0}
	for i := range values {
		p.InsertValue(sample.Quantity{Quantity: quantity.AX, Value: values[i], Stamp: stamps[i]})
	}

	snap := p.Snapshot().(StatsSnapshot)
	assert.Equal(t, 5, snap.N)
	assert.InDelta(t, 1.1, snap.Mean, 1e-8)
	assert.InDelta(t, 0.1, snap.StdDev, 1e-8)
}

func TestRollingStatsSingleSample(t *testing.T) {
	p := NewRollingStats("single", nil, 1.0)
	p.InsertValue(sample.Quantity{Quantity: quantity.AX, Value: 5.0, Stamp: 0.0})
	snap := p.Snapshot().(StatsSnapshot)
	assert.Equal(t, 1, snap.N)
	assert.Equal(t, 5.0, snap.Mean)
	assert.Equal(t, 0.0, snap.StdDev)
}

func TestRollingStatsFilterRejectsOtherQuantities(t *testing.T) {
	p := NewRollingStats("filtered", Filter{quantity.AX: true}, 1.0)
	p.InsertValue(sample.Quantity{Quantity: quantity.AY, Value: 99.0, Stamp: 0.0})
	snap := p.Snapshot().(StatsSnapshot)
	assert.Equal(t, 0, snap.N)
}

func TestRollingStatsEvictsOutsideWindow(t *testing.T) {
	p := NewRollingStats("windowed", nil, 1.0)
	p.InsertValue(sample.Quantity{Quantity: quantity.AX, Value: 0.0, Stamp: 0.0})
	p.InsertValue(sample.Quantity{Quantity: quantity.AX, Value: 10.0, Stamp: 5.0})
	snap := p.Snapshot().(StatsSnapshot)
	assert.Equal(t, 1, snap.N)
	assert.Equal(t, 10.0, snap.Mean)
}

func TestModbusRegisterOutOfRange(t *testing.T) {
	p := NewRollingStats("p", nil, 1.0)
	_, ok := p.ModbusRegister(2)
	assert.False(t, ok)
}

// TestRollingStatsConcurrentInsertDoesNotRace mirrors a processor attached
// to several devices at once (processor{i}.devices, §6): each device's
// polling goroutine calls InsertValue independently, while a reader
// concurrently calls Snapshot/ModbusRegister, the way the HTTP/Modbus view
// goroutines do. Run with -race to confirm RollingStats's mutex covers
// every access.
func TestRollingStatsConcurrentInsertDoesNotRace(t *testing.T) {
	p := NewRollingStats("shared", nil, 1000.0)
	const devices = 4
	const perDevice = 200

	var wg sync.WaitGroup
	wg.Add(devices + 1)
	for d := 0; d < devices; d++ {
		go func(d int) {
			defer wg.Done()
			for i := 0; i < perDevice; i++ {
				p.InsertValue(sample.Quantity{
					Quantity: quantity.AX,
					Value:    float64(i),
					Stamp:    float64(d*perDevice + i),
				})
			}
		}(d)
	}
	go func() {
		defer wg.Done()
		for i := 0; i < perDevice; i++ {
			_ = p.Snapshot()
			_, _ = p.ModbusRegister(0)
		}
	}()
	wg.Wait()

	snap := p.Snapshot().(StatsSnapshot)
	assert.Equal(t, devices*perDevice, snap.N)
}

func TestPutRegisterPairRoundTrips(t *testing.T) {
	out := make([]uint16, 4)
	PutRegisterPair(out, 1536569876.343)
	require.Len(t, out, 4)
	// Reassemble and compare via the same big-endian layout used by the
	// plain-map Modbus encoding (§6).
	var buf [8]byte
	for i, reg := range out {
		buf[i*2] = byte(reg >> 8)
		buf[i*2+1] = byte(reg)
	}
	var bits uint64
	for _, b := range buf {
		bits = bits<<8 | uint64(b)
	}
	assert.Equal(t, 1536569876.343, math.Float64frombits(bits))
}
