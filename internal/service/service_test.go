package service

import (
	"testing"

	sensact "github.com/orca-st/sensact"
	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeviceUnknownTypeIsConfigError(t *testing.T) {
	cfg := config.DeviceConfig{Type: "no-such-type", Name: "d0"}
	_, _, err := buildDevice(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, sensact.IsCode(err, sensact.ErrConfig))
}

func TestBuildProcessorUnknownTypeIsConfigError(t *testing.T) {
	cfg := config.ProcessorConfig{Type: "no-such-type", Name: "p0"}
	_, err := buildProcessor(cfg)
	require.Error(t, err)
	assert.True(t, sensact.IsCode(err, sensact.ErrConfig))
}

func TestBuildDummyDevice(t *testing.T) {
	cfg := config.DeviceConfig{Type: "dummy", Name: "d0", Options: map[string]any{"quantity": "ax", "value": 1.5}}
	tr, proto, err := buildDevice(cfg, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, tr)
	assert.NotNil(t, proto)
}

func TestInferTransportKind(t *testing.T) {
	cases := []struct {
		connStr string
		want    transport.Kind
	}{
		{"1234:abcd", transport.KindUSB},
		{"1234:abcd,1", transport.KindUSB},
		{"/dev/ttyUSB0", transport.KindSerial},
		{"COM3", transport.KindSerial},
		{"192.168.1.1:502", transport.KindTCP},
		{"sensors.local", transport.KindTCP},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, inferTransportKind(c.connStr), c.connStr)
	}
}

func TestTickCounterAdvance(t *testing.T) {
	var c tickCounter
	var sawTen, sawSixty, sawFiveMin, sawHour int
	for i := 0; i < 3600; i++ {
		t := c.Advance()
		if t.Ten {
			sawTen++
		}
		if t.Sixty {
			sawSixty++
		}
		if t.FiveMin {
			sawFiveMin++
		}
		if t.Hour {
			sawHour++
		}
	}
	assert.Equal(t, 360, sawTen)
	assert.Equal(t, 60, sawSixty)
	assert.Equal(t, 12, sawFiveMin)
	assert.Equal(t, 1, sawHour)
}

func TestTickCounterSixtyImpliesTen(t *testing.T) {
	var c tickCounter
	for i := 0; i < 120; i++ {
		tk := c.Advance()
		if tk.Sixty {
			assert.True(t, tk.Ten)
		}
	}
}

// Rotation behavior for the shared log sink (internal/logging.RotatingWriter)
// is covered by internal/logging/rotate_test.go.

func TestAttachesToEmptyDevicesMatchesAll(t *testing.T) {
	cfg := config.ProcessorConfig{Devices: nil}
	assert.True(t, attachesTo(cfg, "anything"))
}

func TestAttachesToNamedDevices(t *testing.T) {
	cfg := config.ProcessorConfig{Devices: []string{"imu0", "imu1"}}
	assert.True(t, attachesTo(cfg, "imu1"))
	assert.False(t, attachesTo(cfg, "imu2"))
}
