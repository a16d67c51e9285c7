package lineparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-st/sensact/internal/quantity"
)

// TestRegexFilterScenario is §8 scenario 1.
func TestRegexFilterScenario(t *testing.T) {
	var mult, off [maxGroups]float64
	var format [maxGroups]Format
	mult[0] = 3.1415927
	format[0] = FormatFloat

	f, err := NewFilter(quantity.AX, `^([0-2]),[0-2]`, mult, off, format)
	require.NoError(t, err)

	scanner := NewScanner([]*Filter{f})
	samples := scanner.Feed("1,0,224,69767,18.927,18.984,27.366,0.630\n", 1000.0)

	require.Len(t, samples, 1)
	assert.Equal(t, quantity.AX, samples[0].Quantity)
	assert.InDelta(t, 3.1415927, samples[0].Value, 1e-9)
	assert.Equal(t, 1000.0, samples[0].Stamp)
}

func TestScannerRetainsUnmatchedTail(t *testing.T) {
	var mult, off [maxGroups]float64
	var format [maxGroups]Format
	mult[0] = 1.0
	format[0] = FormatFloat
	f, err := NewFilter(quantity.AX, `^(\d+)\n`, mult, off, format)
	require.NoError(t, err)

	scanner := NewScanner([]*Filter{f})
	samples := scanner.Feed("42", 1.0)
	assert.Empty(t, samples)
	assert.Equal(t, "42", scanner.pending)

	samples = scanner.Feed("\n", 2.0)
	require.Len(t, samples, 1)
	assert.Equal(t, 42.0, samples[0].Value)
}

func TestDecodeFloatCommaDecimalSeparator(t *testing.T) {
	v, err := decodeFloat("3,14")
	require.NoError(t, err)
	assert.InDelta(t, 3.14, v, 1e-9)
}

func TestDecodeFloatThousandsSeparatorStripped(t *testing.T) {
	v, err := decodeFloat("1,234.5")
	require.NoError(t, err)
	assert.InDelta(t, 1234.5, v, 1e-9)
}

func TestDecodeDateTimeRFC3339(t *testing.T) {
	v, err := decodeDateTime("2021-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}

func TestDecodeDateTimeSpaceSeparated(t *testing.T) {
	v, err := decodeDateTime("2021-01-02 03:04:05.5")
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}

func TestMultipleIterationsUntilDry(t *testing.T) {
	var mult, off [maxGroups]float64
	var format [maxGroups]Format
	mult[0] = 1.0
	format[0] = FormatFloat
	f, err := NewFilter(quantity.AX, `(\d+);`, mult, off, format)
	require.NoError(t, err)

	scanner := NewScanner([]*Filter{f})
	samples := scanner.Feed("1;2;3;", 0.0)
	require.Len(t, samples, 3)
	assert.Equal(t, 1.0, samples[0].Value)
	assert.Equal(t, 2.0, samples[1].Value)
	assert.Equal(t, 3.0, samples[2].Value)
}
