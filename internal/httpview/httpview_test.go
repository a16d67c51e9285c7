package httpview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/processor"
	"github.com/orca-st/sensact/internal/quantity"
	"github.com/orca-st/sensact/internal/sample"
)

type noopTransport struct{}

func (noopTransport) Open(context.Context, string) error            { return nil }
func (noopTransport) ReadSome(context.Context, []byte) (int, error) { return 0, nil }
func (noopTransport) WriteAll(context.Context, []byte) error        { return nil }
func (noopTransport) Cancel()                                       {}
func (noopTransport) Close() error                                  { return nil }

type noopProtocol struct{}

func (noopProtocol) Initialize(context.Context, *device.Engine) error { return nil }
func (noopProtocol) ChunkSize() int                                   { return 0 }
func (noopProtocol) HandleData(float64, []byte)                       {}

type fakeProcessor struct{ snapshot any }

func (f *fakeProcessor) InsertValue(sample.Quantity)        {}
func (f *fakeProcessor) Name() string                       { return "fake" }
func (f *fakeProcessor) Snapshot() any                       { return f.snapshot }
func (f *fakeProcessor) ModbusRegister(int) (uint16, bool)   { return 0, false }

func TestIndexServesHTML(t *testing.T) {
	s := New(nil, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownPathReturns404(t *testing.T) {
	s := New(nil, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeviceNotFoundReturns404(t *testing.T) {
	s := New(nil, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/devices/0", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessorSnapshotServesJSON(t *testing.T) {
	p := &fakeProcessor{snapshot: processor.StatsSnapshot{N: 5, Mean: 1.1, StdDev: 0.1}}
	s := New(nil, []ProcessorEntry{{Name: "stats0", Processor: p}}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/processors/stats0", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got processor.StatsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.N)
	assert.InDelta(t, 1.1, got.Mean, 1e-9)
}

func TestDeviceCacheServesLatestValues(t *testing.T) {
	c := cache.New(nil, false)
	c.Insert(sample.Quantity{Quantity: quantity.AX, Value: 1.5, Stamp: 10.0})
	eng := device.New("imu0", "", noopTransport{}, noopProtocol{}, nil)

	s := New([]DeviceEntry{{Name: "imu0", Engine: eng, Cache: c}}, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/devices/imu0", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name string                   `json:"name"`
		Data map[string]quantityPoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "imu0", body.Name)
	require.Contains(t, body.Data, "ax")
	assert.Equal(t, 1.5, body.Data["ax"].Value)
}
