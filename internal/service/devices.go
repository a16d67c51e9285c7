package service

import (
	"context"
	"regexp"

	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/lineparser"
	"github.com/orca-st/sensact/internal/quantity"
	"github.com/orca-st/sensact/internal/sample"
	"github.com/orca-st/sensact/internal/transport"
	"github.com/orca-st/sensact/internal/ubx"
	"github.com/orca-st/sensact/internal/xsens"
)

func init() {
	RegisterDeviceFactory("xsens", buildXSensDevice)
	RegisterDeviceFactory("ubx", buildUBXDevice)
	RegisterDeviceFactory("regex", buildRegexDevice)
	RegisterDeviceFactory("dummy", buildDummyDevice)
}

// usbConnStr matches the USB connection-string grammar of §4.1:
// "VID:PID[,index]" in hex.
var usbConnStr = regexp.MustCompile(`^[0-9a-fA-F]{1,4}:[0-9a-fA-F]{1,4}(,\d+)?$`)

// inferTransportKind chooses a transport.Kind from a connection string's
// shape, per §4.1's three grammars (serial "device[:baud...]", USB
// "VID:PID[,index]", TCP "host[:port]"). A leading '/' or a drive-style
// "COM" prefix marks a local device path (serial); a bare hex:hex pair
// marks USB; anything else is treated as a TCP host[:port].
func inferTransportKind(connStr string) transport.Kind {
	switch {
	case usbConnStr.MatchString(connStr):
		return transport.KindUSB
	case len(connStr) > 0 && (connStr[0] == '/' || hasWindowsComPrefix(connStr)):
		return transport.KindSerial
	default:
		return transport.KindTCP
	}
}

func hasWindowsComPrefix(s string) bool {
	return len(s) >= 3 && (s[:3] == "COM" || s[:3] == "com")
}

func optBool(opts map[string]any, key string, def bool) bool {
	if v, ok := opts[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func optInt(opts map[string]any, key string, def int) int {
	if v, ok := opts[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

func optString(opts map[string]any, key, def string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func buildXSensDevice(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error) {
	t, err := transport.New(inferTransportKind(cfg.ConnectionString))
	if err != nil {
		return nil, nil, err
	}
	opts := xsens.Options{
		FlipAxes:        optBool(cfg.Options, "flip_axes", true),
		FilterProfile:   byte(optInt(cfg.Options, "filter_profile", 0)),
		ChunkSize:       optInt(cfg.Options, "chunk_size", 0),
		UseAsTimeSource: cfg.UseAsTimeSource,
	}
	if opts.UseAsTimeSource && clk != nil {
		clk.SetAdjustRate(clock.XSensAdjustRate)
	}
	return t, xsens.NewProtocol(opts, sink), nil
}

var ubxDynModels = map[string]ubx.DynModel{
	"portable": ubx.DynPortable, "stationary": ubx.DynStationary,
	"pedestrian": ubx.DynPedestrian, "automotive": ubx.DynAutomotive,
	"sea": ubx.DynSea, "airborne1g": ubx.DynAirborne1G,
	"airborne2g": ubx.DynAirborne2G, "airborne4g": ubx.DynAirborne4G,
	"wristwatch": ubx.DynWristWatch, "bike": ubx.DynBike,
}

var ubxGNSSTypes = map[string]ubx.GNSSType{
	"glonass": ubx.GNSSGlonass, "galileo": ubx.GNSSGalileo, "beidou": ubx.GNSSBeidou,
}

func buildUBXDevice(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error) {
	t, err := transport.New(inferTransportKind(cfg.ConnectionString))
	if err != nil {
		return nil, nil, err
	}
	opts := ubx.Options{
		DynModel:  ubxDynModels[optString(cfg.Options, "dyn_model", "portable")],
		GNSS:      ubxGNSSTypes[optString(cfg.Options, "gnss", "glonass")],
		NavRateMs: uint16(optInt(cfg.Options, "nav_rate_ms", 0)),
	}
	return t, ubx.NewProtocol(opts, sink), nil
}

// buildFilters decodes the `filters` option list of a regex device:
// a []any of map[string]any each giving `quantity`, `expr`, and parallel
// `multiplier`/`offset`/`format` lists aligned with expr's capture
// groups.
func buildFilters(opts map[string]any) ([]*lineparser.Filter, error) {
	raw, _ := opts["filters"].([]any)
	filters := make([]*lineparser.Filter, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		qName, _ := m["quantity"].(string)
		q, ok := quantity.ByName(qName)
		if !ok {
			continue
		}
		expr, _ := m["expr"].(string)

		var mult, off [10]float64
		var format [10]lineparser.Format
		fillFloats(&mult, m["multiplier"])
		fillFloats(&off, m["offset"])
		fillFormats(&format, m["format"])

		f, err := lineparser.NewFilter(q, expr, mult, off, format)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func fillFloats(out *[10]float64, v any) {
	list, _ := v.([]any)
	for i := 0; i < len(list) && i < 10; i++ {
		if f, ok := list[i].(float64); ok {
			out[i] = f
		}
	}
}

func fillFormats(out *[10]lineparser.Format, v any) {
	list, _ := v.([]any)
	for i := 0; i < len(list) && i < 10; i++ {
		if s, ok := list[i].(string); ok {
			out[i] = lineparser.Format(s)
		}
	}
}

func buildRegexDevice(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error) {
	t, err := transport.New(inferTransportKind(cfg.ConnectionString))
	if err != nil {
		return nil, nil, err
	}
	filters, err := buildFilters(cfg.Options)
	if err != nil {
		return nil, nil, err
	}
	return t, lineparser.NewProtocol(filters, sink), nil
}

// dummyProtocol is a synthetic data source used for testing
// configurations without hardware: it reports a single fixed quantity
// sample on Initialize and otherwise produces nothing, since HandleData
// ignores its input. It runs over dummyTransport rather than a real
// transport (a TCP transport pointed at nothing would fail to connect).
type dummyProtocol struct {
	quantity quantity.Quantity
	value    float64
	sink     *cache.Device
}

func (d *dummyProtocol) Initialize(context.Context, *device.Engine) error {
	if d.sink != nil {
		d.sink.Insert(sample.Quantity{Quantity: d.quantity, Value: d.value, Stamp: 0})
	}
	return nil
}
func (d *dummyProtocol) ChunkSize() int                { return 0 }
func (d *dummyProtocol) HandleData(float64, []byte) {}

// dummyTransport needs no hardware: Open always succeeds, ReadSome blocks
// until the context is cancelled (so the polling loop idles rather than
// busy-spinning), and WriteAll is a no-op.
type dummyTransport struct{}

func (dummyTransport) Open(context.Context, string) error { return nil }
func (dummyTransport) ReadSome(ctx context.Context, buf []byte) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
func (dummyTransport) WriteAll(context.Context, []byte) error { return nil }
func (dummyTransport) Cancel()                                {}
func (dummyTransport) Close() error                            { return nil }

func buildDummyDevice(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error) {
	qName := optString(cfg.Options, "quantity", "ax")
	q, ok := quantity.ByName(qName)
	if !ok {
		q = quantity.AX
	}
	value := 0.0
	if v, ok := cfg.Options["value"].(float64); ok {
		value = v
	}
	return dummyTransport{}, &dummyProtocol{quantity: q, value: value, sink: sink}, nil
}
