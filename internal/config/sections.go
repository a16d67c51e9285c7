package config

import (
	"strconv"
	"strings"
)

// LoggingConfig is the `logging` section of §6.
type LoggingConfig struct {
	Level        string
	DeviceLogDir string
}

// Logging reads the `logging` section.
func (t *Tree) Logging() LoggingConfig {
	s := t.Sub("logging")
	return LoggingConfig{
		Level:        s.GetString("level", "info"),
		DeviceLogDir: s.GetString("device_log_dir", ""),
	}
}

// HTTPConfig is the `http` section of §6.
type HTTPConfig struct {
	Enabled bool
	Address string
	Port    int
	CSS     string
}

// HTTP reads the `http` section.
func (t *Tree) HTTP() HTTPConfig {
	s := t.Sub("http")
	return HTTPConfig{
		Enabled: s.GetBool("enabled", false),
		Address: s.GetString("address", "0.0.0.0"),
		Port:    s.GetInt("port", 8080),
		CSS:     s.GetString("css", ""),
	}
}

// QuantityScaleConfig is one `{q}_min/_max/_scale/_offset/_overflow/_signed`
// group from the `modbus` section.
type QuantityScaleConfig struct {
	Min, Max             float64
	Scale, Offset        float64
	Overflow, Signed     bool
}

// ModbusConfig is the `modbus` section of §6.
type ModbusConfig struct {
	Enabled bool
	Port    int
	// Scales is keyed by quantity name; entries absent here use the
	// catalogue default (§4's Base scaler).
	Scales map[string]QuantityScaleConfig
}

// Modbus reads the `modbus` section, including any `{q}_min/_max/_scale/
// _offset/_overflow/_signed` quantity-scale overrides present among its
// keys.
func (t *Tree) Modbus() ModbusConfig {
	s := t.Sub("modbus")
	cfg := ModbusConfig{
		Enabled: s.GetBool("enabled", false),
		Port:    s.GetInt("port", 502),
		Scales:  make(map[string]QuantityScaleConfig),
	}
	suffixes := []string{"_min", "_max", "_scale", "_offset", "_overflow", "_signed"}
	seen := make(map[string]bool)
	for _, k := range s.Keys() {
		for _, suf := range suffixes {
			if strings.HasSuffix(k, suf) {
				seen[strings.TrimSuffix(k, suf)] = true
			}
		}
	}
	for q := range seen {
		cfg.Scales[q] = QuantityScaleConfig{
			Min:      s.GetFloat(q+"_min", 0),
			Max:      s.GetFloat(q+"_max", 0),
			Scale:    s.GetFloat(q+"_scale", 0),
			Offset:   s.GetFloat(q+"_offset", 0),
			Overflow: s.GetBool(q+"_overflow", false),
			Signed:   s.GetBool(q+"_signed", false),
		}
	}
	return cfg
}

// WatchdogConfig is the `watchdog` section of §6.
type WatchdogConfig struct {
	Enabled bool
}

// Watchdog reads the `watchdog` section.
func (t *Tree) Watchdog() WatchdogConfig {
	s := t.Sub("watchdog")
	return WatchdogConfig{Enabled: s.GetBool("enabled", false)}
}

// DeviceConfig is one `device{i}` entry of §6.
type DeviceConfig struct {
	Type             string
	Name             string
	Enabled          bool
	ConnectionString string
	Options          map[string]any
	EnableLogging    bool
	MaxLogFiles      int
	MaxLogSize       int
	UseAsTimeSource  bool
}

// DeviceCount reads `devices.count`.
func (t *Tree) DeviceCount() int {
	return t.GetInt("devices.count", 0)
}

// Device reads the `device{i}` entry at index i.
func (t *Tree) Device(i int) DeviceConfig {
	s := t.Sub(deviceKey(i))
	opts := s.Sub("options")
	return DeviceConfig{
		Type:             s.GetString("type", ""),
		Name:             s.GetString("name", deviceKey(i)),
		Enabled:          s.GetBool("enabled", false),
		ConnectionString: s.GetString("connection_string", ""),
		Options:          opts.data,
		EnableLogging:    s.GetBool("enable_logging", false),
		MaxLogFiles:      s.GetInt("max_log_files", 10),
		MaxLogSize:       s.GetInt("max_log_size", 10*1024*1024),
		UseAsTimeSource:  s.GetBool("use_as_time_source", false),
	}
}

func deviceKey(i int) string {
	return "device" + strconv.Itoa(i)
}

func processorKey(i int) string {
	return "processor" + strconv.Itoa(i)
}

// ProcessorConfig is one `processor{i}` entry of §6.
type ProcessorConfig struct {
	Type       string
	Name       string
	Parameters map[string]float64
	Filter     []string
	Devices    []string
}

// ProcessorCount reads `processors.count`.
func (t *Tree) ProcessorCount() int {
	return t.GetInt("processors.count", 0)
}

// Processor reads the `processor{i}` entry at index i, decoding
// `parameters` as comma-separated `k=v` floats and `filter`/`device` as
// comma-separated lists.
func (t *Tree) Processor(i int) ProcessorConfig {
	s := t.Sub(processorKey(i))
	cfg := ProcessorConfig{
		Type:       s.GetString("type", ""),
		Name:       s.GetString("name", processorKey(i)),
		Parameters: parseKV(s.GetString("parameters", "")),
		Filter:     splitNonEmpty(s.GetString("filter", "")),
		Devices:    splitNonEmpty(s.GetString("device", "")),
	}
	return cfg
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseKV(s string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range splitNonEmpty(s) {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = parseFloatOrZero(strings.TrimSpace(kv[1]))
	}
	return out
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
