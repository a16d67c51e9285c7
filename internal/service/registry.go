// Package service implements the §4.9 service loop: it parses a
// configuration tree into devices and processors via factory registries,
// drives each device's connect/reconnect lifecycle on a 1-second periodic
// tick, and serves the HTTP and Modbus views over the resulting caches.
// Grounded on the original's device/processor factory-registry pattern
// (§5's "Registries ... live for the process lifetime and are initialised
// on first use") and the teacher's internal/async scheduler for the
// cooperative task model.
package service

import (
	"fmt"

	sensact "github.com/orca-st/sensact"
	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/processor"
	"github.com/orca-st/sensact/internal/transport"
)

// DeviceFactory builds the transport and protocol for one configured
// device. sink is the device's cache, already constructed by the service
// so the protocol can deliver samples directly to it.
type DeviceFactory func(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error)

// ProcessorFactory builds one configured processor.
type ProcessorFactory func(cfg config.ProcessorConfig) (processor.Processor, error)

var (
	deviceFactories    = map[string]DeviceFactory{}
	processorFactories = map[string]ProcessorFactory{}
)

// RegisterDeviceFactory installs fn as the builder for device type name.
// Intended to be called from package init() functions, per §5's
// initialise-on-first-use registry lifetime.
func RegisterDeviceFactory(name string, fn DeviceFactory) {
	deviceFactories[name] = fn
}

// RegisterProcessorFactory installs fn as the builder for processor type
// name.
func RegisterProcessorFactory(name string, fn ProcessorFactory) {
	processorFactories[name] = fn
}

func buildDevice(cfg config.DeviceConfig, sink *cache.Device, clk *clock.Clock) (transport.Adapter, device.Protocol, error) {
	fn, ok := deviceFactories[cfg.Type]
	if !ok {
		return nil, nil, sensact.NewDeviceError("build_device", cfg.Name, sensact.ErrConfig,
			fmt.Sprintf("unknown device type %q", cfg.Type))
	}
	return fn(cfg, sink, clk)
}

func buildProcessor(cfg config.ProcessorConfig) (processor.Processor, error) {
	fn, ok := processorFactories[cfg.Type]
	if !ok {
		return nil, sensact.NewError("build_processor", sensact.ErrConfig,
			fmt.Sprintf("unknown processor type %q", cfg.Type))
	}
	return fn(cfg)
}
