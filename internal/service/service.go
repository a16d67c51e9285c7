package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/orca-st/sensact/internal/async"
	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/httpview"
	"github.com/orca-st/sensact/internal/logging"
	"github.com/orca-st/sensact/internal/modbusview"
	"github.com/orca-st/sensact/internal/processor"
	"github.com/orca-st/sensact/internal/quantity"
)

// deviceEntry bundles one configured device's engine, cache, and
// device-log state. The service owns all three and releases them on
// shutdown, per §5's "a device exclusively owns its transport handle,
// its cache, and its parser state."
type deviceEntry struct {
	cfg    config.DeviceConfig
	engine *device.Engine
	cache  *cache.Device
	logger *logging.RotatingWriter
}

// processorEntry bundles a configured processor with the device names it
// is attached to.
type processorEntry struct {
	cfg config.ProcessorConfig
	p   processor.Processor
}

// Service owns every device, processor, and external view built from one
// configuration tree, and drives the §4.9 periodic task.
type Service struct {
	tree      *config.Tree
	clock     *clock.Clock
	scheduler *async.Scheduler
	logger    *logging.Logger

	devices    []*deviceEntry
	processors []*processorEntry

	httpView   *httpview.Server
	httpSrv    *http.Server
	modbusSrv  *modbusview.Server
	modbusAddr string
}

// New builds a Service from tree: processors first (so devices can attach
// to them by name), then devices, then the HTTP/Modbus views over both.
// A device or processor whose type is unrecognised or whose factory
// fails is logged and skipped (ConfigError, §7); the rest of the service
// still starts.
func New(tree *config.Tree) (*Service, error) {
	sched, err := async.New()
	if err != nil {
		return nil, fmt.Errorf("service: starting scheduler: %w", err)
	}
	s := &Service{tree: tree, clock: clock.New(), scheduler: sched, logger: logging.Default()}

	for i := 0; i < tree.ProcessorCount(); i++ {
		cfg := tree.Processor(i)
		p, err := buildProcessor(cfg)
		if err != nil {
			s.logger.Warn("skipping processor", "name", cfg.Name, "err", err)
			continue
		}
		s.processors = append(s.processors, &processorEntry{cfg: cfg, p: p})
	}

	for i := 0; i < tree.DeviceCount(); i++ {
		cfg := tree.Device(i)
		c := cache.New(s.clock, cfg.UseAsTimeSource)
		for _, pe := range s.processors {
			if attachesTo(pe.cfg, cfg.Name) {
				c.AttachProcessor(pe.p)
			}
		}
		t, proto, err := buildDevice(cfg, c, s.clock)
		if err != nil {
			s.logger.Warn("skipping device", "name", cfg.Name, "err", err)
			continue
		}
		eng := device.New(cfg.Name, cfg.ConnectionString, t, proto, s.clock)
		eng.SetEnabled(cfg.Enabled)
		s.devices = append(s.devices, &deviceEntry{cfg: cfg, engine: eng, cache: c})
	}

	s.buildViews()
	return s, nil
}

// attachesTo reports whether processor cfg is configured to receive
// samples from deviceName (empty Devices means "every device").
func attachesTo(cfg config.ProcessorConfig, deviceName string) bool {
	if len(cfg.Devices) == 0 {
		return true
	}
	for _, d := range cfg.Devices {
		if d == deviceName {
			return true
		}
	}
	return false
}

func (s *Service) buildViews() {
	httpCfg := s.tree.HTTP()
	if httpCfg.Enabled {
		devEntries := make([]httpview.DeviceEntry, len(s.devices))
		for i, d := range s.devices {
			devEntries[i] = httpview.DeviceEntry{Name: d.cfg.Name, Engine: d.engine, Cache: d.cache}
		}
		procEntries := make([]httpview.ProcessorEntry, len(s.processors))
		for i, p := range s.processors {
			procEntries[i] = httpview.ProcessorEntry{Name: p.cfg.Name, Processor: p.p}
		}
		s.httpView = httpview.New(devEntries, procEntries, s.clock, httpCfg.CSS)
		s.httpSrv = &http.Server{Addr: fmt.Sprintf("%s:%d", httpCfg.Address, httpCfg.Port), Handler: s.httpView.Handler()}
	}

	modbusCfg := s.tree.Modbus()
	if modbusCfg.Enabled {
		regs := &modbusview.Registers{}
		for _, d := range s.devices {
			scaler := quantity.NewScaler()
			for name, sc := range modbusCfg.Scales {
				if q, ok := quantity.ByName(name); ok {
					scaler.Set(q, quantity.Scale{Min: sc.Min, Max: sc.Max, Multiplier: sc.Scale, Offset: sc.Offset, Overflow: sc.Overflow, Signed: sc.Signed})
				}
			}
			regs.Devices = append(regs.Devices, modbusview.DeviceEntry{Cache: d.cache, Scaler: scaler})
		}
		for _, p := range s.processors {
			regs.Processors = append(regs.Processors, p.p)
		}
		s.modbusSrv = modbusview.NewServer(regs)
		s.modbusAddr = fmt.Sprintf(":%d", modbusCfg.Port)
	}
}

// Run starts every enabled device's connect task, the external views, and
// the 1-second periodic task, then blocks until ctx is cancelled or
// SIGINT/SIGTERM arrives, per §4.9.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for _, d := range s.devices {
		if d.engine.Enabled() {
			s.connectDevice(ctx, d)
		}
	}

	if s.httpSrv != nil {
		s.scheduler.Go(func(context.Context) {
			if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("http view stopped", "err", err)
			}
		})
	}
	if s.modbusSrv != nil {
		s.scheduler.Go(func(context.Context) {
			if err := s.modbusSrv.ListenAndServe(s.modbusAddr); err != nil {
				s.logger.Error("modbus view stopped", "err", err)
			}
		})
	}

	s.scheduler.Go(func(taskCtx context.Context) { s.periodicTask(taskCtx) })

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal")
	case <-ctx.Done():
	}
	s.Shutdown()
	return nil
}

// connectDevice runs one device's connect sequence as its own scheduler
// task; on success it starts polling. Failure leaves the device
// Disconnected for the 60-second tick to retry, per §4.9's transition
// table.
func (s *Service) connectDevice(ctx context.Context, d *deviceEntry) {
	s.scheduler.Go(func(taskCtx context.Context) {
		if err := d.engine.Connect(taskCtx); err != nil {
			s.logger.Warn("device connect failed", "device", d.cfg.Name, "err", err)
			return
		}
		d.engine.StartPolling(taskCtx)
	})
}

// periodicTask is the §4.9 one-second periodic task: a 10s/60s/5min/1hour
// counter drives reconnects, device-log finalisation, and (room for)
// watchdog feeding.
func (s *Service) periodicTask(ctx context.Context) {
	var counter tickCounter
	for {
		if err := s.scheduler.Sleep(ctx, time.Second); err != nil {
			return
		}
		t := counter.Advance()
		if t.Sixty {
			s.onSixtySecondTick(ctx)
		}
	}
}

// onSixtySecondTick reconnects disabled-to-enabled devices that are
// currently Disconnected and finalises device-log setup for any device
// enabling logging that hasn't had its log writer installed yet, per
// §4.9.
func (s *Service) onSixtySecondTick(ctx context.Context) {
	loggingCfg := s.tree.Logging()
	for _, d := range s.devices {
		if d.engine.Enabled() && d.engine.State() == device.StateDisconnected {
			s.connectDevice(ctx, d)
		}
		if d.cfg.EnableLogging && d.logger == nil {
			dir := loggingCfg.DeviceLogDir
			if dir == "" {
				dir = filepath.Join(os.TempDir(), "sensact", "device-logs")
			}
			rf, err := logging.NewRotatingWriter(dir, d.cfg.Name, int64(d.cfg.MaxLogSize), d.cfg.MaxLogFiles)
			if err != nil {
				s.logger.Warn("device log setup failed", "device", d.cfg.Name, "err", err)
				continue
			}
			d.logger = rf
			d.cache.SetLogWriter(rf)
		}
	}
}

// Shutdown stops the external views first, since their listener goroutines
// are scheduler tasks that only return once told to stop, then closes the
// scheduler — cancelling the periodic task and every device task and
// waiting for all of them, views included, to return — and finally
// disconnects every device, per §5's shutdown resource policy.
func (s *Service) Shutdown() {
	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.httpSrv.Shutdown(shutdownCtx)
		cancel()
	}
	if s.modbusSrv != nil {
		s.modbusSrv.Close()
	}
	s.scheduler.Close()
	for _, d := range s.devices {
		d.engine.Disconnect()
		if d.logger != nil {
			d.logger.Close()
		}
	}
}
