package service

import (
	"github.com/orca-st/sensact/internal/config"
	"github.com/orca-st/sensact/internal/processor"
	"github.com/orca-st/sensact/internal/quantity"
)

func init() {
	RegisterProcessorFactory("stats", buildStatsProcessor)
}

func buildStatsProcessor(cfg config.ProcessorConfig) (processor.Processor, error) {
	filter := make(processor.Filter, len(cfg.Filter))
	for _, name := range cfg.Filter {
		if q, ok := quantity.ByName(name); ok {
			filter[q] = true
		}
	}
	window := cfg.Parameters["window"]
	if window <= 0 {
		window = 1.0
	}
	return processor.NewRollingStats(cfg.Name, filter, window), nil
}
