package injector

import (
	"github.com/zeusync/trackdrive/internal/core/events/bus"
	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/server"
)

// Telemetry is the wired streaming stack used by the serve command.
type Telemetry struct {
	Logger *log.Logger
	Bus    bus.EventBus
	Hub    *server.TelemetryHub
	Server *server.Server
}

func ProvideLogger(level log.Level) *log.Logger {
	return log.New(level)
}

// ProvideBus returns a bus that reports deliveries to logger at debug level.
func ProvideBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.LogObserver(logger))
	return b
}
