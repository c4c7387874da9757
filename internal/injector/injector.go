//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/server"
)

func InitializeTelemetry(cfg server.Config, level log.Level) (*Telemetry, error) {
	wire.Build(
		ProvideLogger,
		wire.Bind(new(log.Log), new(*log.Logger)),
		ProvideBus,
		server.NewTelemetryHub,
		server.NewServer,
		wire.Struct(new(Telemetry), "*"),
	)
	return nil, nil
}
