package race

import (
	"github.com/zeusync/trackdrive/internal/core/events/bus"
	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
)

// Event types published on the bus. Every event carries a Telemetry payload
// and the run id as its source.
const (
	EventStarted      = "race.started"
	EventGatePassed   = "race.gate_passed"
	EventCrashed      = "race.crashed"
	EventLapCompleted = "race.lap_completed"
	EventFrame        = "race.frame"
)

// Telemetry is the payload of every race event.
type Telemetry struct {
	RunID string        `json:"run_id"`
	Frame int           `json:"frame"`
	State vehicle.State `json:"state"`
}

// Option configures sessions, viewers and fleets.
type Option func(*options)

type options struct {
	bus    bus.EventBus
	logger log.Log
	id     string
}

// WithBus publishes race events to b.
func WithBus(b bus.EventBus) Option { return func(o *options) { o.bus = b } }

func WithLogger(l log.Log) Option { return func(o *options) { o.logger = l } }

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option { return func(o *options) { o.id = id } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNop()
	}
	return o
}

// publisher sends telemetry for one run. A nil bus makes it a no-op.
type publisher struct {
	bus    bus.EventBus
	runID  string
	logger log.Log
}

func (p publisher) publish(types []string, t Telemetry) {
	if p.bus == nil || len(types) == 0 {
		return
	}
	events := make([]bus.Event, len(types))
	for i, typ := range types {
		events[i] = bus.NewEvent(typ, p.runID, t)
	}
	if err := p.bus.PublishBatch(events...); err != nil {
		p.logger.Warn("publish race events", log.String("run", p.runID), log.Error(err))
	}
}
