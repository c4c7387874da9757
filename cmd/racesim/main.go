package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/race"
	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
	"github.com/zeusync/trackdrive/internal/injector"
	"github.com/zeusync/trackdrive/internal/server"
)

// viewStep is the simulated tick length; viewTick paces it in real time.
const (
	viewStep  = 1.0 / 120
	viewTick  = time.Second / 120
	fleetStep = 1.0 / 60
)

var errDiverged = errors.New("replay does not reproduce")

type options struct {
	mode       string
	replayPath string
	trackDir   string
	tuningPath string
	addr       string
	logLevel   string
	cars       int
	workers    int
	maxTicks   int
}

func main() {
	var opts options
	flag.StringVar(&opts.mode, "mode", "view", "view, resim, serve or fleet")
	flag.StringVar(&opts.replayPath, "replay", "", "replay file")
	flag.StringVar(&opts.trackDir, "track", "", "track directory, overrides the replay's track path")
	flag.StringVar(&opts.tuningPath, "tuning", "", "yaml tuning file")
	flag.StringVar(&opts.addr, "addr", ":8090", "telemetry listen address for serve")
	flag.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.IntVar(&opts.cars, "cars", 8, "fleet size")
	flag.IntVar(&opts.workers, "workers", 4, "fleet and resim workers")
	flag.IntVar(&opts.maxTicks, "max-ticks", 60*60*5, "fleet tick limit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "racesim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	tuning := vehicle.DefaultTuning()
	if opts.tuningPath != "" {
		var err error
		if tuning, err = vehicle.LoadTuningFile(opts.tuningPath); err != nil {
			return err
		}
	}

	if opts.mode == "serve" {
		return serve(ctx, opts)
	}

	logger := log.New(log.ParseLevel(opts.logLevel))
	defer func() { _ = logger.Sync() }()

	switch opts.mode {
	case "view":
		v, err := race.OpenViewer(opts.replayPath, opts.trackDir, race.WithLogger(logger))
		if err != nil {
			return err
		}
		v.Run(viewStep)
		return nil
	case "resim":
		return resim(ctx, opts, tuning, logger)
	case "fleet":
		return fleet(ctx, opts, tuning, logger)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}

func resim(ctx context.Context, opts options, tuning vehicle.Tuning, logger log.Log) error {
	l, err := replay.Load(opts.replayPath)
	if err != nil {
		return err
	}
	if l.Len() == 0 {
		return fmt.Errorf("%s: %w", opts.replayPath, replay.ErrEmptyReplay)
	}
	dir := opts.trackDir
	if dir == "" {
		dir = l.TrackPath
	}
	if dir == "" {
		return race.ErrNoTrackPath
	}
	trk, err := track.Load(dir)
	if err != nil {
		return err
	}

	results, err := race.VerifyAll(ctx, trk, []*replay.Log{l}, tuning, opts.workers)
	if err != nil {
		return err
	}
	v := results[0]
	logger.Info("resimulated",
		log.String("replay", opts.replayPath),
		log.Int("frames", v.Frames),
		log.Uint64("original", v.Original),
		log.Uint64("resimulated", v.Resimulated),
		log.Bool("match", v.Match()))
	if !v.Match() {
		return fmt.Errorf("%w: frame %d", errDiverged, v.Diverged)
	}
	return nil
}

func fleet(ctx context.Context, opts options, tuning vehicle.Tuning, logger log.Log) error {
	if opts.trackDir == "" {
		return race.ErrNoTrackPath
	}
	trk, err := track.Load(opts.trackDir)
	if err != nil {
		return err
	}
	f, err := race.NewFleet(trk, tuning, opts.cars, opts.workers, race.WithLogger(logger))
	if err != nil {
		return err
	}
	results, err := f.Drive(ctx, race.SensorDriver(60), fleetStep, opts.maxTicks)
	if err != nil {
		return err
	}
	for i, res := range results {
		logger.Info("car finished",
			log.String("run", f.IDs()[i]),
			log.String("status", res.Status.String()),
			log.Float64("time", res.Time))
	}
	return nil
}

// serve plays the replay in real time and streams it to websocket clients
// until the replay ends or the process is interrupted.
func serve(ctx context.Context, opts options) error {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = opts.addr
	tel, err := injector.InitializeTelemetry(cfg, log.ParseLevel(opts.logLevel))
	if err != nil {
		return err
	}
	defer func() { _ = tel.Logger.Sync() }()

	v, err := race.OpenViewer(opts.replayPath, opts.trackDir, race.WithBus(tel.Bus), race.WithLogger(tel.Logger))
	if err != nil {
		return err
	}
	if err = tel.Server.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(viewTick)
	defer ticker.Stop()
loop:
	for !v.Done() {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			v.Step(viewStep)
		}
	}
	tel.Logger.Info("replay streamed", log.String("track", v.Track().Dir))

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return tel.Server.Stop(shutdown)
}
