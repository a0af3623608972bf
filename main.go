package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/config"
	"github.com/eddielth/airtouch-telemetry/logger"
	"github.com/eddielth/airtouch-telemetry/monitor"
	"github.com/eddielth/airtouch-telemetry/simulator"
	"github.com/eddielth/airtouch-telemetry/telemetry"
	"github.com/eddielth/airtouch-telemetry/transformer"
	"github.com/eddielth/airtouch-telemetry/validator"
)

// Exit codes. Supervisors distinguish a misconfigured deployment from an
// empty network and from a crash.
const (
	exitOK            = 0
	exitError         = 1
	exitConfiguration = 2
	exitNoControllers = 3
)

// msg prints operational feedback on stderr, keeping stdout clean.
func msg(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	targetHost := flag.String("host", "", "connect by host name or IP address instead of searching the network")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		msg("Error: failed to load configuration: %v", err)
		return exitConfiguration
	}

	level := cfg.Logger.Level
	if *debug {
		level = "debug"
	}
	if err := logger.InitFromConfig(level, cfg.Logger.FilePath, cfg.Logger.MaxSize, cfg.Logger.MaxBackups, cfg.Logger.Console); err != nil {
		msg("Error: failed to initialize logger: %v", err)
		return exitConfiguration
	}
	defer logger.Close()

	// The export pipeline is built before discovery so a missing credential
	// stops the process before it touches the network.
	pipeline, err := telemetry.NewPipeline(cfg.Telemetry)
	if err != nil {
		if errors.Is(err, telemetry.ErrMissingCredential) {
			msg("Error: AIRTOUCH_TELEMETRY_KEY not found in environment variables.")
		} else {
			msg("Error: failed to build telemetry pipeline: %v", err)
		}
		return exitConfiguration
	}
	defer pipeline.Close()
	pipeline.Start()

	transformers, err := transformer.NewManager(cfg.Transformers)
	if err != nil {
		msg("Error: failed to initialize attribute transformers: %v", err)
		return exitConfiguration
	}

	// Transformer scripts can be edited without restarting the process.
	err = config.WatchConfig(*configPath, func(newCfg *config.Config) error {
		for name, transformerCfg := range newCfg.Transformers {
			if err := transformers.ReloadTransformer(name, transformerCfg); err != nil {
				logger.Error("failed to reload transformer %s: %v", name, err)
				// Keep going; one bad script must not block the others.
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("failed to watch configuration file: %v", err)
	}

	var check validator.Validator
	if cfg.Validation.Enabled {
		check = &validator.RangeValidator{
			Field: "CurrentTemperature",
			Min:   cfg.Validation.MinTemperature,
			Max:   cfg.Validation.MaxTemperature,
		}
	}

	discoverer, err := newDiscoverer(cfg)
	if err != nil {
		msg("Error: %v", err)
		return exitConfiguration
	}

	host := *targetHost
	if host == "" {
		host = cfg.Discovery.TargetHost
	}

	orchestrator := monitor.NewOrchestrator(discoverer, pipeline, monitor.Options{
		TargetHost:       host,
		DiscoveryTimeout: cfg.Discovery.Timeout,
		InitTimeout:      cfg.Discovery.InitTimeout,
		MetricName:       cfg.Telemetry.MetricName,
		Transformers:     transformers,
		Check:            check,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = orchestrator.Run(ctx)
	switch {
	case ctx.Err() != nil:
		msg("Monitoring stopped by user.")
		return exitOK
	case errors.Is(err, monitor.ErrNoControllers):
		msg("No AirTouch systems were discovered.")
		return exitNoControllers
	case err != nil:
		logger.Error("an unexpected error occurred and the program has to stop: %v", err)
		return exitError
	default:
		return exitOK
	}
}

// newDiscoverer selects the discovery backend.
func newDiscoverer(cfg *config.Config) (airtouch.Discoverer, error) {
	switch cfg.Discovery.Driver {
	case "", "simulator":
		return simulator.NewDiscoverer(cfg.Simulator), nil
	default:
		return nil, fmt.Errorf("unknown discovery driver: %s", cfg.Discovery.Driver)
	}
}
