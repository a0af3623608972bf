package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/logger"
	"github.com/eddielth/airtouch-telemetry/telemetry"
	"github.com/eddielth/airtouch-telemetry/transformer"
	"github.com/eddielth/airtouch-telemetry/validator"
)

// ErrNoControllers is returned when discovery completes without finding any
// controller. It is a clean outcome, not a failure.
var ErrNoControllers = errors.New("no AirTouch systems were discovered")

// Options configures an orchestrator run.
type Options struct {
	// TargetHost restricts discovery to one host when non-empty.
	TargetHost string
	// DiscoveryTimeout bounds the discovery search; zero means no bound.
	DiscoveryTimeout time.Duration
	// InitTimeout bounds each controller's handshake; zero means no bound.
	InitTimeout time.Duration
	// MetricName is the gauge recorded for every zone reading.
	MetricName string
	// Transformers optionally post-process attribute maps.
	Transformers *transformer.Manager
	// Check optionally validates zone readings before recording.
	Check validator.Validator
}

// Orchestrator runs discovery and supervises one DeviceMonitor per
// discovered controller.
type Orchestrator struct {
	discoverer airtouch.Discoverer
	pipeline   *telemetry.Pipeline
	opts       Options
}

// NewOrchestrator creates the top level driver.
func NewOrchestrator(discoverer airtouch.Discoverer, pipeline *telemetry.Pipeline, opts Options) *Orchestrator {
	if opts.MetricName == "" {
		opts.MetricName = "airtouch.zone.temperature"
	}
	return &Orchestrator{
		discoverer: discoverer,
		pipeline:   pipeline,
		opts:       opts,
	}
}

// Run discovers controllers and monitors them until ctx is cancelled. A
// monitor's failure is logged and leaves its siblings running; Run only
// returns once every monitor has unwound.
func (o *Orchestrator) Run(ctx context.Context) error {
	gauge := o.pipeline.Gauge(
		o.opts.MetricName,
		"C",
		"Current zone temperature. Other zone and AC states are included as attributes.",
	)

	if o.opts.TargetHost != "" {
		logger.Info("attempting to connect to AirTouch at %s...", o.opts.TargetHost)
	} else {
		logger.Info("searching for AirTouch systems on the local network...")
	}

	discoveryCtx := ctx
	if o.opts.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		discoveryCtx, cancel = context.WithTimeout(ctx, o.opts.DiscoveryTimeout)
		defer cancel()
	}

	controllers, err := o.discoverer.Discover(discoveryCtx, o.opts.TargetHost)
	if err != nil {
		return fmt.Errorf("discovery failed: %v", err)
	}
	if len(controllers) == 0 {
		return ErrNoControllers
	}

	logger.Info("discovered %d AirTouch system(s):", len(controllers))
	for _, controller := range controllers {
		logger.Info("  - %s", airtouch.ID(controller))
	}

	var wg sync.WaitGroup
	for _, controller := range controllers {
		handler := NewHandler(controller, gauge, o.opts.Transformers, o.opts.Check)
		mon := NewDeviceMonitor(controller, handler, o.opts.InitTimeout)

		wg.Add(1)
		go func(c airtouch.Controller) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("monitor for %s panicked: %v", airtouch.ID(c), r)
				}
			}()

			if err := mon.Run(ctx); err != nil {
				// One controller failing must not abort its siblings.
				logger.Error("%v", err)
			}
		}(controller)
	}

	wg.Wait()
	return nil
}
