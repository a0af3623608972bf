// Package simulator provides a configuration driven AirTouch controller
// simulator. It implements the airtouch discovery and controller interfaces
// with random-walk zone temperatures, so the pipeline can run and be tested
// without controller hardware on the network.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/config"
	"github.com/eddielth/airtouch-telemetry/logger"
)

// Discoverer serves the simulated controllers defined in configuration.
type Discoverer struct {
	controllers []*Controller
}

// NewDiscoverer builds one simulated controller per configuration entry.
func NewDiscoverer(cfg config.SimulatorConfig) *Discoverer {
	controllers := make([]*Controller, 0, len(cfg.Controllers))
	for i, c := range cfg.Controllers {
		controllers = append(controllers, newController(i, c))
	}
	return &Discoverer{controllers: controllers}
}

// Discover returns the simulated controllers, restricted to targetHost when
// given. An empty result is not an error.
func (d *Discoverer) Discover(ctx context.Context, targetHost string) ([]airtouch.Controller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found []airtouch.Controller
	for _, controller := range d.controllers {
		if targetHost != "" && controller.host != targetHost {
			continue
		}
		found = append(found, controller)
	}

	return found, nil
}

// Controllers returns all simulated controllers, for direct use in tests.
func (d *Discoverer) Controllers() []*Controller {
	return d.controllers
}

// Controller is one simulated AirTouch system.
type Controller struct {
	name        string
	host        string
	interval    time.Duration
	unreachable bool

	mu      sync.Mutex
	aircons []*airtouch.AirConditioner
	subs    map[int][]airtouch.StatusSubscriber
	rnd     *rand.Rand

	started bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func newController(index int, cfg config.SimControllerConfig) *Controller {
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("AirTouch-%d", index+1)
	}
	host := cfg.Host
	if host == "" {
		host = fmt.Sprintf("192.168.1.%d", 50+index)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	c := &Controller{
		name:        name,
		host:        host,
		interval:    interval,
		unreachable: cfg.Unreachable,
		subs:        make(map[int][]airtouch.StatusSubscriber),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano() + int64(index))),
		done:        make(chan struct{}),
	}

	for acID, acCfg := range cfg.AirConditioners {
		aircon := &airtouch.AirConditioner{
			ID:             acID,
			Name:           acCfg.Name,
			PowerState:     airtouch.AcPowerOn,
			ActiveMode:     airtouch.AcModeCool,
			ActiveFanSpeed: airtouch.FanSpeedAuto,
		}
		if acCfg.TargetTemperature != 0 {
			aircon.TargetTemperature = airtouch.Float64(acCfg.TargetTemperature)
		}

		for zoneID, zoneCfg := range acCfg.Zones {
			zone := &airtouch.Zone{
				ID:            zoneID,
				Name:          zoneCfg.Name,
				PowerState:    airtouch.ZonePowerOn,
				ControlMethod: airtouch.ControlTemperature,
			}
			if zoneCfg.Sensor {
				zone.CurrentTemperature = airtouch.Float64(zoneCfg.BaseTemperature)
			}
			if zoneCfg.TargetTemperature != 0 {
				zone.TargetTemperature = airtouch.Float64(zoneCfg.TargetTemperature)
				zone.OpenPercentage = airtouch.Float64(100)
			}
			aircon.Zones = append(aircon.Zones, zone)
		}

		c.aircons = append(c.aircons, aircon)
	}

	return c
}

// Init simulates the connection handshake and starts the notification
// loop. An unreachable controller fails here, like hardware that answered
// discovery but refuses a session.
func (c *Controller) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.unreachable {
		return fmt.Errorf("controller did not accept the connection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		c.started = true
		c.wg.Add(1)
		go c.notifyLoop()
	}

	return nil
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) Host() string {
	return c.host
}

// AirConditioners returns a snapshot of the current state.
func (c *Controller) AirConditioners() []*airtouch.AirConditioner {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*airtouch.AirConditioner, 0, len(c.aircons))
	for _, aircon := range c.aircons {
		ac := *aircon
		ac.CurrentTemperature = copyFloat(aircon.CurrentTemperature)
		ac.TargetTemperature = copyFloat(aircon.TargetTemperature)
		ac.Zones = make([]*airtouch.Zone, 0, len(aircon.Zones))
		for _, zone := range aircon.Zones {
			z := *zone
			z.CurrentTemperature = copyFloat(zone.CurrentTemperature)
			z.TargetTemperature = copyFloat(zone.TargetTemperature)
			z.OpenPercentage = copyFloat(zone.OpenPercentage)
			ac.Zones = append(ac.Zones, &z)
		}
		snapshot = append(snapshot, &ac)
	}

	return snapshot
}

// Subscribe registers a status subscriber for one air conditioner.
func (c *Controller) Subscribe(acID int, sub airtouch.StatusSubscriber) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if acID < 0 || acID >= len(c.aircons) {
		return fmt.Errorf("unknown AC %d", acID)
	}

	c.subs[acID] = append(c.subs[acID], sub)
	return nil
}

// Stop ends the notification loop. The real pipeline never calls this (the
// process exits instead); tests do.
func (c *Controller) Stop() {
	c.mu.Lock()
	started := c.started
	c.started = false
	c.mu.Unlock()

	if started {
		close(c.done)
		c.wg.Wait()
	}
}

func (c *Controller) notifyLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Step()
		case <-c.done:
			return
		}
	}
}

// Step advances the simulation one tick: every zone temperature takes a
// small random walk, then subscribers are notified in registration order.
func (c *Controller) Step() {
	c.mu.Lock()
	for _, aircon := range c.aircons {
		for _, zone := range aircon.Zones {
			if zone.CurrentTemperature == nil {
				continue
			}
			*zone.CurrentTemperature += (c.rnd.Float64() - 0.5) * 0.4
		}
	}

	subs := make(map[int][]airtouch.StatusSubscriber, len(c.subs))
	for acID, list := range c.subs {
		subs[acID] = append([]airtouch.StatusSubscriber(nil), list...)
	}
	c.mu.Unlock()

	for acID := range c.aircons {
		for _, sub := range subs[acID] {
			sub(acID)
		}
	}

	logger.Debug("simulated status update for %s", c.name)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
