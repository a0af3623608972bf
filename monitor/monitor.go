package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/logger"
)

// DeviceMonitor owns one controller for the process lifetime: it performs
// the initialisation handshake, subscribes the handler to every air
// conditioner, emits a baseline sample set, and then parks until
// cancellation. A controller that fails to initialise is abandoned; there
// are no retries.
type DeviceMonitor struct {
	controller  airtouch.Controller
	handler     *Handler
	initTimeout time.Duration
}

// NewDeviceMonitor creates a monitor for one controller. initTimeout
// bounds the handshake; zero means no bound.
func NewDeviceMonitor(controller airtouch.Controller, handler *Handler, initTimeout time.Duration) *DeviceMonitor {
	return &DeviceMonitor{
		controller:  controller,
		handler:     handler,
		initTimeout: initTimeout,
	}
}

// Run drives the controller until ctx is cancelled. It returns an error
// only for this controller's own failures; callers decide whether siblings
// continue (they do).
func (m *DeviceMonitor) Run(ctx context.Context) error {
	initCtx := ctx
	if m.initTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, m.initTimeout)
		defer cancel()
	}

	if err := m.controller.Init(initCtx); err != nil {
		return fmt.Errorf("initialisation of %s failed: %v", airtouch.ID(m.controller), err)
	}

	// Subscribe first, then emit a baseline per AC so samples exist before
	// the first live notification.
	for _, aircon := range m.controller.AirConditioners() {
		if err := m.controller.Subscribe(aircon.ID, m.handler.OnACStatus); err != nil {
			return fmt.Errorf("failed to subscribe to AC %d on %s: %v", aircon.ID, airtouch.ID(m.controller), err)
		}
		m.handler.OnACStatus(aircon.ID)
	}

	logger.Info("continuously monitoring '%s'", airtouch.ID(m.controller))

	<-ctx.Done()
	return nil
}
