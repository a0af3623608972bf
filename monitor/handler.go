package monitor

import (
	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/logger"
	"github.com/eddielth/airtouch-telemetry/telemetry"
	"github.com/eddielth/airtouch-telemetry/transformer"
	"github.com/eddielth/airtouch-telemetry/validator"
)

// Recorder receives fully built samples. *telemetry.Gauge satisfies it.
type Recorder interface {
	Set(value float64, attrs telemetry.Attributes)
}

// Handler reacts to one controller's status notifications: it reads the
// changed air conditioner's live state and records one sample per zone
// with a valid temperature reading.
type Handler struct {
	controller   airtouch.Controller
	recorder     Recorder
	transformers *transformer.Manager // optional
	check        validator.Validator  // optional
}

// NewHandler creates a handler for one controller. transformers and check
// may be nil.
func NewHandler(controller airtouch.Controller, recorder Recorder, transformers *transformer.Manager, check validator.Validator) *Handler {
	return &Handler{
		controller:   controller,
		recorder:     recorder,
		transformers: transformers,
		check:        check,
	}
}

// OnACStatus handles a status notification for the air conditioner with
// the given ID. State is re-read from the controller on every call, never
// cached.
func (h *Handler) OnACStatus(acID int) {
	var aircon *airtouch.AirConditioner
	for _, ac := range h.controller.AirConditioners() {
		if ac.ID == acID {
			aircon = ac
			break
		}
	}
	if aircon == nil {
		logger.Warn("status notification for unknown AC %d on %s", acID, airtouch.ID(h.controller))
		return
	}

	logger.Info("telemetry update received for AC %d (%s)", acID, acName(aircon))

	for _, zone := range aircon.Zones {
		h.recordZone(aircon, zone)
	}
}

// recordZone builds and records one zone's sample. A failure here must not
// block sibling zones of the same notification, so anything thrown while
// formatting is caught and logged.
func (h *Handler) recordZone(aircon *airtouch.AirConditioner, zone *airtouch.Zone) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("failed to record sample for zone '%s': %v", zoneName(zone), r)
		}
	}()

	if zone.CurrentTemperature == nil {
		logger.Info("skipping metric for zone '%s' due to no temperature reading", zoneName(zone))
		return
	}

	if h.check != nil {
		if err := h.check.Validate(zone); err != nil {
			logger.Warn("skipping metric for zone '%s': implausible reading: %v", zoneName(zone), err)
			return
		}
	}

	attrs := BuildZoneAttributes(h.controller.Host(), aircon, zone)

	if h.transformers != nil {
		transformed, err := h.transformers.Transform(h.controller.Name(), attrs)
		if err != nil {
			logger.Error("attribute transform failed for zone '%s', recording untransformed: %v", zoneName(zone), err)
		} else {
			attrs = transformed
		}
	}

	h.recorder.Set(*zone.CurrentTemperature, attrs)
	logger.Debug("recorded zone temperature %.1f for zone '%s'", *zone.CurrentTemperature, zoneName(zone))
}
