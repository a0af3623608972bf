package monitor

import (
	"fmt"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/telemetry"
)

// BuildZoneAttributes flattens one air conditioner and one of its zones
// into the attribute set of a zone temperature sample. Optional readings
// are omitted when absent, never defaulted.
func BuildZoneAttributes(host string, ac *airtouch.AirConditioner, zone *airtouch.Zone) telemetry.Attributes {
	attrs := telemetry.Attributes{
		"airtouch.ac.id":     telemetry.Int(int64(ac.ID)),
		"airtouch.ac.name":   telemetry.Str(acName(ac)),
		"airtouch.zone.id":   telemetry.Int(int64(zone.ID)),
		"airtouch.zone.name": telemetry.Str(zoneName(zone)),
		"airtouch.host":      telemetry.Str(host),

		"airtouch.zone.powerState":    telemetry.Bool(zone.PowerState == airtouch.ZonePowerOn),
		"airtouch.zone.controlMethod": telemetry.Str(zone.ControlMethod.String()),
		"airtouch.zone.spill":         telemetry.Bool(zone.Spill),
		"airtouch.zone.lowBattery":    telemetry.Bool(zone.LowBattery),

		"airtouch.aircon.powerState":     telemetry.Str(ac.PowerState.String()),
		"airtouch.aircon.activeMode":     telemetry.Str(ac.ActiveMode.String()),
		"airtouch.aircon.activeFanSpeed": telemetry.Str(ac.ActiveFanSpeed.String()),
	}

	if zone.TargetTemperature != nil {
		attrs["airtouch.zone.setPoint"] = telemetry.Float(*zone.TargetTemperature)
	}
	if zone.OpenPercentage != nil {
		attrs["airtouch.zone.openPercentage"] = telemetry.Float(*zone.OpenPercentage)
	}
	if ac.CurrentTemperature != nil {
		attrs["airtouch.aircon.currentTemperature"] = telemetry.Float(*ac.CurrentTemperature)
	}
	if ac.TargetTemperature != nil {
		attrs["airtouch.aircon.targetTemperature"] = telemetry.Float(*ac.TargetTemperature)
	}

	return attrs
}

func acName(ac *airtouch.AirConditioner) string {
	if ac.Name == "" {
		return fmt.Sprintf("AC-%d", ac.ID)
	}
	return ac.Name
}

func zoneName(zone *airtouch.Zone) string {
	if zone.Name == "" {
		return fmt.Sprintf("Zone-%d", zone.ID)
	}
	return zone.Name
}
