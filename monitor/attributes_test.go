package monitor

import (
	"testing"

	"github.com/eddielth/airtouch-telemetry/airtouch"
	"github.com/eddielth/airtouch-telemetry/telemetry"
)

func fullZone() (*airtouch.AirConditioner, *airtouch.Zone) {
	aircon := &airtouch.AirConditioner{
		ID:                 1,
		Name:               "Downstairs",
		PowerState:         airtouch.AcPowerOn,
		ActiveMode:         airtouch.AcModeCool,
		ActiveFanSpeed:     airtouch.FanSpeedHigh,
		CurrentTemperature: airtouch.Float64(23.5),
		TargetTemperature:  airtouch.Float64(22),
	}
	zone := &airtouch.Zone{
		ID:                 2,
		Name:               "Lounge",
		PowerState:         airtouch.ZonePowerOn,
		ControlMethod:      airtouch.ControlTemperature,
		CurrentTemperature: airtouch.Float64(22.8),
		TargetTemperature:  airtouch.Float64(22),
		OpenPercentage:     airtouch.Float64(80),
		Spill:              true,
		LowBattery:         false,
	}
	return aircon, zone
}

// TestBuildZoneAttributesMandatoryKeys verifies that all mandatory keys are
// present with the expected values and types.
func TestBuildZoneAttributesMandatoryKeys(t *testing.T) {
	aircon, zone := fullZone()
	attrs := BuildZoneAttributes("192.168.1.50", aircon, zone)

	tests := []struct {
		key  string
		want telemetry.Value
	}{
		{"airtouch.ac.id", telemetry.Int(1)},
		{"airtouch.ac.name", telemetry.Str("Downstairs")},
		{"airtouch.zone.id", telemetry.Int(2)},
		{"airtouch.zone.name", telemetry.Str("Lounge")},
		{"airtouch.host", telemetry.Str("192.168.1.50")},
		{"airtouch.zone.powerState", telemetry.Int(1)},
		{"airtouch.zone.controlMethod", telemetry.Str("TEMPERATURE")},
		{"airtouch.zone.spill", telemetry.Int(1)},
		{"airtouch.zone.lowBattery", telemetry.Int(0)},
		{"airtouch.aircon.powerState", telemetry.Str("ON")},
		{"airtouch.aircon.activeMode", telemetry.Str("COOL")},
		{"airtouch.aircon.activeFanSpeed", telemetry.Str("HIGH")},
	}

	if len(tests) != 12 {
		t.Fatalf("expected 12 mandatory keys in the contract, have %d", len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := attrs[tt.key]
			if !ok {
				t.Fatalf("mandatory key %s missing", tt.key)
			}
			if got != tt.want {
				t.Errorf("key %s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// TestBuildZoneAttributesOptionalKeys verifies optional keys appear only
// when the source reading is present.
func TestBuildZoneAttributesOptionalKeys(t *testing.T) {
	aircon, zone := fullZone()

	attrs := BuildZoneAttributes("h", aircon, zone)
	for _, key := range []string{
		"airtouch.zone.setPoint",
		"airtouch.zone.openPercentage",
		"airtouch.aircon.currentTemperature",
		"airtouch.aircon.targetTemperature",
	} {
		if _, ok := attrs[key]; !ok {
			t.Errorf("optional key %s missing despite present reading", key)
		}
	}

	// Strip every optional reading; the keys must be omitted, not zeroed.
	aircon.CurrentTemperature = nil
	aircon.TargetTemperature = nil
	zone.TargetTemperature = nil
	zone.OpenPercentage = nil

	attrs = BuildZoneAttributes("h", aircon, zone)
	if len(attrs) != 12 {
		t.Errorf("expected exactly the 12 mandatory keys, got %d", len(attrs))
	}
	for _, key := range []string{
		"airtouch.zone.setPoint",
		"airtouch.zone.openPercentage",
		"airtouch.aircon.currentTemperature",
		"airtouch.aircon.targetTemperature",
	} {
		if _, ok := attrs[key]; ok {
			t.Errorf("optional key %s present despite absent reading", key)
		}
	}
}

// TestBuildZoneAttributesNameFallbacks verifies the AC-<id> and Zone-<id>
// display name fallbacks.
func TestBuildZoneAttributesNameFallbacks(t *testing.T) {
	aircon, zone := fullZone()
	aircon.Name = ""
	zone.Name = ""

	attrs := BuildZoneAttributes("h", aircon, zone)

	if got := attrs["airtouch.ac.name"]; got != telemetry.Str("AC-1") {
		t.Errorf("ac name fallback = %v, want AC-1", got)
	}
	if got := attrs["airtouch.zone.name"]; got != telemetry.Str("Zone-2") {
		t.Errorf("zone name fallback = %v, want Zone-2", got)
	}
}
