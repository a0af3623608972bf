package airtouch

import (
	"context"
	"fmt"
)

// AcPowerState represents the power state of an air conditioner.
type AcPowerState int

const (
	AcPowerOff AcPowerState = iota
	AcPowerOn
	AcPowerOffAway
	AcPowerOnAway
	AcPowerSleep
)

// String names follow the controller's own vocabulary.
func (s AcPowerState) String() string {
	switch s {
	case AcPowerOff:
		return "OFF"
	case AcPowerOn:
		return "ON"
	case AcPowerOffAway:
		return "OFF_AWAY"
	case AcPowerOnAway:
		return "ON_AWAY"
	case AcPowerSleep:
		return "SLEEP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// AcMode represents the operating mode of an air conditioner.
type AcMode int

const (
	AcModeAuto AcMode = iota
	AcModeHeat
	AcModeDry
	AcModeFan
	AcModeCool
)

func (m AcMode) String() string {
	switch m {
	case AcModeAuto:
		return "AUTO"
	case AcModeHeat:
		return "HEAT"
	case AcModeDry:
		return "DRY"
	case AcModeFan:
		return "FAN"
	case AcModeCool:
		return "COOL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(m))
	}
}

// FanSpeed represents the fan speed of an air conditioner.
type FanSpeed int

const (
	FanSpeedAuto FanSpeed = iota
	FanSpeedQuiet
	FanSpeedLow
	FanSpeedMedium
	FanSpeedHigh
	FanSpeedPowerful
	FanSpeedTurbo
)

func (f FanSpeed) String() string {
	switch f {
	case FanSpeedAuto:
		return "AUTO"
	case FanSpeedQuiet:
		return "QUIET"
	case FanSpeedLow:
		return "LOW"
	case FanSpeedMedium:
		return "MEDIUM"
	case FanSpeedHigh:
		return "HIGH"
	case FanSpeedPowerful:
		return "POWERFUL"
	case FanSpeedTurbo:
		return "TURBO"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(f))
	}
}

// ZonePowerState represents the power state of a zone.
type ZonePowerState int

const (
	ZonePowerOff ZonePowerState = iota
	ZonePowerOn
)

func (s ZonePowerState) String() string {
	if s == ZonePowerOn {
		return "ON"
	}
	return "OFF"
}

// ZoneControlMethod represents how a zone regulates itself.
type ZoneControlMethod int

const (
	// ControlDamper holds the damper at a fixed open percentage.
	ControlDamper ZoneControlMethod = iota
	// ControlTemperature drives the damper from a temperature set-point.
	ControlTemperature
)

func (c ZoneControlMethod) String() string {
	if c == ControlTemperature {
		return "TEMPERATURE"
	}
	return "DAMPER"
}

// Zone is the live state of one conditioned area. Temperature and damper
// readings are pointers: nil means no sensor is fitted or the reading is
// unavailable.
type Zone struct {
	ID                 int
	Name               string
	PowerState         ZonePowerState
	ControlMethod      ZoneControlMethod
	CurrentTemperature *float64
	TargetTemperature  *float64
	OpenPercentage     *float64
	Spill              bool
	LowBattery         bool
}

// AirConditioner is the live state of one conditioning circuit and the
// ordered zones it owns.
type AirConditioner struct {
	ID                 int
	Name               string
	PowerState         AcPowerState
	ActiveMode         AcMode
	ActiveFanSpeed     FanSpeed
	CurrentTemperature *float64
	TargetTemperature  *float64
	Zones              []*Zone
}

// StatusSubscriber is invoked by a controller whenever the state of the air
// conditioner with the given ID (or any of its zones) changes. Subscribers
// for a single controller are invoked sequentially, in notification order.
type StatusSubscriber func(acID int)

// Controller is one discovered AirTouch system. Implementations own the wire
// protocol; callers only read live state and subscribe for changes.
type Controller interface {
	// Init performs the connection handshake and populates the initial
	// state. It must be called before any other method.
	Init(ctx context.Context) error

	Name() string
	Host() string

	// AirConditioners returns the controller's current view of its air
	// conditioners. The returned state is live: callers must re-read it
	// after every notification rather than caching it.
	AirConditioners() []*AirConditioner

	// Subscribe registers a subscriber for status changes of the given air
	// conditioner.
	Subscribe(acID int, sub StatusSubscriber) error
}

// Discoverer locates controllers on the local network. An empty result is
// not an error.
type Discoverer interface {
	// Discover searches for controllers. When targetHost is non-empty the
	// search is restricted to that host name or IP address.
	Discover(ctx context.Context, targetHost string) ([]Controller, error)
}

// ID returns the display identifier used in operational messages.
func ID(c Controller) string {
	return fmt.Sprintf("%s (%s)", c.Name(), c.Host())
}

// Float64 returns a pointer to v. Convenience for building zone and AC
// states.
func Float64(v float64) *float64 {
	return &v
}
