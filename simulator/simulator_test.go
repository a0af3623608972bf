package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eddielth/airtouch-telemetry/config"
)

func testConfig() config.SimulatorConfig {
	return config.SimulatorConfig{
		Controllers: []config.SimControllerConfig{
			{
				Name:     "Living",
				Host:     "192.168.1.50",
				Interval: time.Hour,
				AirConditioners: []config.SimAcConfig{
					{
						Name:              "Downstairs",
						TargetTemperature: 22,
						Zones: []config.SimZoneConfig{
							{Name: "Lounge", Sensor: true, BaseTemperature: 22.5, TargetTemperature: 22},
							{Name: "Garage"},
						},
					},
				},
			},
			{
				Name:     "Bedrooms",
				Host:     "192.168.1.51",
				Interval: time.Hour,
				AirConditioners: []config.SimAcConfig{
					{Name: "Upstairs", Zones: []config.SimZoneConfig{{Name: "Master", Sensor: true, BaseTemperature: 21}}},
				},
			},
		},
	}
}

// TestDiscoverFiltersByHost verifies targeted and untargeted discovery.
func TestDiscoverFiltersByHost(t *testing.T) {
	discoverer := NewDiscoverer(testConfig())

	tests := []struct {
		name       string
		targetHost string
		want       int
	}{
		{"all controllers", "", 2},
		{"by host", "192.168.1.51", 1},
		{"unknown host", "10.0.0.1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := discoverer.Discover(context.Background(), tt.targetHost)
			if err != nil {
				t.Fatalf("discover failed: %v", err)
			}
			if len(found) != tt.want {
				t.Errorf("discovered %d controllers, want %d", len(found), tt.want)
			}
		})
	}
}

// TestUnreachableControllerFailsInit verifies the unreachable flag makes
// only initialisation fail, not discovery.
func TestUnreachableControllerFailsInit(t *testing.T) {
	cfg := config.SimulatorConfig{
		Controllers: []config.SimControllerConfig{
			{Name: "Dead", Host: "h", Unreachable: true},
		},
	}
	discoverer := NewDiscoverer(cfg)

	found, err := discoverer.Discover(context.Background(), "")
	if err != nil || len(found) != 1 {
		t.Fatalf("discover returned %d controllers (err=%v), want 1", len(found), err)
	}

	if err := found[0].Init(context.Background()); err == nil {
		t.Fatal("expected initialisation to fail")
	}
}

// TestSnapshotIsolation verifies that state returned by AirConditioners is
// a copy the caller cannot use to mutate the simulator.
func TestSnapshotIsolation(t *testing.T) {
	controller := NewDiscoverer(testConfig()).Controllers()[0]

	first := controller.AirConditioners()
	*first[0].Zones[0].CurrentTemperature = -100

	second := controller.AirConditioners()
	if *second[0].Zones[0].CurrentTemperature == -100 {
		t.Error("mutating a snapshot changed the simulator state")
	}
}

// TestStepNotifiesSubscribersInOrder verifies notifications reach all
// subscribers sequentially and that sensorless zones stay without a
// reading.
func TestStepNotifiesSubscribersInOrder(t *testing.T) {
	controller := NewDiscoverer(testConfig()).Controllers()[0]

	if err := controller.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer controller.Stop()

	var mu sync.Mutex
	var order []string
	if err := controller.Subscribe(0, func(acID int) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := controller.Subscribe(0, func(acID int) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	controller.Step()
	controller.Step()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "first", "second"}
	if len(order) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("notification order %v, want %v", order, want)
		}
	}

	zones := controller.AirConditioners()[0].Zones
	if zones[0].CurrentTemperature == nil {
		t.Error("sensored zone lost its reading")
	}
	if zones[1].CurrentTemperature != nil {
		t.Error("sensorless zone gained a reading")
	}
}

// TestSubscribeUnknownAC verifies subscription validation.
func TestSubscribeUnknownAC(t *testing.T) {
	controller := NewDiscoverer(testConfig()).Controllers()[0]
	if err := controller.Subscribe(9, func(int) {}); err == nil {
		t.Fatal("expected an error for unknown AC")
	}
}
