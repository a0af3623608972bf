package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
discovery:
  target_host: 192.168.1.50
  timeout: 10s

simulator:
  controllers:
    - name: Living
      host: 192.168.1.50
      interval: 5s
      air_conditioners:
        - name: Downstairs
          zones:
            - name: Lounge
              sensor: true
              base_temperature: 22.5

telemetry:
  flush_interval: 30s
  mqtt:
    enabled: true
    broker: tcp://localhost:1883

validation:
  enabled: true

logger:
  level: debug
  console: true
`

// TestLoadConfig verifies parsing, defaults and the environment-bound
// credential.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("AIRTOUCH_TELEMETRY_KEY", "secret-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Discovery.TargetHost != "192.168.1.50" {
		t.Errorf("target host = %s", cfg.Discovery.TargetHost)
	}
	if cfg.Discovery.Timeout != 10*time.Second {
		t.Errorf("discovery timeout = %v, want 10s", cfg.Discovery.Timeout)
	}
	// Not in the file, so the default applies.
	if cfg.Discovery.InitTimeout != 20*time.Second {
		t.Errorf("init timeout default = %v, want 20s", cfg.Discovery.InitTimeout)
	}
	if cfg.Discovery.Driver != "simulator" {
		t.Errorf("driver default = %s, want simulator", cfg.Discovery.Driver)
	}

	if cfg.Telemetry.MetricName != "airtouch.zone.temperature" {
		t.Errorf("metric name default = %s", cfg.Telemetry.MetricName)
	}
	if cfg.Telemetry.FlushInterval != 30*time.Second {
		t.Errorf("flush interval = %v, want 30s", cfg.Telemetry.FlushInterval)
	}
	if !cfg.Telemetry.MQTT.Enabled || cfg.Telemetry.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("mqtt sink config = %+v", cfg.Telemetry.MQTT)
	}
	if cfg.Telemetry.APIKey != "secret-key" {
		t.Errorf("api key not bound from environment, got %q", cfg.Telemetry.APIKey)
	}

	if len(cfg.Simulator.Controllers) != 1 {
		t.Fatalf("parsed %d simulated controllers, want 1", len(cfg.Simulator.Controllers))
	}
	controller := cfg.Simulator.Controllers[0]
	if controller.Interval != 5*time.Second {
		t.Errorf("controller interval = %v, want 5s", controller.Interval)
	}
	if len(controller.AirConditioners) != 1 || len(controller.AirConditioners[0].Zones) != 1 {
		t.Fatalf("controller layout not parsed: %+v", controller)
	}
	zone := controller.AirConditioners[0].Zones[0]
	if !zone.Sensor || zone.BaseTemperature != 22.5 {
		t.Errorf("zone config = %+v", zone)
	}

	if !cfg.Validation.Enabled {
		t.Error("validation not enabled")
	}
	if cfg.Validation.MinTemperature != -40 || cfg.Validation.MaxTemperature != 70 {
		t.Errorf("validation range defaults = [%v, %v]", cfg.Validation.MinTemperature, cfg.Validation.MaxTemperature)
	}

	if cfg.Logger.Level != "debug" {
		t.Errorf("logger level = %s", cfg.Logger.Level)
	}
}

// TestLoadConfigMissingFile verifies a missing file is an error.
func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
