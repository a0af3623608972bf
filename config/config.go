package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Discovery    DiscoveryConfig        `mapstructure:"discovery"`
	Simulator    SimulatorConfig        `mapstructure:"simulator"`
	Telemetry    TelemetryConfig        `mapstructure:"telemetry"`
	Transformers map[string]Transformer `mapstructure:"transformers"`
	Validation   ValidationConfig       `mapstructure:"validation"`
	Logger       LoggerConfig           `mapstructure:"logger"`
}

// DiscoveryConfig controls how controllers are located and initialised.
type DiscoveryConfig struct {
	// Driver selects the discovery backend. Currently only "simulator".
	Driver string `mapstructure:"driver"`
	// TargetHost restricts discovery to one host. The -host flag overrides
	// this value.
	TargetHost string `mapstructure:"target_host"`
	// Timeout bounds the discovery search.
	Timeout time.Duration `mapstructure:"timeout"`
	// InitTimeout bounds each controller's initialisation handshake.
	InitTimeout time.Duration `mapstructure:"init_timeout"`
}

// SimulatorConfig describes the simulated controllers served by the
// simulator discovery driver.
type SimulatorConfig struct {
	Controllers []SimControllerConfig `mapstructure:"controllers"`
}

// SimControllerConfig describes one simulated controller.
type SimControllerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	// Interval between simulated status notifications.
	Interval time.Duration `mapstructure:"interval"`
	// Unreachable makes initialisation fail, for exercising partial
	// failure handling.
	Unreachable     bool          `mapstructure:"unreachable"`
	AirConditioners []SimAcConfig `mapstructure:"air_conditioners"`
}

// SimAcConfig describes one simulated air conditioner.
type SimAcConfig struct {
	Name              string          `mapstructure:"name"`
	TargetTemperature float64         `mapstructure:"target_temperature"`
	Zones             []SimZoneConfig `mapstructure:"zones"`
}

// SimZoneConfig describes one simulated zone.
type SimZoneConfig struct {
	Name string `mapstructure:"name"`
	// Sensor controls whether the zone reports a current temperature.
	Sensor            bool    `mapstructure:"sensor"`
	BaseTemperature   float64 `mapstructure:"base_temperature"`
	TargetTemperature float64 `mapstructure:"target_temperature"`
}

// TelemetryConfig represents the export pipeline configuration.
type TelemetryConfig struct {
	MetricName    string        `mapstructure:"metric_name"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	// APIKey is bound to the AIRTOUCH_TELEMETRY_KEY environment variable
	// and is never read from the command line.
	APIKey   string             `mapstructure:"api_key"`
	MQTT     MQTTSinkConfig     `mapstructure:"mqtt"`
	Database DatabaseSinkConfig `mapstructure:"database"`
	File     FileSinkConfig     `mapstructure:"file"`
}

// MQTTSinkConfig represents the MQTT export sink configuration.
type MQTTSinkConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
}

// DatabaseSinkConfig represents the database ingestion sink configuration.
type DatabaseSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
	DSN     string `mapstructure:"dsn"`
}

// FileSinkConfig represents the diagnostics file sink configuration.
type FileSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Transformer represents an attribute transformer script, keyed by
// controller name or "default".
type Transformer struct {
	ScriptPath string `mapstructure:"script_path"`
	ScriptCode string `mapstructure:"script_code"`
}

// ValidationConfig bounds the plausible range for zone temperature
// readings. Readings outside the range are skipped like absent sensors.
type ValidationConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MinTemperature float64 `mapstructure:"min_temperature"`
	MaxTemperature float64 `mapstructure:"max_temperature"`
}

// LoggerConfig represents the logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// ConfigChangeCallback is invoked when the configuration file changes.
type ConfigChangeCallback func(cfg *Config) error

func setDefaults() {
	viper.SetDefault("discovery.driver", "simulator")
	viper.SetDefault("discovery.timeout", 30*time.Second)
	viper.SetDefault("discovery.init_timeout", 20*time.Second)
	viper.SetDefault("telemetry.metric_name", "airtouch.zone.temperature")
	viper.SetDefault("telemetry.flush_interval", 60*time.Second)
	viper.SetDefault("validation.min_temperature", -40.0)
	viper.SetDefault("validation.max_temperature", 70.0)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.file_path", "./logs/airtouch-telemetry.log")
	viper.SetDefault("logger.max_size", 10)
	viper.SetDefault("logger.max_backups", 5)
	viper.SetDefault("logger.console", true)
}

// LoadConfig loads the configuration file from the given path. The
// telemetry credential is read from the environment, never from the file.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()
	if err := viper.BindEnv("telemetry.api_key", "AIRTOUCH_TELEMETRY_KEY"); err != nil {
		return nil, err
	}

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var config Config
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// WatchConfig watches the configuration file for changes and invokes the
// callback with the re-parsed configuration.
func WatchConfig(configPath string, callback ConfigChangeCallback) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	viper.SetConfigFile(absPath)
	viper.WatchConfig()

	// Debounce: editors tend to fire several write events in a row.
	var lastChangeTime time.Time
	var debounceInterval = 2 * time.Second

	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&fsnotify.Write == fsnotify.Write {
			now := time.Now()
			if now.Sub(lastChangeTime) < debounceInterval {
				return
			}
			lastChangeTime = now

			log.Printf("configuration file changed: %s", e.Name)

			var newConfig Config
			err := viper.Unmarshal(&newConfig)
			if err != nil {
				log.Printf("failed to parse updated configuration: %v", err)
				return
			}

			if err := callback(&newConfig); err != nil {
				log.Printf("failed to apply new configuration: %v", err)
				return
			}

			log.Println("configuration updated and applied")
		}
	})

	return nil
}
