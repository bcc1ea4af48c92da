package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the host application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Filter      FilterConfig      `yaml:"filter"`
	Measurement MeasurementConfig `yaml:"measurement"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Web         WebConfig         `yaml:"web"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// FilterConfig mirrors the firmware signal-conditioning parameters. The mock
// device runs the same pipeline the firmware does, so it reads them from here.
type FilterConfig struct {
	ProcessNoise      float64 `yaml:"process_noise"`
	MeasurementNoise  float64 `yaml:"measurement_noise"`
	InitialCovariance float64 `yaml:"initial_covariance"`
	WindowSize        int     `yaml:"window_size"`
}

// MeasurementConfig contains measurement session parameters.
type MeasurementConfig struct {
	TargetPressures    []float64 `yaml:"target_pressures"`    // Suggested pressure setpoints (MPa)
	CalibrationSamples int       `yaml:"calibration_samples"` // Distance readings averaged for the offset
	OutputFile         string    `yaml:"output_file"`         // CSV export path ("" = timestamped name)
}

// MQTTConfig contains broker settings for the bridge and web apps.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// WebConfig contains the dashboard server settings.
type WebConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	ForceN         float64       `yaml:"force_n"`         // Simulated steady force (N)
	ForceNoise     float64       `yaml:"force_noise"`     // Force noise amplitude (N)
	DistanceMM     float64       `yaml:"distance_mm"`     // Simulated distance (mm)
	DistanceNoise  float64       `yaml:"distance_noise"`  // Distance noise amplitude (mm)
	PressureMPa    float64       `yaml:"pressure_mpa"`    // Simulated line pressure (MPa)
	SampleInterval time.Duration `yaml:"sample_interval"` // Firmware loop interval
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 9600,
		},
		Filter: FilterConfig{
			ProcessNoise:      1.0,
			MeasurementNoise:  1.0,
			InitialCovariance: 1.0,
			WindowSize:        20,
		},
		Measurement: MeasurementConfig{
			TargetPressures:    []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
			CalibrationSamples: 50,
			OutputFile:         "",
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "musclerig",
			Topic:    "musclerig/readings",
		},
		Web: WebConfig{
			Listen:    ":8080",
			StaticDir: "web/static",
		},
		Mock: MockConfig{
			ForceN:         80.0,
			ForceNoise:     2.0,
			DistanceMM:     180.0,
			DistanceNoise:  0.5,
			PressureMPa:    0.3,
			SampleInterval: 2 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Filter.ProcessNoise == 0 {
		c.Filter.ProcessNoise = def.Filter.ProcessNoise
	}
	if c.Filter.MeasurementNoise == 0 {
		c.Filter.MeasurementNoise = def.Filter.MeasurementNoise
	}
	if c.Filter.InitialCovariance == 0 {
		c.Filter.InitialCovariance = def.Filter.InitialCovariance
	}
	if c.Filter.WindowSize == 0 {
		c.Filter.WindowSize = def.Filter.WindowSize
	}

	if len(c.Measurement.TargetPressures) == 0 {
		c.Measurement.TargetPressures = def.Measurement.TargetPressures
	}
	if c.Measurement.CalibrationSamples == 0 {
		c.Measurement.CalibrationSamples = def.Measurement.CalibrationSamples
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}

	if c.Web.Listen == "" {
		c.Web.Listen = def.Web.Listen
	}
	if c.Web.StaticDir == "" {
		c.Web.StaticDir = def.Web.StaticDir
	}

	if c.Mock.SampleInterval == 0 {
		c.Mock.SampleInterval = def.Mock.SampleInterval
	}
	if c.Mock.ForceN == 0 {
		c.Mock.ForceN = def.Mock.ForceN
	}
	if c.Mock.DistanceMM == 0 {
		c.Mock.DistanceMM = def.Mock.DistanceMM
	}
}
