package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the embedded sqlite catalog fallback
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and parameterizes the scene artifact backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry log/metric export settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SportConfig overrides marking constraints and materials for one sport.
// Zero fields keep the built-in value.
type SportConfig struct {
	MinLongSide      float64 `json:"minLongSide" mapstructure:"minLongSide"`
	MaxLongSide      float64 `json:"maxLongSide" mapstructure:"maxLongSide"`
	MinShortSide     float64 `json:"minShortSide" mapstructure:"minShortSide"`
	MaxShortSide     float64 `json:"maxShortSide" mapstructure:"maxShortSide"`
	Material         string  `json:"material" mapstructure:"material"`
	FallbackMaterial string  `json:"fallbackMaterial" mapstructure:"fallbackMaterial"`
}

// MaterialConfig declares or overrides a named render material.
type MaterialConfig struct {
	Texture        string  `json:"texture" mapstructure:"texture"`
	TexWorldWidth  float64 `json:"texWorldWidth" mapstructure:"texWorldWidth"`
	TexWorldHeight float64 `json:"texWorldHeight" mapstructure:"texWorldHeight"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./pitchmarklogs")

	viper.SetDefault("input.projected", false)
	viper.SetDefault("preview.size", 1024)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "pitchmark")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "pitchmark-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.statusFile", "./pitchmark.status.json")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./scenes")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "pitchmark")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("pitchmark.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the scene storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetSports returns per-sport constraint overrides from the "sports" block.
func GetSports() (map[string]SportConfig, error) {
	sports := make(map[string]SportConfig)
	if err := viper.UnmarshalKey("sports", &sports); err != nil {
		return nil, fmt.Errorf("error parsing sports config: %v", err)
	}
	return sports, nil
}

// GetMaterials returns material definitions from the "materials" block.
func GetMaterials() (map[string]MaterialConfig, error) {
	materials := make(map[string]MaterialConfig)
	if err := viper.UnmarshalKey("materials", &materials); err != nil {
		return nil, fmt.Errorf("error parsing materials config: %v", err)
	}
	return materials, nil
}
