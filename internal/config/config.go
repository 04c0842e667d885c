package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// GameDefaults holds the game settings applied when a start request leaves
// them unset.
type GameDefaults struct {
	DurationMin int  `json:"durationMin" mapstructure:"durationMin"`
	JREnabled   bool `json:"jrEnabled" mapstructure:"jrEnabled"`
	CPCount     int  `json:"cpCount" mapstructure:"cpCount"`
}

// OTelConfig holds OpenTelemetry log/metric export settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("server.addr", ":8080")

	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.path", "./rogained.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "rogained")

	viper.SetDefault("master.spotsCsv", "./master/spots.csv")
	viper.SetDefault("master.stationsCsv", "./master/stations.csv")

	viper.SetDefault("game.durationMin", 180)
	viper.SetDefault("game.jrEnabled", true)
	viper.SetDefault("game.cpCount", 3)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "rogained-metrics")
	viper.SetDefault("influx.bucket", "rogained_kpi")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "rogained")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("rogained.cfg.json")
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

// GetGameDefaults returns the configured game defaults.
func GetGameDefaults() GameDefaults {
	return GameDefaults{
		DurationMin: viper.GetInt("game.durationMin"),
		JREnabled:   viper.GetBool("game.jrEnabled"),
		CPCount:     viper.GetInt("game.cpCount"),
	}
}

// GetOTelConfig returns the OTel section with durations parsed.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
