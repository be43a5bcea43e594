package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "earthview.cfg.json"

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Address         string
	SiteBase        string
	ShareRoot       string
	ShutdownTimeout time.Duration
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string
	DumpPath     string
	DumpInterval time.Duration
}

// StorageConfig holds the storage backend selection and its settings
type StorageConfig struct {
	Type          string
	FlushInterval time.Duration
	Memory        MemoryConfig
	SQLite        SQLiteConfig
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	Endpoint       string
	Insecure       bool
}

// LocationConfig holds location resolution settings
type LocationConfig struct {
	DeviceEnabled bool
	DeviceTimeout time.Duration
	MaxFixAge     time.Duration
	IPEnabled     bool
	IPURL         string
	IPTimeout     time.Duration
}

// GlobeConfig holds camera animation settings
type GlobeConfig struct {
	FPS                int
	TransitionDuration time.Duration
	PulseInterval      time.Duration
	PulseDuration      time.Duration
	PulseBaseOpacity   float64
	PulseGrowth        float64
}

// InfluxConfig holds InfluxDB settings for location lookup points
type InfluxConfig struct {
	Enabled   bool
	URL       string
	Token     string
	Org       string
	Bucket    string
	BackupDir string
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.siteBase", "")
	viper.SetDefault("server.shareRoot", "http://localhost:8080")
	viper.SetDefault("server.shutdownTimeout", "10s")

	viper.SetDefault("render.fps", 30)
	viper.SetDefault("transition.durationMs", 2600)
	viper.SetDefault("pulse.intervalMs", 1500)
	viper.SetDefault("pulse.durationMs", 1800)
	viper.SetDefault("pulse.baseOpacity", 0.35)
	viper.SetDefault("pulse.growth", 2.2)

	viper.SetDefault("location.device.enabled", true)
	viper.SetDefault("location.device.timeout", "9s")
	viper.SetDefault("location.device.maxAge", "60s")
	viper.SetDefault("location.ip.enabled", true)
	viper.SetDefault("location.ip.url", "https://ipapi.co/json/")
	viper.SetDefault("location.ip.timeout", "10s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "earthview")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "5s")
	viper.SetDefault("storage.memory.outputDir", "./viewpoints")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "earthview")
	viper.SetDefault("influx.bucket", "location-lookups")
	viper.SetDefault("influx.backupDir", "./influx-backup")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "earthview")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults sets default values without reading a file.
func LoadDefaults() {
	setDefaults()
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

// GetServerConfig returns the HTTP listener settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:         viper.GetString("server.address"),
		SiteBase:        viper.GetString("server.siteBase"),
		ShareRoot:       viper.GetString("server.shareRoot"),
		ShutdownTimeout: viper.GetDuration("server.shutdownTimeout"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetLocationConfig returns the location resolution settings.
func GetLocationConfig() LocationConfig {
	return LocationConfig{
		DeviceEnabled: viper.GetBool("location.device.enabled"),
		DeviceTimeout: viper.GetDuration("location.device.timeout"),
		MaxFixAge:     viper.GetDuration("location.device.maxAge"),
		IPEnabled:     viper.GetBool("location.ip.enabled"),
		IPURL:         viper.GetString("location.ip.url"),
		IPTimeout:     viper.GetDuration("location.ip.timeout"),
	}
}

// GetGlobeConfig returns the camera animation settings.
func GetGlobeConfig() GlobeConfig {
	return GlobeConfig{
		FPS:                viper.GetInt("render.fps"),
		TransitionDuration: time.Duration(viper.GetInt64("transition.durationMs")) * time.Millisecond,
		PulseInterval:      time.Duration(viper.GetInt64("pulse.intervalMs")) * time.Millisecond,
		PulseDuration:      time.Duration(viper.GetInt64("pulse.durationMs")) * time.Millisecond,
		PulseBaseOpacity:   viper.GetFloat64("pulse.baseOpacity"),
		PulseGrowth:        viper.GetFloat64("pulse.growth"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: fmt.Sprintf("%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		Bucket:    viper.GetString("influx.bucket"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetGraylogConfig returns the GELF log shipping settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
