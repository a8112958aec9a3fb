package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"roomboard/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup and passed to every task by read-only
// reference. No task mutates it after Load returns.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Remote     RemoteConfig     `yaml:"remote"`
	Rooms      []models.Room    `yaml:"rooms"`
	Web        WebConfig        `yaml:"web"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name string `yaml:"name"`
}

// RemoteConfig describes the upstream booking API.
type RemoteConfig struct {
	Host                string `yaml:"host"`
	LoginToken          string `yaml:"login_token"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// PollInterval returns the sync cadence as a duration.
func (r RemoteConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalSeconds) * time.Second
}

type WebConfig struct {
	Addr        string  `yaml:"addr"`
	Port        int     `yaml:"port"`
	TLSPort     int     `yaml:"tls_port"`
	TLSCertFile string  `yaml:"tls_cert_file"`
	TLSKeyFile  string  `yaml:"tls_key_file"`
	CacheTTL    string  `yaml:"cache_ttl"`
	RateLimit   float64 `yaml:"rate_limit_rps"`
	RateBurst   int     `yaml:"rate_limit_burst"`
}

// TLSEnabled reports whether both cert and key are configured.
func (w WebConfig) TLSEnabled() bool {
	return w.TLSCertFile != "" && w.TLSKeyFile != ""
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML config at configPath, expanding ${ENV} references
// after loading a .env file when one is present.
func Load(configPath string) (*Config, error) {
	// .env is optional; the config can also reference real environment vars
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Remote.Host == "" {
		return errors.New("remote host is required")
	}
	if c.Remote.LoginToken == "" {
		return errors.New("remote login token is required")
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	return ValidateRooms(c.Rooms)
}

// ValidateRooms rejects rooms without a resource id and duplicate ids.
func ValidateRooms(rooms []models.Room) error {
	if len(rooms) == 0 {
		return errors.New("at least one room mapping is required")
	}
	seen := make(map[int64]bool)
	for _, room := range rooms {
		if room.ResourceID == 0 {
			return fmt.Errorf("room '%s' has invalid resource id 0", room.Name)
		}
		if seen[room.ResourceID] {
			return fmt.Errorf("duplicate room resource id found: %d", room.ResourceID)
		}
		seen[room.ResourceID] = true
	}
	return nil
}

// ResourceIDs returns the unique set of remote resource ids to poll,
// in config order.
func (c *Config) ResourceIDs() []int64 {
	seen := make(map[int64]bool, len(c.Rooms))
	ids := make([]int64, 0, len(c.Rooms))
	for _, room := range c.Rooms {
		if seen[room.ResourceID] {
			continue
		}
		seen[room.ResourceID] = true
		ids = append(ids, room.ResourceID)
	}
	return ids
}

// RoomByResourceID returns the configured room for a remote resource id.
func (c *Config) RoomByResourceID(id int64) (models.Room, bool) {
	for _, room := range c.Rooms {
		if room.ResourceID == id {
			return room, true
		}
	}
	return models.Room{}, false
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "roomboard"
	}
	if c.Remote.PollIntervalSeconds == 0 {
		c.Remote.PollIntervalSeconds = 300
	}
	if c.Web.Addr == "" {
		c.Web.Addr = "0.0.0.0"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.TLSPort == 0 {
		c.Web.TLSPort = 8443
	}
	if c.Web.CacheTTL == "" {
		c.Web.CacheTTL = "15s"
	}
	if c.Web.RateLimit == 0 {
		c.Web.RateLimit = 10
	}
	if c.Web.RateBurst == 0 {
		c.Web.RateBurst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}
