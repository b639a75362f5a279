package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "CONFIG_FILE"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Cache     CacheConfig     `yaml:"cache"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Import    ImportConfig    `yaml:"import"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            string        `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL engine and its connection settings.
// Type is one of mysql, sqlserver, postgres or sqlite.
type DatabaseConfig struct {
	Type            string        `yaml:"type" env:"DB_TYPE"`
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT"`
	User            string        `yaml:"user" env:"DB_USER"`
	Password        string        `yaml:"password" env:"DB_PASS"`
	Name            string        `yaml:"name" env:"DB_NAME"`
	Path            string        `yaml:"path" env:"DB_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	Migrate         bool          `yaml:"migrate" env:"DB_MIGRATE"`
}

type LoggingConfig struct {
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
	Level       string `yaml:"level" env:"LOG_LEVEL"`
}

type RateLimitConfig struct {
	RPM int `yaml:"rpm"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CacheConfig enables the Redis response cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"`
	SeriesTTL     time.Duration `yaml:"series_ttl"`
	LatestTTL     time.Duration `yaml:"latest_ttl"`
}

// MQTTConfig enables sensor ingestion when Broker is set.
type MQTTConfig struct {
	Broker    string `yaml:"broker" env:"MQTT_BROKER"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username" env:"MQTT_USERNAME"`
	Password  string `yaml:"password" env:"MQTT_PASSWORD"`
	T500Topic string `yaml:"t500_topic"`
	T700Topic string `yaml:"t700_topic"`
	Timezone  string `yaml:"timezone"`
	QueueSize int    `yaml:"queue_size"`
}

type ImportConfig struct {
	Columns ImportColumns `yaml:"columns"`
}

// ImportColumns names the spreadsheet headers mapped onto task fields.
type ImportColumns struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	DueDate        string `yaml:"due_date"`
	PicMaintenance string `yaml:"pic_maintenance"`
}

type DashboardConfig struct {
	APIBaseURL           string        `yaml:"api_base_url" env:"API_BASE_URL"`
	SensorInterval       time.Duration `yaml:"sensor_interval"`
	NotificationInterval time.Duration `yaml:"notification_interval"`
	AgoHours             int           `yaml:"ago_hours"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	NotesPath            string        `yaml:"notes_path" env:"DASHBOARD_NOTES"`
	ExportDir            string        `yaml:"export_dir" env:"DASHBOARD_EXPORT_DIR"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Type:            "mysql",
			Host:            "localhost",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			Path:            "wwtp.db",
		},
		Logging:   LoggingConfig{Level: "info"},
		RateLimit: RateLimitConfig{RPM: 600},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		Cache: CacheConfig{
			SeriesTTL: 90 * time.Second,
			LatestTTL: 50 * time.Second,
		},
		MQTT: MQTTConfig{
			ClientID:  "wwtp-dashboard",
			T500Topic: "wwtp/t500/data",
			T700Topic: "wwtp/t700/data",
			Timezone:  "UTC",
			QueueSize: 256,
		},
		Import: ImportConfig{Columns: ImportColumns{
			Title:          "Description",
			Description:    "Description of functional location",
			DueDate:        "Basic Start Date",
			PicMaintenance: "PIC Maintenance",
		}},
		Dashboard: DashboardConfig{
			APIBaseURL:           "http://localhost:8080",
			SensorInterval:       2 * time.Minute,
			NotificationInterval: time.Minute,
			AgoHours:             24,
			RequestTimeout:       15 * time.Second,
			NotesPath:            "notes.txt",
			ExportDir:            ".",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the process environment, in that order of precedence.
// An empty path falls back to $CONFIG_FILE and then config.yml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		path = "config.yml"
	}
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	if err := populateFromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "sqlserver", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database type %q", c.Database.Type)
	}
	if c.Database.Type != "sqlite" && c.Database.Name == "" {
		return errors.New("config: database name is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("config: database max_open_conns must be positive")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// populateFromEnv overrides fields carrying an `env` tag with the matching
// environment variable, walking nested structs.
func populateFromEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := populateFromEnv(field); err != nil {
				return err
			}
			continue
		}

		key := t.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := assign(field, strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("config: parse %s: %w", key, err)
		}
	}
	return nil
}

func assign(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(parsed)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(parsed)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
