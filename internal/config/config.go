package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	APNs     APNsConfig     `yaml:"apns"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig holds blob storage (S3-compatible) configuration
type StorageConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // optional, for S3-compatible providers
	PublicURL string `yaml:"public_url"`
}

// RedisConfig holds redis configuration for the submission rate limiter
type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables rate limiting
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// APNsConfig holds Apple push notification configuration
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"` // empty disables push
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JournalConfig holds journal behavior configuration
type JournalConfig struct {
	// DefaultTimezone is the IANA zone used to resolve the calendar day
	// when a request carries no tz of its own.
	DefaultTimezone string `yaml:"default_timezone"`
	// MaxImageDimension caps the longest side of an uploaded photo.
	MaxImageDimension int `yaml:"max_image_dimension"`
	// JPEGQuality is the fixed re-encode quality factor.
	JPEGQuality int `yaml:"jpeg_quality"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Journal.DefaultTimezone == "" {
		cfg.Journal.DefaultTimezone = "UTC"
	}
	if cfg.Journal.MaxImageDimension <= 0 {
		cfg.Journal.MaxImageDimension = 2048
	}
	if cfg.Journal.JPEGQuality <= 0 || cfg.Journal.JPEGQuality > 100 {
		cfg.Journal.JPEGQuality = 82
	}

	return &cfg, nil
}

// Location resolves the configured default timezone
func (c *JournalConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid default_timezone %q: %w", c.DefaultTimezone, err)
	}
	return loc, nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
