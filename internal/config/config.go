package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/scanbridge/internal/db"
	"github.com/anstrom/scanbridge/internal/errors"
)

const (
	// Fixed engine-side defaults: "All IANA assigned TCP", "Full and fast", PDF.
	DefaultPortListID     = "33d0cd82-57c6-11e1-8ed1-406186ea4fc5"
	DefaultScanConfigID   = "daba56c8-73ec-11df-a475-002264764cea"
	DefaultReportFormatID = "c402cc3e-b531-11e1-9163-406186ea4fc5"

	DefaultEnginePort = 9390
	DefaultNmapPath   = "/usr/bin/nmap"
	DefaultEnvPath    = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

	// Discovery modes.
	DiscoveryModeLibrary = "library"
	DiscoveryModeCommand = "command"

	// Obligation store backends.
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	configDirPerm  = 0750
	configFilePerm = 0600
)

// Config represents the complete scanbridge configuration
type Config struct {
	// Scan engine connection and fixed engine-side identifiers
	Engine EngineConfig `yaml:"engine" json:"engine" mapstructure:"engine"`

	// Host discovery
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery" mapstructure:"discovery"`

	// Report delivery
	Delivery DeliveryConfig `yaml:"delivery" json:"delivery" mapstructure:"delivery"`

	// Object storage archive of delivered reports
	Archive ArchiveConfig `yaml:"archive" json:"archive" mapstructure:"archive"`

	// Database configuration, used when delivery.store is postgres
	Database db.Config `yaml:"database" json:"database" mapstructure:"database"`

	// API configuration
	API APIConfig `yaml:"api" json:"api" mapstructure:"api"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
}

// EngineConfig holds scan engine settings
type EngineConfig struct {
	Host     string `yaml:"host" json:"host" mapstructure:"host"`
	Port     int    `yaml:"port" json:"port" mapstructure:"port"`
	Username string `yaml:"username" json:"username" mapstructure:"username"`
	Password string `yaml:"password" json:"-" mapstructure:"password"`

	// Engine certificates are usually self-signed
	InsecureSkipVerify bool `yaml:"tls_insecure_skip_verify" json:"tls_insecure_skip_verify" mapstructure:"tls_insecure_skip_verify"`

	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout" mapstructure:"dial_timeout"`
	IOTimeout   time.Duration `yaml:"io_timeout" json:"io_timeout" mapstructure:"io_timeout"`

	// Scanner name prefix preferred during scanner selection
	PreferredScanner string `yaml:"preferred_scanner" json:"preferred_scanner" mapstructure:"preferred_scanner"`

	PortListID     string `yaml:"port_list_id" json:"port_list_id" mapstructure:"port_list_id"`
	ScanConfigID   string `yaml:"scan_config_id" json:"scan_config_id" mapstructure:"scan_config_id"`
	ReportFormatID string `yaml:"report_format_id" json:"report_format_id" mapstructure:"report_format_id"`
}

// DiscoveryConfig holds host discovery settings
type DiscoveryConfig struct {
	// library uses the nmap bindings, command runs the binary and parses stdout
	Mode     string `yaml:"mode" json:"mode" mapstructure:"mode"`
	NmapPath string `yaml:"nmap_path" json:"nmap_path" mapstructure:"nmap_path"`
	EnvPath  string `yaml:"env_path" json:"env_path" mapstructure:"env_path"`

	Passes           int           `yaml:"passes" json:"passes" mapstructure:"passes"`
	PassTimeout      time.Duration `yaml:"pass_timeout" json:"pass_timeout" mapstructure:"pass_timeout"`
	ConcurrentPasses int           `yaml:"concurrent_passes" json:"concurrent_passes" mapstructure:"concurrent_passes"`
}

// DeliveryConfig holds report delivery settings
type DeliveryConfig struct {
	// memory or postgres
	Store         string        `yaml:"store" json:"store" mapstructure:"store"`
	ObligationTTL time.Duration `yaml:"obligation_ttl" json:"obligation_ttl" mapstructure:"obligation_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule" json:"sweep_schedule" mapstructure:"sweep_schedule"`
	SendTimeout   time.Duration `yaml:"send_timeout" json:"send_timeout" mapstructure:"send_timeout"`
	SMTP          SMTPConfig    `yaml:"smtp" json:"smtp" mapstructure:"smtp"`
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string `yaml:"host" json:"host" mapstructure:"host"`
	Port     int    `yaml:"port" json:"port" mapstructure:"port"`
	Username string `yaml:"username" json:"username" mapstructure:"username"`
	Password string `yaml:"password" json:"-" mapstructure:"password"`
	From     string `yaml:"from" json:"from" mapstructure:"from"`
}

// ArchiveConfig holds S3-compatible storage settings
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Endpoint  string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" json:"-" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl" mapstructure:"use_ssl"`
	Bucket    string `yaml:"bucket" json:"bucket" mapstructure:"bucket"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr" mapstructure:"listen_addr"`

	// Listen port
	Port int `yaml:"port" json:"port" mapstructure:"port"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors" mapstructure:"cors"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout" mapstructure:"idle_timeout"`

	// Maximum request size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size" mapstructure:"max_request_size"`

	// Interval between status frames on the websocket stream
	StreamInterval time.Duration `yaml:"stream_interval" json:"stream_interval" mapstructure:"stream_interval"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers" mapstructure:"allowed_headers"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" mapstructure:"level"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" mapstructure:"format"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output" mapstructure:"output"`

	// Enable request logging for API
	RequestLogging bool `yaml:"request_logging" json:"request_logging" mapstructure:"request_logging"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Host:               "127.0.0.1",
			Port:               DefaultEnginePort,
			Username:           "admin",
			InsecureSkipVerify: true,
			DialTimeout:        10 * time.Second,
			IOTimeout:          2 * time.Minute,
			PreferredScanner:   "openvas",
			PortListID:         DefaultPortListID,
			ScanConfigID:       DefaultScanConfigID,
			ReportFormatID:     DefaultReportFormatID,
		},
		Discovery: DiscoveryConfig{
			Mode:             DiscoveryModeLibrary,
			NmapPath:         DefaultNmapPath,
			EnvPath:          DefaultEnvPath,
			Passes:           3,
			PassTimeout:      300 * time.Second,
			ConcurrentPasses: 3,
		},
		Delivery: DeliveryConfig{
			Store:         StoreMemory,
			ObligationTTL: 7 * 24 * time.Hour,
			SweepSchedule: "@every 1h",
			SendTimeout:   5 * time.Minute,
			SMTP: SMTPConfig{
				Host: "localhost",
				Port: 25,
				From: "scanner@example.com",
			},
		},
		Archive: ArchiveConfig{
			Bucket: "scan-reports",
			UseSSL: true,
		},
		Database: db.DefaultConfig(),
		API: APIConfig{
			ListenAddr: "0.0.0.0",
			Port:       8000,
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
			},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			IdleTimeout:    2 * time.Minute,
			MaxRequestSize: 1024 * 1024, // 1MB
			StreamInterval: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			Output:         "stdout",
			RequestLogging: true,
		},
	}
}

// Load loads and validates configuration from a file
func Load(path string) (*Config, error) {
	config, err := Parse(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Parse reads a configuration file over the defaults without validating
// it, so callers can apply overrides first.
func Parse(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // Return defaults if no config file
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// yaml.v3 also accepts JSON documents
	switch filepath.Ext(path) {
	case ".json":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to parse JSON config", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to parse YAML config", err)
		}
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}

	if c.Archive.Enabled {
		if c.Archive.Endpoint == "" {
			return fmt.Errorf("archive endpoint is required when archive is enabled")
		}
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive bucket is required when archive is enabled")
		}
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return errors.ErrConfigInvalid("api.port", c.API.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Host == "" {
		return errors.ErrConfigMissing("engine.host")
	}
	if c.Engine.Port <= 0 || c.Engine.Port > 65535 {
		return errors.ErrConfigInvalid("engine.port", c.Engine.Port)
	}
	if c.Engine.Username == "" {
		return errors.ErrConfigMissing("engine.username")
	}
	if c.Engine.PortListID == "" || c.Engine.ScanConfigID == "" || c.Engine.ReportFormatID == "" {
		return fmt.Errorf("engine port list, scan config and report format ids are required")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	switch c.Discovery.Mode {
	case DiscoveryModeLibrary, DiscoveryModeCommand:
	default:
		return fmt.Errorf("invalid discovery mode: %s", c.Discovery.Mode)
	}
	if c.Discovery.Passes <= 0 {
		return fmt.Errorf("discovery passes must be positive")
	}
	if c.Discovery.PassTimeout <= 0 {
		return fmt.Errorf("discovery pass timeout must be positive")
	}
	if c.Discovery.ConcurrentPasses <= 0 {
		return fmt.Errorf("discovery concurrent passes must be positive")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	switch c.Delivery.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Database == "" || c.Database.Username == "" {
			return fmt.Errorf("database name and username are required for the postgres obligation store")
		}
	default:
		return fmt.Errorf("invalid delivery store: %s", c.Delivery.Store)
	}
	if c.Delivery.ObligationTTL < 0 {
		return fmt.Errorf("obligation ttl must not be negative")
	}
	if c.Delivery.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.Delivery.SweepSchedule); err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", c.Delivery.SweepSchedule, err)
		}
	}
	if c.Delivery.SMTP.Host == "" {
		return errors.ErrConfigMissing("delivery.smtp.host")
	}
	if c.Delivery.SMTP.Port <= 0 || c.Delivery.SMTP.Port > 65535 {
		return errors.ErrConfigInvalid("delivery.smtp.port", c.Delivery.SMTP.Port)
	}
	if _, err := mail.ParseAddress(c.Delivery.SMTP.From); err != nil {
		return fmt.Errorf("invalid smtp from address %q: %w", c.Delivery.SMTP.From, err)
	}
	return nil
}

// GetDatabaseConfig returns the database configuration
func (c *Config) GetDatabaseConfig() db.Config {
	return c.Database
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddr, c.API.Port)
}

// GetEngineAddress returns the scan engine host:port
func (c *Config) GetEngineAddress() string {
	return fmt.Sprintf("%s:%d", c.Engine.Host, c.Engine.Port)
}
