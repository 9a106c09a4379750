// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Emulator EmulatorConfig `mapstructure:"emulator"`
	Billing  BillingConfig  `mapstructure:"billing"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         int           `mapstructure:"port" validate:"required"`
	User         string        `mapstructure:"user" validate:"required"`
	Password     string        `mapstructure:"password" validate:"required"`
	DBName       string        `mapstructure:"dbname" validate:"required"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// SecurityConfig represents the subset of security configuration this
// emulator keeps: CORS origins and rate-limit settings. Only
// AllowedOrigins is consulted (by the CORS middleware); the RateLimit*
// fields are loaded but no middleware reads them. There is no
// authentication surface in this spec (decode-only emulator), so the
// JWT/device-auth fields the teacher carried have no home here.
type SecurityConfig struct {
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// EmulatorConfig represents the emulated printer's identity and its
// per-transport tuning. It replaces the teacher's DeviceConfig: there is
// no discovery or brand dispatch here, just the one printer identity this
// emulator reports and the knobs its byte sources need.
type EmulatorConfig struct {
	Model            string                 `mapstructure:"model"`
	Firmware         string                 `mapstructure:"firmware"`
	Manufacturer     string                 `mapstructure:"manufacturer"`
	DefaultASBEnable byte                   `mapstructure:"default_asb_enable"`
	SessionTimeout   time.Duration          `mapstructure:"session_timeout"`
	Transports       EmulatorTransportsConf `mapstructure:"transports"`
}

// EmulatorTransportsConf configures the byte sources a session can be
// opened over, mirroring the teacher's DevicePortConfig family.
type EmulatorTransportsConf struct {
	Serial SerialPortConfig `mapstructure:"serial"`
	TCP    TCPPortConfig    `mapstructure:"tcp"`
	USB    USBPortConfig    `mapstructure:"usb"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TCPPortConfig represents TCP port configuration
type TCPPortConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	KeepAlive      bool          `mapstructure:"keep_alive"`
}

// USBPortConfig represents USB port configuration
type USBPortConfig struct {
	VendorID         uint16        `mapstructure:"vendor_id"`
	ProductID        uint16        `mapstructure:"product_id"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BulkTransferSize int           `mapstructure:"bulk_transfer_size"`
}

// BillingConfig represents the consumable-cost rates the billing
// estimator (§3.4) applies to decoded commands. Rates are decimal-typed
// so fractional-cent pricing never drifts under floating point.
type BillingConfig struct {
	CostPerTextChar decimal.Decimal `mapstructure:"cost_per_text_char"`
	CostPerRasterKB decimal.Decimal `mapstructure:"cost_per_raster_kb"`
	CostPerCut      decimal.Decimal `mapstructure:"cost_per_cut"`
	CostPerBarcode  decimal.Decimal `mapstructure:"cost_per_barcode"`
	Currency        string          `mapstructure:"currency"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	AppID       string `mapstructure:"app_id" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("../../internal/config")

	// Environment variable support
	viper.SetEnvPrefix("ESCPOS_EMULATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8084")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.tls.enabled", false)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "escpos_emulator")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.max_lifetime", "5m")

	// Security defaults
	viper.SetDefault("security.allowed_origins", []string{"*"})
	viper.SetDefault("security.rate_limit_enabled", true)
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Emulator defaults
	viper.SetDefault("emulator.model", "BT-B36")
	viper.SetDefault("emulator.firmware", "0.1.3")
	viper.SetDefault("emulator.manufacturer", "GENERIC")
	viper.SetDefault("emulator.default_asb_enable", 0)
	viper.SetDefault("emulator.session_timeout", "10m")

	viper.SetDefault("emulator.transports.serial.baud_rate", 9600)
	viper.SetDefault("emulator.transports.serial.data_bits", 8)
	viper.SetDefault("emulator.transports.serial.stop_bits", 1)
	viper.SetDefault("emulator.transports.serial.parity", "none")
	viper.SetDefault("emulator.transports.serial.timeout", "5s")

	viper.SetDefault("emulator.transports.tcp.connect_timeout", "10s")
	viper.SetDefault("emulator.transports.tcp.read_timeout", "30s")
	viper.SetDefault("emulator.transports.tcp.write_timeout", "30s")
	viper.SetDefault("emulator.transports.tcp.keep_alive", true)

	viper.SetDefault("emulator.transports.usb.timeout", "5s")
	viper.SetDefault("emulator.transports.usb.bulk_transfer_size", 64)

	// Billing defaults (decimal strings; viper/mapstructure decode these
	// through decimal.Decimal's TextUnmarshaler).
	viper.SetDefault("billing.cost_per_text_char", "0.0001")
	viper.SetDefault("billing.cost_per_raster_kb", "0.01")
	viper.SetDefault("billing.cost_per_cut", "0.002")
	viper.SetDefault("billing.cost_per_barcode", "0.005")
	viper.SetDefault("billing.currency", "USD")

	// App defaults
	viper.SetDefault("app.name", "escpos-emulator")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.App.AppID == "" {
		return fmt.Errorf("app.app_id is required")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
