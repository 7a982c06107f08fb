package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the HALink gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway       GatewayIdentity     `yaml:"gateway"`
	Broker        BrokerConfig        `yaml:"broker"`
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	API           APIConfig           `yaml:"api"`
	Logging       LoggingConfig       `yaml:"logging"`
	SubDevices    []SubDeviceConfig   `yaml:"sub_devices"`
}

// GatewayIdentity holds the platform credentials for the parent gateway
// device. The triple is used once per connection to derive the MQTT client
// id and authentication signature; it is never sent anywhere in clear form.
type GatewayIdentity struct {
	ProductKey   string `yaml:"product_key"`
	DeviceName   string `yaml:"device_name"`
	DeviceSecret string `yaml:"device_secret"`
}

// BrokerConfig contains the vendor MQTT broker endpoints.
type BrokerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`     // plaintext endpoint
	TLSPort   int    `yaml:"tls_port"` // TLS endpoint, used when UseSSL is set
	UseSSL    bool   `yaml:"use_ssl"`
	KeepAlive int    `yaml:"keep_alive"` // seconds
	QoS       int    `yaml:"qos"`
}

// HomeAssistantConfig contains the source controller's REST API settings.
type HomeAssistantConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	FetchTimeout int    `yaml:"fetch_timeout"` // seconds, per REST call
}

// BridgeConfig contains the scheduling and retry options for the bridge
// engine. Field names in YAML follow the vendor integration's historical
// key names (wy_push_interval, ha_discovery_interval).
type BridgeConfig struct {
	PushInterval       int    `yaml:"wy_push_interval"`       // seconds between property pushes
	DiscoveryInterval  int    `yaml:"ha_discovery_interval"`  // seconds between re-registrations
	StartupDelay       int    `yaml:"startup_delay"`          // seconds to wait before startup
	EntityReadyTimeout int    `yaml:"entity_ready_timeout"`   // seconds to wait for entities
	RetryAttempts      int    `yaml:"retry_attempts"`         // bounded connect attempts
	RetryDelay         int    `yaml:"retry_delay"`            // seconds between attempts
	NTPServer          string `yaml:"ntp_server"`
	NTPTimeout         int    `yaml:"ntp_timeout"` // seconds
}

// APIConfig contains the optional operational HTTP endpoint settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DeviceType identifies the vendor-schema device class of a sub-device.
// Each type has a fixed set of properties it may report.
type DeviceType string

// Known device types.
const (
	DeviceSensor  DeviceType = "sensor"
	DeviceSwitch  DeviceType = "switch"
	DeviceSocket  DeviceType = "socket"
	DeviceBreaker DeviceType = "breaker"
)

// electricProperties is the property set shared by all mains-connected
// device types (switch, socket, breaker).
var electricProperties = []string{
	"state", "voltage", "current", "active_power", "energy", "frequency",
}

// ValidProperties maps each device type to the property names it may report.
// Validated once at config load; runtime code can assume membership.
var ValidProperties = map[DeviceType][]string{
	DeviceSensor: {
		"temp", "hum", "co2", "pm2_5", "pm10", "tvoc", "noise",
		"battery", "smoke", "state",
	},
	DeviceSwitch:  electricProperties,
	DeviceSocket:  electricProperties,
	DeviceBreaker: electricProperties,
}

// Valid reports whether t is one of the known device types.
func (t DeviceType) Valid() bool {
	_, ok := ValidProperties[t]
	return ok
}

// Supports reports whether property is valid for this device type.
func (t DeviceType) Supports(property string) bool {
	for _, p := range ValidProperties[t] {
		if p == property {
			return true
		}
	}
	return false
}

// Controllable reports whether the type accepts downlink switching
// commands. Sensors are report-only.
func (t DeviceType) Controllable() bool {
	switch t {
	case DeviceSwitch, DeviceSocket, DeviceBreaker:
		return true
	default:
		return false
	}
}

// SubDeviceConfig describes one logical device multiplexed under the gateway
// connection. Each sub-device has its own platform identity and its own
// Home Assistant entity prefix.
type SubDeviceConfig struct {
	ID           string             `yaml:"id"`
	Type         DeviceType         `yaml:"type"`
	ProductKey   string             `yaml:"product_key"`
	DeviceName   string             `yaml:"device_name"`
	DeviceSecret string             `yaml:"device_secret"`
	EntityPrefix string             `yaml:"entity_prefix"`
	Properties   []string           `yaml:"properties"`
	Factors      map[string]float64 `yaml:"factors"`
	Enabled      *bool              `yaml:"enabled"`
}

// IsEnabled reports whether the sub-device participates in polling,
// publishing, discovery, and command handling. Defaults to true when the
// enabled key is omitted.
func (s *SubDeviceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HALINK_SECTION_KEY
// For example: HALINK_HA_TOKEN, HALINK_BROKER_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			Port:      1883,
			TLSPort:   8883,
			UseSSL:    true,
			KeepAlive: 60,
			QoS:       1,
		},
		HomeAssistant: HomeAssistantConfig{
			FetchTimeout: 30,
		},
		Bridge: BridgeConfig{
			PushInterval:       60,
			DiscoveryInterval:  3600,
			StartupDelay:       30,
			EntityReadyTimeout: 600,
			RetryAttempts:      15,
			RetryDelay:         5,
			NTPServer:          "pool.ntp.org",
			NTPTimeout:         10,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8126,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HALINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("HALINK_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}

	// Home Assistant
	if v := os.Getenv("HALINK_HA_URL"); v != "" {
		cfg.HomeAssistant.URL = v
	}
	if v := os.Getenv("HALINK_HA_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}

	// Gateway secret (IMPORTANT: prefer env over file in production)
	if v := os.Getenv("HALINK_GATEWAY_DEVICE_SECRET"); v != "" {
		cfg.Gateway.DeviceSecret = v
	}

	// Logging
	if v := os.Getenv("HALINK_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Every problem found is reported; the bridge must not start with a partially
// valid configuration, so errors are collected rather than returned one at a
// time.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Gateway identity
	if c.Gateway.ProductKey == "" {
		errs = append(errs, "gateway.product_key is required")
	}
	if c.Gateway.DeviceName == "" {
		errs = append(errs, "gateway.device_name is required")
	}
	if c.Gateway.DeviceSecret == "" {
		errs = append(errs, "gateway.device_secret is required (set HALINK_GATEWAY_DEVICE_SECRET environment variable)")
	}

	// Broker
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.Broker.TLSPort < 1 || c.Broker.TLSPort > 65535 {
		errs = append(errs, "broker.tls_port must be between 1 and 65535")
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		errs = append(errs, "broker.qos must be 0, 1, or 2")
	}
	if c.Broker.KeepAlive < 1 {
		errs = append(errs, "broker.keep_alive must be a positive integer")
	}

	// Home Assistant
	if c.HomeAssistant.URL == "" {
		errs = append(errs, "home_assistant.url is required")
	}
	if c.HomeAssistant.Token == "" {
		errs = append(errs, "home_assistant.token is required (set HALINK_HA_TOKEN environment variable)")
	}
	if c.HomeAssistant.FetchTimeout < 1 {
		errs = append(errs, "home_assistant.fetch_timeout must be a positive integer")
	}

	// Bridge scheduling options must all be positive integers.
	bridgeInts := []struct {
		name  string
		value int
	}{
		{"bridge.wy_push_interval", c.Bridge.PushInterval},
		{"bridge.ha_discovery_interval", c.Bridge.DiscoveryInterval},
		{"bridge.startup_delay", c.Bridge.StartupDelay},
		{"bridge.entity_ready_timeout", c.Bridge.EntityReadyTimeout},
		{"bridge.retry_attempts", c.Bridge.RetryAttempts},
		{"bridge.retry_delay", c.Bridge.RetryDelay},
		{"bridge.ntp_timeout", c.Bridge.NTPTimeout},
	}
	for _, opt := range bridgeInts {
		if opt.value < 1 {
			errs = append(errs, fmt.Sprintf("%s must be a positive integer", opt.name))
		}
	}
	if c.Bridge.NTPServer == "" {
		errs = append(errs, "bridge.ntp_server is required")
	}

	// API endpoint
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.Host == "" {
			errs = append(errs, "api.host is required when api.enabled is set")
		}
	}

	// Sub-devices
	if len(c.SubDevices) == 0 {
		errs = append(errs, "sub_devices must contain at least one device")
	}
	seen := make(map[string]bool, len(c.SubDevices))
	for i := range c.SubDevices {
		errs = append(errs, c.SubDevices[i].validate(seen)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validate checks one sub-device entry and returns every problem found.
// Error strings name the offending sub-device id and field so a bad entry
// in a large device list can be located without guesswork.
func (s *SubDeviceConfig) validate(seen map[string]bool) []string {
	var errs []string

	id := s.ID
	if id == "" {
		id = "?"
		errs = append(errs, "sub_devices[?].id is required")
	} else if seen[id] {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].id is duplicated", id))
	}
	seen[id] = true

	if !s.Type.Valid() {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].type %q is not one of sensor, switch, socket, breaker", id, s.Type))
		return errs // property checks below need a valid type
	}

	if s.ProductKey == "" {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].product_key is required", id))
	}
	if s.DeviceName == "" {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].device_name is required", id))
	}
	if s.DeviceSecret == "" {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].device_secret is required", id))
	}
	if s.EntityPrefix == "" {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].entity_prefix is required", id))
	}

	if len(s.Properties) == 0 {
		errs = append(errs, fmt.Sprintf("sub_devices[%s].properties must contain at least one property", id))
	}
	for _, p := range s.Properties {
		if !s.Type.Supports(p) {
			errs = append(errs, fmt.Sprintf("sub_devices[%s].properties: %q is not valid for type %q", id, p, s.Type))
		}
	}

	for p := range s.Factors {
		if !containsString(s.Properties, p) {
			errs = append(errs, fmt.Sprintf("sub_devices[%s].factors: %q is not listed in properties", id, p))
		}
	}

	return errs
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// GetPushInterval returns the property push interval as a Duration.
func (b BridgeConfig) GetPushInterval() time.Duration {
	return time.Duration(b.PushInterval) * time.Second
}

// GetDiscoveryInterval returns the re-registration interval as a Duration.
func (b BridgeConfig) GetDiscoveryInterval() time.Duration {
	return time.Duration(b.DiscoveryInterval) * time.Second
}

// GetStartupDelay returns the startup delay as a Duration.
func (b BridgeConfig) GetStartupDelay() time.Duration {
	return time.Duration(b.StartupDelay) * time.Second
}

// GetEntityReadyTimeout returns the entity readiness timeout as a Duration.
func (b BridgeConfig) GetEntityReadyTimeout() time.Duration {
	return time.Duration(b.EntityReadyTimeout) * time.Second
}

// GetRetryDelay returns the fixed delay between connection attempts as a Duration.
func (b BridgeConfig) GetRetryDelay() time.Duration {
	return time.Duration(b.RetryDelay) * time.Second
}

// GetNTPTimeout returns the NTP query timeout as a Duration.
func (b BridgeConfig) GetNTPTimeout() time.Duration {
	return time.Duration(b.NTPTimeout) * time.Second
}

// GetFetchTimeout returns the per-call REST timeout as a Duration.
func (h HomeAssistantConfig) GetFetchTimeout() time.Duration {
	return time.Duration(h.FetchTimeout) * time.Second
}

// GetKeepAlive returns the MQTT keep-alive interval as a Duration.
func (b BrokerConfig) GetKeepAlive() time.Duration {
	return time.Duration(b.KeepAlive) * time.Second
}
