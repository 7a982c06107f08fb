package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a fully valid configuration for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Gateway = GatewayIdentity{
		ProductKey:   "gw-pk",
		DeviceName:   "gw-dn",
		DeviceSecret: "gw-secret",
	}
	cfg.Broker.Host = "mqtt.example.com"
	cfg.HomeAssistant.URL = "http://homeassistant.local:8123"
	cfg.HomeAssistant.Token = "test-token"
	cfg.SubDevices = []SubDeviceConfig{
		{
			ID:           "socket-01",
			Type:         DeviceSocket,
			ProductKey:   "sd-pk",
			DeviceName:   "sd-dn",
			DeviceSecret: "sd-secret",
			EntityPrefix: "sensor.socket_01_",
			Properties:   []string{"state", "voltage", "current"},
			Factors:      map[string]float64{"voltage": 0.1},
		},
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  product_key: "a1b2c3"
  device_name: "ha-gateway"
  device_secret: "secret123"
broker:
  host: "mqtt.example.com"
  port: 1883
  tls_port: 8883
  use_ssl: false
home_assistant:
  url: "http://homeassistant.local:8123"
  token: "long-lived-token"
bridge:
  wy_push_interval: 30
sub_devices:
  - id: "socket-livingroom"
    type: "socket"
    product_key: "sd-pk"
    device_name: "sd-livingroom"
    device_secret: "sd-secret"
    entity_prefix: "sensor.livingroom_socket_"
    properties: ["state", "voltage", "current", "active_power", "energy"]
    factors:
      voltage: 0.1
    enabled: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ProductKey != "a1b2c3" {
		t.Errorf("Gateway.ProductKey = %q, want %q", cfg.Gateway.ProductKey, "a1b2c3")
	}
	if cfg.Broker.UseSSL {
		t.Error("Broker.UseSSL = true, want false (explicit override of default)")
	}
	if cfg.Bridge.PushInterval != 30 {
		t.Errorf("Bridge.PushInterval = %d, want 30", cfg.Bridge.PushInterval)
	}
	// Defaults survive for keys the file omits.
	if cfg.Bridge.DiscoveryInterval != 3600 {
		t.Errorf("Bridge.DiscoveryInterval = %d, want default 3600", cfg.Bridge.DiscoveryInterval)
	}
	if cfg.Bridge.RetryAttempts != 15 {
		t.Errorf("Bridge.RetryAttempts = %d, want default 15", cfg.Bridge.RetryAttempts)
	}
	if len(cfg.SubDevices) != 1 {
		t.Fatalf("len(SubDevices) = %d, want 1", len(cfg.SubDevices))
	}
	if !cfg.SubDevices[0].IsEnabled() {
		t.Error("SubDevices[0].IsEnabled() = false, want true")
	}
	if cfg.SubDevices[0].Factors["voltage"] != 0.1 {
		t.Errorf("Factors[voltage] = %v, want 0.1", cfg.SubDevices[0].Factors["voltage"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("gateway: [not: closed"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_NonNumericFactor(t *testing.T) {
	content := `
gateway:
  product_key: "pk"
  device_name: "dn"
  device_secret: "ds"
broker:
  host: "mqtt.example.com"
home_assistant:
  url: "http://ha.local:8123"
  token: "tok"
sub_devices:
  - id: "s1"
    type: "sensor"
    product_key: "pk"
    device_name: "dn"
    device_secret: "ds"
    entity_prefix: "sensor.s1_"
    properties: ["temp"]
    factors:
      temp: "not-a-number"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for non-numeric factor, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
gateway:
  product_key: "pk"
  device_name: "dn"
  device_secret: "file-secret"
broker:
  host: "file-host"
home_assistant:
  url: "http://ha.local:8123"
  token: "file-token"
sub_devices:
  - id: "s1"
    type: "sensor"
    product_key: "pk"
    device_name: "dn"
    device_secret: "ds"
    entity_prefix: "sensor.s1_"
    properties: ["temp"]
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("HALINK_HA_TOKEN", "env-token")
	t.Setenv("HALINK_GATEWAY_DEVICE_SECRET", "env-secret")
	t.Setenv("HALINK_BROKER_HOST", "env-host")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeAssistant.Token != "env-token" {
		t.Errorf("HomeAssistant.Token = %q, want env override", cfg.HomeAssistant.Token)
	}
	if cfg.Gateway.DeviceSecret != "env-secret" {
		t.Errorf("Gateway.DeviceSecret = %q, want env override", cfg.Gateway.DeviceSecret)
	}
	if cfg.Broker.Host != "env-host" {
		t.Errorf("Broker.Host = %q, want env override", cfg.Broker.Host)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string // substring expected in the error, empty = no error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing gateway product key",
			mutate:  func(c *Config) { c.Gateway.ProductKey = "" },
			wantErr: "gateway.product_key",
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.Broker.Host = "" },
			wantErr: "broker.host",
		},
		{
			name:    "missing ha token",
			mutate:  func(c *Config) { c.HomeAssistant.Token = "" },
			wantErr: "home_assistant.token",
		},
		{
			name:    "zero push interval",
			mutate:  func(c *Config) { c.Bridge.PushInterval = 0 },
			wantErr: "bridge.wy_push_interval",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.Bridge.RetryAttempts = -1 },
			wantErr: "bridge.retry_attempts",
		},
		{
			name:    "no sub-devices",
			mutate:  func(c *Config) { c.SubDevices = nil },
			wantErr: "sub_devices",
		},
		{
			name: "unknown device type",
			mutate: func(c *Config) {
				c.SubDevices[0].Type = "dimmer"
			},
			wantErr: `sub_devices[socket-01].type`,
		},
		{
			name: "property not valid for type",
			mutate: func(c *Config) {
				c.SubDevices[0].Properties = append(c.SubDevices[0].Properties, "temp")
			},
			wantErr: `sub_devices[socket-01].properties: "temp"`,
		},
		{
			name: "factor not in properties",
			mutate: func(c *Config) {
				c.SubDevices[0].Factors = map[string]float64{"energy": 1.0}
			},
			wantErr: `sub_devices[socket-01].factors: "energy"`,
		},
		{
			name: "duplicate sub-device id",
			mutate: func(c *Config) {
				dup := c.SubDevices[0]
				c.SubDevices = append(c.SubDevices, dup)
			},
			wantErr: "sub_devices[socket-01].id is duplicated",
		},
		{
			name: "missing entity prefix",
			mutate: func(c *Config) {
				c.SubDevices[0].EntityPrefix = ""
			},
			wantErr: "sub_devices[socket-01].entity_prefix",
		},
		{
			name: "api enabled with invalid port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.ProductKey = ""
	cfg.Broker.Host = ""
	cfg.Bridge.RetryDelay = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"gateway.product_key", "broker.host", "bridge.retry_delay"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestDeviceType_Supports(t *testing.T) {
	tests := []struct {
		devType  DeviceType
		property string
		want     bool
	}{
		{DeviceSensor, "temp", true},
		{DeviceSensor, "voltage", false},
		{DeviceSocket, "voltage", true},
		{DeviceSocket, "hum", false},
		{DeviceBreaker, "state", true},
		{DeviceSwitch, "energy", true},
		{DeviceType("dimmer"), "state", false},
	}

	for _, tt := range tests {
		if got := tt.devType.Supports(tt.property); got != tt.want {
			t.Errorf("%s.Supports(%q) = %v, want %v", tt.devType, tt.property, got, tt.want)
		}
	}
}

func TestSubDeviceConfig_IsEnabled(t *testing.T) {
	var sd SubDeviceConfig
	if !sd.IsEnabled() {
		t.Error("IsEnabled() with nil field = false, want true (default)")
	}

	off := false
	sd.Enabled = &off
	if sd.IsEnabled() {
		t.Error("IsEnabled() with explicit false = true, want false")
	}

	on := true
	sd.Enabled = &on
	if !sd.IsEnabled() {
		t.Error("IsEnabled() with explicit true = false, want true")
	}
}

func TestDurationGetters(t *testing.T) {
	b := BridgeConfig{
		PushInterval:       60,
		DiscoveryInterval:  3600,
		StartupDelay:       30,
		EntityReadyTimeout: 600,
		RetryDelay:         5,
		NTPTimeout:         10,
	}

	if got := b.GetPushInterval(); got != 60*time.Second {
		t.Errorf("GetPushInterval() = %v, want 60s", got)
	}
	if got := b.GetDiscoveryInterval(); got != time.Hour {
		t.Errorf("GetDiscoveryInterval() = %v, want 1h", got)
	}
	if got := b.GetRetryDelay(); got != 5*time.Second {
		t.Errorf("GetRetryDelay() = %v, want 5s", got)
	}

	h := HomeAssistantConfig{FetchTimeout: 30}
	if got := h.GetFetchTimeout(); got != 30*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 30s", got)
	}
}
