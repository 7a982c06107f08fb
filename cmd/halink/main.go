// HALink - Home Assistant to vendor cloud gateway
//
// This is the main entry point for the HALink bridge. HALink polls
// entity states from a local Home Assistant instance and republishes
// them as vendor-platform sub-devices through a single gateway MQTT
// session, handling sub-device registration, clock synchronisation,
// and downlink switching commands along the way.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/api"
	"github.com/nerrad567/halink/internal/bridge"
	"github.com/nerrad567/halink/internal/hass"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
	"github.com/nerrad567/halink/internal/infrastructure/mqtt"
	"github.com/nerrad567/halink/internal/timesync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Println(versionString())
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionString formats the build identity baked in via ldflags.
func versionString() string {
	return fmt.Sprintf("halink %s (commit %s, built %s)", version, commit, date)
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HALink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded",
		"path", configPath,
		"sub_devices", len(cfg.SubDevices),
	)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Derive the gateway's MQTT identity from its credential triple.
	// Every sub-device multiplexes over this single session.
	creds := alink.MQTTCredentials(
		cfg.Gateway.ProductKey,
		cfg.Gateway.DeviceName,
		cfg.Gateway.DeviceSecret,
		cfg.Broker.UseSSL,
	)

	broker := mqtt.New(cfg.Broker, creds, mqtt.RetryPolicy{
		Attempts: cfg.Bridge.RetryAttempts,
		Delay:    cfg.Bridge.GetRetryDelay(),
	}, log)
	defer func() {
		log.Info("closing broker session")
		if closeErr := broker.Close(); closeErr != nil {
			log.Error("error closing broker session", "error", closeErr)
		}
	}()

	source := hass.NewClient(cfg.HomeAssistant, log)
	syncer := timesync.New(cfg.Bridge, log)

	b, err := bridge.NewBridge(bridge.Options{
		Config:   cfg,
		Broker:   broker,
		Source:   source,
		Timesync: syncer,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	// Start the operational endpoint (if enabled)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Bridge:  b,
			Broker:  broker,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating api server: %w", apiErr)
		}
		if startErr := apiServer.Start(); startErr != nil {
			return fmt.Errorf("starting api server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing api server", "error", closeErr)
			}
		}()
	} else {
		log.Info("api server disabled")
	}

	// Run the bridge until the shutdown signal arrives. Cancellation is
	// the one clean way out; anything else is a real failure.
	if runErr := b.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("bridge stopped: %w", runErr)
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (if enabled)
	// 2. Broker session

	log.Info("HALink stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HALINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HALINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
