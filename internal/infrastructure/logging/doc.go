// Package logging provides structured logging for the HALink gateway.
//
// It wraps the standard log/slog package so every component in the bridge
// logs through one configured handler.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("bridge starting", "devices", len(cfg.SubDevices))
//	logger.Error("publish failed", "device", id, "error", err)
//
// # Security
//
// Never log device secrets, the Home Assistant token, or derived MQTT
// passwords. Log key identifiers (product key, device name) instead.
package logging
