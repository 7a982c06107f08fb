// Package config handles loading and validating HALink gateway configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of gateway, broker, and sub-device definitions
//   - Default value handling
//
// The configuration is the only source of sub-device definitions: each entry
// binds a platform identity (product key, device name, device secret) to a
// Home Assistant entity prefix and a property list. Validation is strict:
// the bridge refuses to start when any sub-device references a property its
// device type cannot report, so schema mistakes surface at boot rather than
// as silently absent platform data.
//
// Security Considerations:
//   - Secrets (device secrets, the Home Assistant token) should be set via
//     environment variables rather than the file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(cfg.SubDevices))
package config
