// Package bridge implements the synchronization engine between Home
// Assistant and the vendor IoT platform.
//
// It polls Home Assistant entity states on a fixed interval, converts
// raw values onto the per-device-type property schema, and publishes
// them as Alink property posts under each sub-device's own platform
// identity. All sub-devices share the single gateway MQTT session.
//
// # Architecture
//
//	┌────────────────┐   REST    ┌────────────────┐   MQTT    ┌──────────────┐
//	│ Home Assistant │◄─────────►│     Bridge     │◄─────────►│ Vendor Cloud │
//	│   (entities)   │           │  (this pkg)    │           │ (sub-devices)│
//	└────────────────┘           └────────────────┘           └──────────────┘
//
// # Key Responsibilities
//
//   - Derive each sub-device property's source entity from its prefix
//   - Poll entity states and coerce them to numeric property values
//   - Apply per-property conversion factors and precision rounding
//   - Publish property posts per sub-device on the push interval
//   - Re-register sub-devices with the platform on the discovery interval
//   - Apply downlink property-set commands back to Home Assistant
//   - Sequence startup (delay, clock sync, readiness wait, connect) and
//     restart it when the connection manager gives up
//
// # Failure Containment
//
// Per-entity fetch failures and per-property conversion failures drop
// only that value from the cycle's payload; a sub-device with no usable
// values skips its publish entirely. Publish failures are logged and
// superseded by the next cycle. Only configuration and exhausted
// connection attempts escalate beyond the cycle, and the orchestrator
// answers those by re-running the startup sequence.
//
// # Thread Model
//
// One coordinating loop owns the schedule and runs due tasks in
// sequence; downlink command handlers run on the MQTT client's
// goroutines and serialize their sends through the connection manager.
package bridge
