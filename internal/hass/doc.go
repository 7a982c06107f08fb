// Package hass provides a client for the Home Assistant REST API.
//
// The bridge reads entity states from Home Assistant and, for downlink
// commands, calls Home Assistant services to switch devices on or off.
// Both paths go through this package; no other package talks to Home
// Assistant directly.
//
// # Fetch Semantics
//
// States pulls the full state dump in one request and filters it to the
// requested ids; it never returns an error. An entity missing from the
// dump, or one reporting an "unknown"/"unavailable" state, is simply
// absent from the result (or reports Known() == false), so callers can
// distinguish "no data this cycle" from a zero value. Single-entity
// reads and service calls report their failures individually.
//
// # Usage
//
//	client := hass.NewClient(cfg.HomeAssistant, logger)
//	states := client.States(ctx, []string{"sensor.living_room_temperature"})
//	for id, state := range states {
//	    if state.Known() {
//	        // use state.Value
//	    }
//	}
package hass
