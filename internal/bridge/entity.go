package bridge

import "strings"

// entitySuffix maps property names whose Home Assistant entity suffix
// differs from the property name itself. Everything else uses the
// property name as its suffix.
var entitySuffix = map[string]string{
	"temp":  "temperature",
	"hum":   "humidity",
	"pm2_5": "pm25",
}

// EntityID derives the source entity id for a sub-device property by
// appending the property's suffix to the configured entity prefix,
// e.g. prefix "sensor.living_room_" + "temp" → "sensor.living_room_temperature".
//
// The derivation is recomputed from config on every use; nothing about
// entity mappings is persisted.
func EntityID(prefix, property string) string {
	suffix, ok := entitySuffix[property]
	if !ok {
		suffix = property
	}
	return prefix + suffix
}

// entityDomain extracts the Home Assistant domain from an entity id,
// e.g. "switch.heater_state" → "switch". Used to route service calls.
func entityDomain(entityID string) string {
	domain, _, found := strings.Cut(entityID, ".")
	if !found || domain == "" {
		return "switch"
	}
	return domain
}
