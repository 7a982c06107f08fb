package bridge

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/nerrad567/halink/internal/infrastructure/config"
)

// propertyState is the boolean-ish on/off property shared by all
// controllable device types and door/smoke style sensors. It never
// takes a conversion factor and is never rounded.
const propertyState = "state"

// numberPattern extracts the leading numeric token from states that
// carry a unit suffix, e.g. "23.5 °C" or "230 V".
var numberPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

// Convert maps a raw entity state onto its vendor-schema property
// value: coerce the string to a number, apply the configured
// conversion factor (identity when absent), and round to the
// property's precision. State properties skip factor and rounding.
//
// A raw value that cannot be coerced returns ErrConversionFailed; the
// caller drops the property from that cycle's payload and carries on.
func Convert(deviceType config.DeviceType, property, raw string, factors map[string]float64) (float64, error) {
	value, err := coerce(deviceType, property, raw)
	if err != nil {
		return 0, err
	}

	if property == propertyState {
		return value, nil
	}

	factor, ok := factors[property]
	if !ok {
		factor = 1
	}
	return roundTo(value*factor, decimalsFor(property)), nil
}

// coerce turns a raw entity state string into a number.
func coerce(deviceType config.DeviceType, property, raw string) (float64, error) {
	if property == propertyState {
		return coerceState(deviceType, raw)
	}
	return parseNumber(raw)
}

// coerceState maps on/off style states to the platform's numeric
// encoding. Breakers additionally report 2 for a tripped protection
// stage.
func coerceState(deviceType config.DeviceType, raw string) (float64, error) {
	switch raw {
	case "on":
		return 1, nil
	case "off":
		return 0, nil
	}

	if raw == "trip" && deviceType == config.DeviceBreaker {
		return 2, nil
	}

	if deviceType == config.DeviceSensor {
		// Door and smoke sensors report contact-style states; anything
		// that is neither "on" nor numeric counts as inactive.
		if v, err := parseNumber(raw); err == nil {
			return v, nil
		}
		return 0, nil
	}

	return parseNumber(raw)
}

// parseNumber parses raw as a float, falling back to extracting the
// first numeric token for unit-suffixed states.
func parseNumber(raw string) (float64, error) {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, nil
	}
	if m := numberPattern.FindString(raw); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not numeric", ErrConversionFailed, raw)
}

// decimalsFor returns the decimal places kept for a property after
// conversion. Electrical instantaneous values keep 3, cumulative
// energy keeps 4, environmental readings keep 1.
func decimalsFor(property string) int {
	switch property {
	case "current", "active_power":
		return 3
	case "voltage", "temp", "hum", "frequency", "co2", "pm2_5", "pm10", "tvoc", "noise":
		return 1
	case "energy":
		return 4
	default:
		return -1
	}
}

// roundTo rounds v half away from zero to the given decimal places.
// Negative places leaves v untouched.
func roundTo(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	shift := math.Pow10(places)
	return math.Round(v*shift) / shift
}
