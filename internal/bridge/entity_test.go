package bridge

import "testing"

func TestEntityID(t *testing.T) {
	tests := []struct {
		property string
		want     string
	}{
		{"temp", "sensor.living_room_temperature"},
		{"hum", "sensor.living_room_humidity"},
		{"pm2_5", "sensor.living_room_pm25"},
		{"co2", "sensor.living_room_co2"},
		{"voltage", "sensor.living_room_voltage"},
		{"state", "sensor.living_room_state"},
	}

	for _, tt := range tests {
		if got := EntityID("sensor.living_room_", tt.property); got != tt.want {
			t.Errorf("EntityID(%q) = %q, want %q", tt.property, got, tt.want)
		}
	}
}

func TestEntityDomain(t *testing.T) {
	tests := []struct {
		entityID string
		want     string
	}{
		{"switch.heater_state", "switch"},
		{"light.hall_state", "light"},
		{"no_dot_at_all", "switch"},
	}

	for _, tt := range tests {
		if got := entityDomain(tt.entityID); got != tt.want {
			t.Errorf("entityDomain(%q) = %q, want %q", tt.entityID, got, tt.want)
		}
	}
}
