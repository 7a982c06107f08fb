package bridge

import (
	"context"
	"time"

	"github.com/nerrad567/halink/internal/hass"
)

// Broker is the MQTT connection manager as seen by the bridge.
// Satisfied by *mqtt.Client; faked in tests.
type Broker interface {
	// Connect establishes the gateway session with bounded retries.
	Connect(ctx context.Context) error

	// Publish sends a payload; while not connected it drops the
	// payload and returns an error instead of queueing.
	Publish(topic string, payload []byte, qos byte) error

	// Subscribe registers a handler for downlink messages.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// Down signals each time a background reconnect sequence exhausts
	// its attempts.
	Down() <-chan struct{}

	// Close shuts the session down gracefully.
	Close() error
}

// EntitySource is the Home Assistant API as seen by the bridge.
// Satisfied by *hass.Client; faked in tests.
type EntitySource interface {
	// Ready reports whether the source API is reachable.
	Ready(ctx context.Context) error

	// States fetches entity states, omitting entities that fail.
	States(ctx context.Context, ids []string) map[string]hass.EntityState

	// State fetches a single entity state.
	State(ctx context.Context, entityID string) (hass.EntityState, error)

	// CallService invokes a service against one entity.
	CallService(ctx context.Context, domain, service, entityID string) error
}

// TimeSource measures the local clock's offset from network time.
// Satisfied by *timesync.Syncer; faked in tests.
type TimeSource interface {
	Offset(ctx context.Context) (time.Duration, error)
}

// Clock returns the bridge's view of current time: the local clock
// plus the NTP-measured offset. Payload timestamps use it; schedule
// arithmetic stays on the local clock.
type Clock func() time.Time
