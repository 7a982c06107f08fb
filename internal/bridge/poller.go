package bridge

import (
	"context"

	"github.com/nerrad567/halink/internal/hass"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// Poller fetches the current entity states backing one sub-device's
// configured properties.
type Poller struct {
	source EntitySource
	logger *logging.Logger
}

// NewPoller creates a Poller reading from the given source.
func NewPoller(source EntitySource, logger *logging.Logger) *Poller {
	return &Poller{
		source: source,
		logger: logger.With("component", "poller"),
	}
}

// Poll fetches the states for every configured property of the sub-device
// and returns them keyed by property name. Properties whose entity could
// not be fetched, or whose state is unknown or unavailable, are omitted.
// A sub-device with no readable entities yields an empty map, never an error.
func (p *Poller) Poll(ctx context.Context, sub *config.SubDeviceConfig) map[string]hass.EntityState {
	ids := make([]string, 0, len(sub.Properties))
	byEntity := make(map[string]string, len(sub.Properties))
	for _, property := range sub.Properties {
		id := EntityID(sub.EntityPrefix, property)
		ids = append(ids, id)
		byEntity[id] = property
	}

	fetched := p.source.States(ctx, ids)

	states := make(map[string]hass.EntityState, len(fetched))
	for _, id := range ids {
		property := byEntity[id]
		state, ok := fetched[id]
		if !ok {
			p.logger.Debug("entity missing",
				"device", sub.ID,
				"property", property,
				"entity_id", id)
			continue
		}
		if !state.Known() {
			p.logger.Debug("entity state not usable",
				"device", sub.ID,
				"property", property,
				"entity_id", id,
				"state", state.Value)
			continue
		}
		states[property] = state
	}

	return states
}
