package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// Discovery announces sub-devices to the platform by publishing signed
// topo/add requests under the gateway identity. Registration is
// idempotent on the platform side, so the bridge re-announces on every
// startup and on the discovery interval without tracking outcomes.
type Discovery struct {
	broker  Broker
	gateway config.GatewayIdentity
	qos     byte
	now     Clock
	logger  *logging.Logger
	topics  alink.Topics
}

// NewDiscovery creates a Discovery publishing under the given gateway
// identity. now supplies the signing timestamp.
func NewDiscovery(broker Broker, gateway config.GatewayIdentity, qos byte, now Clock, logger *logging.Logger) *Discovery {
	return &Discovery{
		broker:  broker,
		gateway: gateway,
		qos:     qos,
		now:     now,
		logger:  logger.With("component", "discovery"),
	}
}

// RegisterAll announces every enabled sub-device and returns how many
// announcements were published. Individual failures are logged and do
// not stop the pass.
func (d *Discovery) RegisterAll(subs []config.SubDeviceConfig) int {
	registered := 0
	for i := range subs {
		sub := &subs[i]
		if !sub.IsEnabled() {
			continue
		}
		if err := d.Register(sub); err != nil {
			d.logger.Warn("announcement failed", "device", sub.ID, "error", err)
			continue
		}
		registered++
	}
	return registered
}

// Register publishes one topo/add request for the sub-device, signed
// with the sub-device's own secret.
func (d *Discovery) Register(sub *config.SubDeviceConfig) error {
	req := alink.NewTopoAdd(uuid.New().String(), sub.ProductKey, sub.DeviceName, sub.DeviceSecret, d.now())
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding topo/add: %w", err)
	}

	topic := d.topics.TopoAdd(d.gateway.ProductKey, d.gateway.DeviceName)
	if err := d.broker.Publish(topic, payload, d.qos); err != nil {
		return fmt.Errorf("publishing topo/add: %w", err)
	}

	d.logger.Debug("sub-device announced",
		"device", sub.ID,
		"product_key", sub.ProductKey,
		"device_name", sub.DeviceName)
	return nil
}
