package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// commandTimeout bounds the Home Assistant round trip for one downlink
// command. Handlers run on broker callback goroutines with no inbound
// context, so each command gets its own deadline.
const commandTimeout = 10 * time.Second

// Commands routes downlink property/set requests to Home Assistant
// service calls and acknowledges each request back to the platform.
// Only enabled, controllable sub-devices get a command topic; sensors
// are report-only.
type Commands struct {
	broker  Broker
	source  EntitySource
	qos     byte
	now     Clock
	logger  *logging.Logger
	topics  alink.Topics
	order   []string
	byTopic map[string]*config.SubDeviceConfig
	handled atomic.Uint64
}

// NewCommands creates the command router for the given sub-devices.
func NewCommands(broker Broker, source EntitySource, subs []config.SubDeviceConfig, qos byte, now Clock, logger *logging.Logger) *Commands {
	c := &Commands{
		broker:  broker,
		source:  source,
		qos:     qos,
		now:     now,
		logger:  logger.With("component", "commands"),
		byTopic: make(map[string]*config.SubDeviceConfig),
	}
	for i := range subs {
		sub := &subs[i]
		if !sub.IsEnabled() || !sub.Type.Controllable() {
			continue
		}
		topic := c.topics.PropertySet(sub.ProductKey, sub.DeviceName)
		c.order = append(c.order, topic)
		c.byTopic[topic] = sub
	}
	return c
}

// SubscribeAll subscribes every command topic. Called after each broker
// connect; the broker restores subscriptions across reconnects on its
// own, so repeat calls on the same session are harmless overwrites.
func (c *Commands) SubscribeAll() error {
	for _, topic := range c.order {
		if err := c.broker.Subscribe(topic, c.qos, c.Handle); err != nil {
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
	}
	return nil
}

// Handled returns how many downlink commands have been applied.
func (c *Commands) Handled() uint64 {
	return c.handled.Load()
}

// Handle processes one downlink message: apply the requested state via
// the source's service API, acknowledge with the platform's reply
// envelope, then report the fresh state so the platform converges
// without waiting for the next push cycle.
//
// A payload that cannot be parsed is dropped without a reply since
// there is no request id to echo.
func (c *Commands) Handle(topic string, payload []byte) {
	sub, ok := c.byTopic[topic]
	if !ok {
		c.logger.Warn("command on unexpected topic", "topic", topic)
		return
	}

	var req alink.ServiceRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.logger.Warn("malformed command payload",
			"device", sub.ID,
			"topic", topic,
			"error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := c.apply(ctx, sub, req); err != nil {
		c.logger.Warn("command failed",
			"device", sub.ID,
			"request_id", req.RequestID(),
			"error", err)
		c.reply(sub, req.RequestID(), alink.CodeFailure, err.Error())
		return
	}

	c.handled.Add(1)
	c.logger.Info("command applied",
		"device", sub.ID,
		"request_id", req.RequestID())
	c.reply(sub, req.RequestID(), alink.CodeSuccess, "")
	c.reportState(ctx, sub)
}

// apply maps the request's state parameter onto a turn_on/turn_off
// service call against the sub-device's state entity. 1 switches on;
// any other numeric value switches off, matching the platform's
// property encoding.
func (c *Commands) apply(ctx context.Context, sub *config.SubDeviceConfig, req alink.ServiceRequest) error {
	raw, ok := req.Params["state"]
	if !ok {
		return fmt.Errorf("%w: no state parameter", ErrUnsupportedCommand)
	}
	state, ok := raw.(float64)
	if !ok {
		return fmt.Errorf("%w: state %v is not numeric", ErrUnsupportedCommand, raw)
	}

	service := "turn_off"
	if state == 1 {
		service = "turn_on"
	}

	entityID := EntityID(sub.EntityPrefix, propertyState)
	return c.source.CallService(ctx, entityDomain(entityID), service, entityID)
}

// reply publishes the acknowledgement envelope echoing the request id.
func (c *Commands) reply(sub *config.SubDeviceConfig, requestID string, code int, message string) {
	ack := alink.NewServiceReply(requestID, code, message)
	payload, err := json.Marshal(ack)
	if err != nil {
		c.logger.Warn("encoding reply failed", "device", sub.ID, "error", err)
		return
	}

	topic := c.topics.PropertySetReply(sub.ProductKey, sub.DeviceName)
	if err := c.broker.Publish(topic, payload, c.qos); err != nil {
		c.logger.Warn("publishing reply failed",
			"device", sub.ID,
			"topic", topic,
			"error", err)
	}
}

// reportState reads the state entity back and publishes a single-property
// report. Failures are logged only; the next push cycle covers the gap.
func (c *Commands) reportState(ctx context.Context, sub *config.SubDeviceConfig) {
	entityID := EntityID(sub.EntityPrefix, propertyState)
	state, err := c.source.State(ctx, entityID)
	if err != nil {
		c.logger.Warn("state readback failed",
			"device", sub.ID,
			"entity_id", entityID,
			"error", err)
		return
	}
	if !state.Known() {
		c.logger.Debug("state readback not usable", "device", sub.ID, "state", state.Value)
		return
	}

	value, err := Convert(sub.Type, propertyState, state.Value, sub.Factors)
	if err != nil {
		c.logger.Warn("state readback conversion failed",
			"device", sub.ID,
			"state", state.Value,
			"error", err)
		return
	}

	post := alink.NewPropertyPost(map[string]float64{propertyState: value}, c.now())
	payload, err := json.Marshal(post)
	if err != nil {
		c.logger.Warn("encoding state report failed", "device", sub.ID, "error", err)
		return
	}

	topic := c.topics.PropertyPost(sub.ProductKey, sub.DeviceName)
	if err := c.broker.Publish(topic, payload, c.qos); err != nil {
		c.logger.Warn("publishing state report failed",
			"device", sub.ID,
			"topic", topic,
			"error", err)
	}
}
