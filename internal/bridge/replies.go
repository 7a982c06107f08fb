package bridge

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// Replies watches the platform's acknowledgement topics: the post_reply
// of every enabled sub-device and the gateway's topo add_reply. The
// bridge is fire-and-forget on the uplink, so acknowledgements only
// feed the log; a rejection is an operator signal, not a retry trigger.
type Replies struct {
	broker Broker
	qos    byte
	logger *logging.Logger
	topics alink.Topics

	order []string

	received atomic.Uint64
	rejected atomic.Uint64
}

// NewReplies builds the acknowledgement watcher for the gateway and the
// given sub-devices. Disabled sub-devices get no subscription.
func NewReplies(broker Broker, gateway config.GatewayIdentity, subs []config.SubDeviceConfig, qos byte, logger *logging.Logger) *Replies {
	r := &Replies{
		broker: broker,
		qos:    qos,
		logger: logger.With("component", "replies"),
	}

	r.order = append(r.order, r.topics.TopoAddReply(gateway.ProductKey, gateway.DeviceName))
	for i := range subs {
		sub := &subs[i]
		if !sub.IsEnabled() {
			continue
		}
		r.order = append(r.order, r.topics.PropertyPostReply(sub.ProductKey, sub.DeviceName))
	}
	return r
}

// SubscribeAll subscribes every acknowledgement topic. Called after each
// broker connect.
func (r *Replies) SubscribeAll() error {
	for _, topic := range r.order {
		if err := r.broker.Subscribe(topic, r.qos, r.Handle); err != nil {
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
	}
	return nil
}

// Received returns how many acknowledgements have been decoded.
func (r *Replies) Received() uint64 {
	return r.received.Load()
}

// Rejected returns how many acknowledgements carried a non-success code.
func (r *Replies) Rejected() uint64 {
	return r.rejected.Load()
}

// Handle logs one platform acknowledgement.
func (r *Replies) Handle(topic string, payload []byte) {
	var reply alink.Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		r.logger.Debug("unparseable acknowledgement", "topic", topic, "error", err)
		return
	}

	r.received.Add(1)
	if reply.OK() {
		r.logger.Debug("platform accepted",
			"topic", topic,
			"request_id", reply.RequestID())
		return
	}

	r.rejected.Add(1)
	r.logger.Warn("platform rejected",
		"topic", topic,
		"request_id", reply.RequestID(),
		"code", reply.Code,
		"message", reply.Message)
}
