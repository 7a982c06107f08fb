package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers a handler for messages on the specified topic.
//
// The handler is called in a separate goroutine for each received
// message and should not block for extended periods. Panics inside a
// handler are recovered and logged so a malformed command cannot take
// the bridge down.
//
// Subscriptions are tracked and automatically restored after a
// reconnect; the broker session is clean so restoration is the
// client's responsibility.
func (c *Client) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if c.State() != StateConnected {
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, subscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	c.logger.Debug("subscribed", "topic", topic, "qos", qos)
	return nil
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// restoreSubscriptions re-subscribes to all tracked topics after a
// reconnect. Failures are logged, not fatal: a sub-device whose
// command topic could not be restored still reports properties, and
// the next reconnect retries the whole set.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
		if !token.WaitTimeout(subscribeTimeout) {
			c.logger.Warn("subscription restore timed out", "topic", sub.topic)
			continue
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("subscription restore failed", "topic", sub.topic, "error", err)
		}
	}
}

// wrapHandler adapts a handler to paho's callback shape, adding panic
// recovery.
func (c *Client) wrapHandler(handler func(topic string, payload []byte)) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("message handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		handler(msg.Topic(), msg.Payload())
	}
}
