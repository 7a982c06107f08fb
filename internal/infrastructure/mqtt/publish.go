package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified topic.
//
// While the client is not connected the payload is dropped with a
// logged warning and ErrNotConnected is returned. Dropped payloads are
// never queued for later delivery; the next scheduled cycle supersedes
// them. Callers that treat a drop as routine (the property publisher)
// should check for ErrNotConnected with errors.Is.
//
// Messages are published unretained. Property posts and registration
// requests are point-in-time events; a late joiner must not replay
// them.
func (c *Client) Publish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if c.State() != StateConnected {
		c.dropped.Add(1)
		c.logger.Warn("publish dropped, not connected",
			"topic", topic,
			"state", string(c.State()),
		)
		return ErrNotConnected
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	token := c.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
