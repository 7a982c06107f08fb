package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// Publisher turns polled entity states into property reports and
// publishes each sub-device's report under its own platform identity.
type Publisher struct {
	broker Broker
	poller *Poller
	qos    byte
	now    Clock
	logger *logging.Logger
	topics alink.Topics

	dropped atomic.Uint64

	mu       sync.Mutex
	lastPost map[string]time.Time
}

// NewPublisher creates a Publisher. now supplies the timestamp stamped
// onto every report.
func NewPublisher(broker Broker, poller *Poller, qos byte, now Clock, logger *logging.Logger) *Publisher {
	return &Publisher{
		broker:   broker,
		poller:   poller,
		qos:      qos,
		now:      now,
		logger:   logger.With("component", "publisher"),
		lastPost: make(map[string]time.Time),
	}
}

// Dropped returns how many individual property values have been dropped
// for failing conversion.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// LastPublished returns each sub-device's most recent successful report
// time, keyed by sub-device id.
func (p *Publisher) LastPublished() map[string]time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Time, len(p.lastPost))
	for id, ts := range p.lastPost {
		out[id] = ts
	}
	return out
}

func (p *Publisher) markPublished(id string, ts time.Time) {
	p.mu.Lock()
	p.lastPost[id] = ts
	p.mu.Unlock()
}

// PushAll runs one push cycle over every enabled sub-device and returns
// how many reports were published. Disabled sub-devices are not fetched
// at all. A sub-device that yields nothing publishable is skipped, never
// reported with stale or partial placeholder values.
func (p *Publisher) PushAll(ctx context.Context, subs []config.SubDeviceConfig) int {
	published := 0
	for i := range subs {
		sub := &subs[i]
		if !sub.IsEnabled() {
			continue
		}
		if ctx.Err() != nil {
			return published
		}
		if p.Push(ctx, sub) {
			published++
		}
	}
	return published
}

// Push polls, converts, and publishes one sub-device's report. Returns
// true when a report reached the broker. Conversion failures drop the
// individual property; transport failures drop the whole report. Both
// are logged and neither aborts the cycle.
func (p *Publisher) Push(ctx context.Context, sub *config.SubDeviceConfig) bool {
	states := p.poller.Poll(ctx, sub)
	if len(states) == 0 {
		p.logger.Warn("no readable entities, skipping report", "device", sub.ID)
		return false
	}

	values := make(map[string]float64, len(states))
	for _, property := range sub.Properties {
		state, ok := states[property]
		if !ok {
			continue
		}
		v, err := Convert(sub.Type, property, state.Value, sub.Factors)
		if err != nil {
			p.dropped.Add(1)
			p.logger.Warn("dropping unconvertible property",
				"device", sub.ID,
				"property", property,
				"state", state.Value,
				"error", err)
			continue
		}
		values[property] = v
	}
	if len(values) == 0 {
		p.logger.Warn("no convertible values, skipping report", "device", sub.ID)
		return false
	}

	ts := p.now()
	post := alink.NewPropertyPost(values, ts)
	payload, err := json.Marshal(post)
	if err != nil {
		p.logger.Warn("encoding report failed", "device", sub.ID, "error", err)
		return false
	}

	topic := p.topics.PropertyPost(sub.ProductKey, sub.DeviceName)
	if err := p.broker.Publish(topic, payload, p.qos); err != nil {
		p.logger.Warn("publishing report failed",
			"device", sub.ID,
			"topic", topic,
			"error", err)
		return false
	}

	p.markPublished(sub.ID, ts)
	p.logger.Debug("report published",
		"device", sub.ID,
		"topic", topic,
		"properties", len(values))
	return true
}
