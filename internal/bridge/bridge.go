package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// readyProbeInterval is how often entity readiness is re-probed during
// the startup wait.
const readyProbeInterval = 10 * time.Second

// Options carries the dependencies for NewBridge. Config, Broker,
// Source, and Timesync are required; a nil Logger falls back to the
// default logger.
type Options struct {
	Config   *config.Config
	Broker   Broker
	Source   EntitySource
	Timesync TimeSource
	Logger   *logging.Logger
}

// Bridge owns the gateway lifecycle: clock sync, entity readiness,
// broker connection, sub-device announcement, command subscriptions,
// and the periodic push and re-announcement loop.
type Bridge struct {
	cfg    *config.Config
	broker Broker
	source EntitySource
	tsync  TimeSource
	logger *logging.Logger

	publisher *Publisher
	discovery *Discovery
	commands  *Commands
	replies   *Replies

	// offsetNanos is the NTP-measured clock offset applied to payload
	// timestamps. Zero until the first successful sync.
	offsetNanos atomic.Int64

	// clock and sleep are swapped in tests.
	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	startedNanos atomic.Int64
	cycles       atomic.Uint64
	published    atomic.Uint64
	registered   atomic.Uint64
	restarts     atomic.Uint64
}

// NewBridge wires the bridge components together.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.Config == nil {
		return nil, errors.New("bridge: config is required")
	}
	if opts.Broker == nil {
		return nil, errors.New("bridge: broker is required")
	}
	if opts.Source == nil {
		return nil, errors.New("bridge: entity source is required")
	}
	if opts.Timesync == nil {
		return nil, errors.New("bridge: time source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	b := &Bridge{
		cfg:    opts.Config,
		broker: opts.Broker,
		source: opts.Source,
		tsync:  opts.Timesync,
		logger: logger.With("component", "bridge"),
		clock:  time.Now,
		sleep:  sleepUntil,
	}

	qos := byte(opts.Config.Broker.QoS)
	now := b.correctedClock()

	poller := NewPoller(opts.Source, logger)
	b.publisher = NewPublisher(opts.Broker, poller, qos, now, logger)
	b.discovery = NewDiscovery(opts.Broker, opts.Config.Gateway, qos, now, logger)
	b.commands = NewCommands(opts.Broker, opts.Source, opts.Config.SubDevices, qos, now, logger)
	b.replies = NewReplies(opts.Broker, opts.Config.Gateway, opts.Config.SubDevices, qos, logger)

	return b, nil
}

// correctedClock returns the Clock stamped onto outgoing payloads: the
// local clock plus the synced offset. Schedule arithmetic stays on the
// uncorrected clock so a sync mid-run cannot stretch or shrink an
// interval.
func (b *Bridge) correctedClock() Clock {
	return func() time.Time {
		return b.clock().Add(time.Duration(b.offsetNanos.Load()))
	}
}

// Run executes the bridge until ctx is cancelled. Each pass performs
// the startup sequence and then the steady loop; a lost broker session
// or a failed startup returns to the top for a fresh pass. The startup
// delay applies to the first pass only.
func (b *Bridge) Run(ctx context.Context) error {
	b.startedNanos.Store(b.clock().UnixNano())

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.startup(ctx, first); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			first = false
			b.logger.Error("startup failed, retrying", "error", err)
			if err := b.sleep(ctx, b.cfg.Bridge.GetRetryDelay()); err != nil {
				return err
			}
			continue
		}
		first = false

		if err := b.loop(ctx); err != nil {
			return err
		}

		b.restarts.Add(1)
		b.logger.Warn("broker session lost, restarting")
		if err := b.sleep(ctx, b.cfg.Bridge.GetRetryDelay()); err != nil {
			return err
		}
	}
}

// startup brings the bridge from cold to serving: optional initial
// delay, clock sync, entity readiness, broker connect, sub-device
// announcement, command subscriptions. Only a failed connect aborts
// the sequence; everything else degrades with a warning.
func (b *Bridge) startup(ctx context.Context, first bool) error {
	if first {
		delay := b.cfg.Bridge.GetStartupDelay()
		b.logger.Info("waiting before startup", "delay", delay.String())
		if err := b.sleep(ctx, delay); err != nil {
			return err
		}
	}

	b.syncClock(ctx)
	b.waitEntitiesReady(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.broker.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	registered := b.discovery.RegisterAll(b.cfg.SubDevices)
	b.registered.Add(uint64(registered))
	b.logger.Info("sub-devices announced", "count", registered)

	if err := b.commands.SubscribeAll(); err != nil {
		b.logger.Warn("command subscription incomplete", "error", err)
	}
	if err := b.replies.SubscribeAll(); err != nil {
		b.logger.Warn("acknowledgement subscription incomplete", "error", err)
	}

	return nil
}

// syncClock measures the clock offset and stores it for payload
// timestamps. Failure keeps the previous offset; on the first pass
// that is zero, i.e. the uncorrected local clock.
func (b *Bridge) syncClock(ctx context.Context) {
	offset, err := b.tsync.Offset(ctx)
	if err != nil {
		b.logger.Warn("clock sync failed, using local clock", "error", err)
		return
	}
	b.offsetNanos.Store(int64(offset))
	b.logger.Info("clock synced", "offset", offset.String())
}

// waitEntitiesReady blocks until the source API answers and at least
// one configured entity reports a usable state, or the configured
// timeout passes. Timing out is not fatal: the bridge proceeds and the
// per-cycle filtering drops whatever is still unavailable.
func (b *Bridge) waitEntitiesReady(ctx context.Context) {
	timeout := b.cfg.Bridge.GetEntityReadyTimeout()
	deadline := b.clock().Add(timeout)

	for {
		if b.entitiesReady(ctx) {
			b.logger.Info("entities ready")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !b.clock().Before(deadline) {
			b.logger.Warn("entities not ready, proceeding anyway", "waited", timeout.String())
			return
		}
		if err := b.sleep(ctx, readyProbeInterval); err != nil {
			return
		}
	}
}

// entitiesReady reports whether the source answers and any enabled
// sub-device has at least one readable entity.
func (b *Bridge) entitiesReady(ctx context.Context) bool {
	if err := b.source.Ready(ctx); err != nil {
		b.logger.Debug("source not ready", "error", err)
		return false
	}

	var ids []string
	for i := range b.cfg.SubDevices {
		sub := &b.cfg.SubDevices[i]
		if !sub.IsEnabled() {
			continue
		}
		for _, property := range sub.Properties {
			ids = append(ids, EntityID(sub.EntityPrefix, property))
		}
	}
	if len(ids) == 0 {
		return true
	}

	for _, state := range b.source.States(ctx, ids) {
		if state.Known() {
			return true
		}
	}
	b.logger.Debug("no entities readable yet", "probed", len(ids))
	return false
}

// loop runs the steady-state schedule until ctx is cancelled or the
// broker signals that its reconnect budget is exhausted. Both tasks
// first come due one full interval after entry; the initial
// announcement already happened during startup, and the platform's
// anti-flood policy penalizes early pushes.
func (b *Bridge) loop(ctx context.Context) error {
	sched := NewSchedule()
	now := b.clock()
	sched.Add(taskPush, b.cfg.Bridge.GetPushInterval(), now.Add(b.cfg.Bridge.GetPushInterval()))
	sched.Add(taskDiscovery, b.cfg.Bridge.GetDiscoveryInterval(), now.Add(b.cfg.Bridge.GetDiscoveryInterval()))

	for {
		for _, task := range sched.Due(b.clock()) {
			b.runTask(ctx, task)
			sched.Ran(task, b.clock())
		}

		timer := time.NewTimer(sched.NextWake(b.clock()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-b.broker.Down():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// runTask dispatches one scheduled task. A panic in a task is contained
// here so a single bad cycle cannot take the whole bridge down.
func (b *Bridge) runTask(ctx context.Context, task string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("task panicked", "task", task, "panic", fmt.Sprint(r))
		}
	}()

	switch task {
	case taskPush:
		published := b.publisher.PushAll(ctx, b.cfg.SubDevices)
		b.cycles.Add(1)
		b.published.Add(uint64(published))
		b.logger.Info("push cycle complete", "published", published)
	case taskDiscovery:
		registered := b.discovery.RegisterAll(b.cfg.SubDevices)
		b.registered.Add(uint64(registered))
		b.logger.Info("re-announcement complete", "count", registered)
	}
}

// Stats is a point-in-time snapshot of bridge counters, exposed by the
// operational API.
type Stats struct {
	UptimeSeconds     int64             `json:"uptime_seconds"`
	ClockOffsetMS     int64             `json:"clock_offset_ms"`
	PushCycles        uint64            `json:"push_cycles"`
	PropertyPosts     uint64            `json:"property_posts"`
	PropertiesDropped uint64            `json:"properties_dropped"`
	Announcements     uint64            `json:"announcements"`
	CommandsHandled   uint64            `json:"commands_handled"`
	RepliesRejected   uint64            `json:"replies_rejected"`
	Restarts          uint64            `json:"restarts"`
	LastPublish       map[string]string `json:"last_publish,omitempty"`
}

// Stats returns the current counters. Safe from any goroutine.
func (b *Bridge) Stats() Stats {
	var uptime int64
	if started := b.startedNanos.Load(); started > 0 {
		uptime = int64(b.clock().Sub(time.Unix(0, started)) / time.Second)
	}

	var lastPublish map[string]string
	if posts := b.publisher.LastPublished(); len(posts) > 0 {
		lastPublish = make(map[string]string, len(posts))
		for id, ts := range posts {
			lastPublish[id] = ts.UTC().Format(time.RFC3339)
		}
	}

	return Stats{
		UptimeSeconds:     uptime,
		ClockOffsetMS:     time.Duration(b.offsetNanos.Load()).Milliseconds(),
		PushCycles:        b.cycles.Load(),
		PropertyPosts:     b.published.Load(),
		PropertiesDropped: b.publisher.Dropped(),
		Announcements:     b.registered.Load(),
		CommandsHandled:   b.commands.Handled(),
		RepliesRejected:   b.replies.Rejected(),
		Restarts:          b.restarts.Load(),
		LastPublish:       lastPublish,
	}
}

// sleepUntil waits for d or until ctx is cancelled, whichever is first.
func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
