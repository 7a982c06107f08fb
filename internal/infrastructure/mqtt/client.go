package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// ConnState is the connection manager's lifecycle state.
type ConnState string

// Connection states. Disconnected is initial and also the terminal
// state after a reconnect sequence exhausts its attempts.
const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
)

// RetryPolicy bounds a connection sequence: Attempts tries spaced
// Delay apart. The same policy applies to the initial connect and to
// every background reconnect.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Client manages the gateway's MQTT session against the platform broker.
//
// Thread safety: all methods are safe for concurrent use. Publish
// calls are serialized internally so multiple workers can share the
// session without interleaving writes.
type Client struct {
	cfg    config.BrokerConfig
	creds  alink.Credentials
	policy RetryPolicy
	logger *logging.Logger

	options *pahomqtt.ClientOptions
	client  pahomqtt.Client

	// newClient builds the underlying paho client, swapped in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	// sleep waits between connection attempts, swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error

	state   ConnState
	stateMu sync.RWMutex

	// sendMu serializes writes on the single broker session.
	sendMu sync.Mutex

	// subscriptions tracks active subscriptions for restoration after
	// a reconnect (sessions are clean, the broker forgets them).
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// reconnecting guards against overlapping reconnect sequences.
	reconnecting atomic.Bool

	// dropped counts publishes rejected while not connected.
	dropped atomic.Uint64

	// down receives a signal each time a background reconnect sequence
	// exhausts its attempts.
	down chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// subscription holds subscription details for restoration on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler func(topic string, payload []byte)
}

// New creates a client for the gateway identity. Call Connect to
// establish the session.
func New(cfg config.BrokerConfig, creds alink.Credentials, policy RetryPolicy, logger *logging.Logger) *Client {
	c := &Client{
		cfg:           cfg,
		creds:         creds,
		policy:        policy,
		logger:        logger.With("component", "mqtt"),
		newClient:     pahomqtt.NewClient,
		sleep:         sleepContext,
		state:         StateDisconnected,
		subscriptions: make(map[string]subscription),
		down:          make(chan struct{}, 1),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	opts := buildClientOptions(cfg, creds)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})
	c.options = opts

	return c
}

// Connect establishes the broker session, retrying up to the policy's
// attempt budget with a fixed delay between attempts. After exhausting
// the budget it returns ErrConnectionFailed and the client is back in
// the disconnected state; no further attempts happen within this call.
func (c *Client) Connect(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state != StateDisconnected {
		current := c.state
		c.stateMu.Unlock()
		return fmt.Errorf("%w: state %s", ErrAlreadyConnected, current)
	}
	c.state = StateConnecting
	if c.client == nil {
		c.client = c.newClient(c.options)
	}
	c.stateMu.Unlock()

	if err := c.connectWithRetry(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	c.logger.Info("broker connected",
		"host", c.cfg.Host,
		"client_id", c.creds.ClientID,
		"tls", c.cfg.UseSSL,
	)
	return nil
}

// connectWithRetry runs one bounded connection sequence.
func (c *Client) connectWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		err := c.connectOnce()
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Warn("broker connection attempt failed",
			"attempt", attempt,
			"max_attempts", c.policy.Attempts,
			"error", err,
		)

		if attempt < c.policy.Attempts {
			if err := c.sleep(ctx, c.policy.Delay); err != nil {
				return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			}
		}
	}
	return fmt.Errorf("%w: %d attempts exhausted: %w", ErrConnectionFailed, c.policy.Attempts, lastErr)
}

// connectOnce performs a single connection attempt.
func (c *Client) connectOnce() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// handleConnectionLost reacts to an unexpected disconnect by running
// the bounded retry sequence in the background. Publishes issued while
// the sequence runs are dropped by the state gate in Publish.
func (c *Client) handleConnectionLost(cause error) {
	if c.ctx.Err() != nil {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	c.setState(StateReconnecting)
	c.logger.Warn("broker connection lost", "error", cause)

	go func() {
		defer c.reconnecting.Store(false)

		if err := c.connectWithRetry(c.ctx); err != nil {
			c.setState(StateDisconnected)
			c.logger.Error("reconnect attempts exhausted", "error", err)
			c.signalDown()
			return
		}

		// Restore subscriptions before reporting connected so a caller
		// observing the connected state can rely on them.
		c.restoreSubscriptions()
		c.setState(StateConnected)
		c.logger.Info("broker reconnected", "host", c.cfg.Host)
	}()
}

// Close gracefully shuts the session down. Any in-flight reconnect
// sequence is cancelled within one retry delay. Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.stateMu.Lock()
		client := c.client
		c.stateMu.Unlock()

		if client != nil && client.IsConnected() {
			client.Disconnect(disconnectQuiesce)
		}

		c.setState(StateDisconnected)
		c.logger.Info("broker connection closed")
	})
	return nil
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the session is established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Down returns a channel that receives a signal each time a background
// reconnect sequence exhausts its attempts. The orchestrator listens
// on it to restart the startup sequence.
func (c *Client) Down() <-chan struct{} {
	return c.down
}

// Dropped returns the number of publishes rejected while not connected.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Client) setState(s ConnState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func (c *Client) signalDown() {
	select {
	case c.down <- struct{}{}:
	default:
	}
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
