package timesync

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// Syncer performs one-shot SNTP queries against a configured server.
type Syncer struct {
	server  string
	timeout time.Duration
	logger  *logging.Logger

	// query is swapped out in tests to avoid real network exchanges.
	query func(server string, timeout time.Duration) (time.Duration, error)
}

// New creates a Syncer from bridge config.
func New(cfg config.BridgeConfig, logger *logging.Logger) *Syncer {
	return &Syncer{
		server:  cfg.NTPServer,
		timeout: cfg.GetNTPTimeout(),
		logger:  logger.With("component", "timesync"),
		query:   queryNTP,
	}
}

// Offset measures the local clock offset against the NTP server.
// A positive offset means the local clock is behind real time.
//
// The exchange is bounded by the configured timeout; ctx cancellation
// abandons the wait early.
func (s *Syncer) Offset(ctx context.Context) (time.Duration, error) {
	type result struct {
		offset time.Duration
		err    error
	}

	ch := make(chan result, 1)
	go func() {
		offset, err := s.query(s.server, s.timeout)
		ch <- result{offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("timesync: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrSyncFailed, s.server, res.err)
		}
		s.logger.Debug("clock offset measured", "server", s.server, "offset", res.offset.String())
		return res.offset, nil
	}
}

// queryNTP performs a single SNTP exchange and validates the response.
func queryNTP(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
