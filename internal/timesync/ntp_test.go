package timesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

func newTestSyncer(t *testing.T) *Syncer {
	t.Helper()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	return New(config.BridgeConfig{NTPServer: "ntp.test.invalid", NTPTimeout: 1}, log)
}

func TestSyncer_Offset(t *testing.T) {
	s := newTestSyncer(t)

	var gotServer string
	s.query = func(server string, timeout time.Duration) (time.Duration, error) {
		gotServer = server
		return 1500 * time.Millisecond, nil
	}

	offset, err := s.Offset(context.Background())
	if err != nil {
		t.Fatalf("Offset() error = %v", err)
	}
	if offset != 1500*time.Millisecond {
		t.Errorf("offset = %v, want 1.5s", offset)
	}
	if gotServer != "ntp.test.invalid" {
		t.Errorf("server = %q, want configured server", gotServer)
	}
}

func TestSyncer_Offset_QueryFailure(t *testing.T) {
	s := newTestSyncer(t)
	s.query = func(server string, timeout time.Duration) (time.Duration, error) {
		return 0, errors.New("i/o timeout")
	}

	_, err := s.Offset(context.Background())
	if !errors.Is(err, ErrSyncFailed) {
		t.Errorf("error = %v, want ErrSyncFailed", err)
	}
}

func TestSyncer_Offset_ContextCancelled(t *testing.T) {
	s := newTestSyncer(t)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	s.query = func(server string, timeout time.Duration) (time.Duration, error) {
		<-release
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Offset(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
