package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/halink/internal/bridge"
	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
	"github.com/nerrad567/halink/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Listener timeouts, sized for two small GET routes polled by local
// monitoring.
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// StatsProvider supplies bridge counters for the metrics endpoint.
// Satisfied by *bridge.Bridge.
type StatsProvider interface {
	Stats() bridge.Stats
}

// BrokerStatus exposes the broker session's observable state.
// Satisfied by *mqtt.Client.
type BrokerStatus interface {
	State() mqtt.ConnState
	Dropped() uint64
	SubscriptionCount() int
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Bridge  StatsProvider
	Broker  BrokerStatus
	Version string
}

// Server is the operational HTTP endpoint.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	bridge    StatsProvider
	broker    BrokerStatus
	version   string
	startTime time.Time
	server    *http.Server
}

// New creates the server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, bridge, broker)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Bridge == nil {
		return nil, errors.New("api: bridge is required")
	}
	if deps.Broker == nil {
		return nil, errors.New("api: broker is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger.With("component", "api"),
		bridge:  deps.Bridge,
		broker:  deps.Broker,
		version: deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. The
// server can be stopped with Close().
func (s *Server) Start() error {
	s.startTime = time.Now()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}
