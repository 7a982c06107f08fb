package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/halink/internal/infrastructure/config"
	"github.com/nerrad567/halink/internal/infrastructure/logging"
)

// EntityState is one entity's state as reported by Home Assistant,
// captured at fetch time.
type EntityState struct {
	Value     string
	FetchedAt time.Time
}

// Known reports whether the state carries usable data. Home Assistant
// reports "unknown" for entities that have not produced a value yet and
// "unavailable" for entities whose integration is offline; both count
// as missing for bridge purposes.
func (s EntityState) Known() bool {
	switch s.Value {
	case "", "unknown", "unavailable":
		return false
	}
	return true
}

// Client accesses the Home Assistant REST API using a long-lived access
// token. All requests carry the configured fetch timeout.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a Home Assistant API client from config.
func NewClient(cfg config.HomeAssistantConfig, logger *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.GetFetchTimeout()},
		logger:  logger.With("component", "hass"),
	}
}

// Ready probes the API root. Home Assistant answers 200 on /api/ once
// its core has started, even while entity platforms are still loading.
func (c *Client) Ready(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}
}

// States fetches the current state of every listed entity with a single
// bulk request and returns them keyed by entity id. Entities absent from
// the response are left out of the result; a failed fetch yields an
// empty map. Either way a missing key means "no data this cycle", never
// an error.
func (c *Client) States(ctx context.Context, ids []string) map[string]EntityState {
	states := make(map[string]EntityState, len(ids))
	if len(ids) == 0 {
		return states
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		c.logger.Warn("bulk state fetch failed", "error", err)
		return states
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("bulk state fetch failed", "error", err)
		return states
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("bulk state fetch failed", "status", resp.StatusCode)
		return states
	}

	var docs []struct {
		EntityID string `json:"entity_id"`
		State    string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		c.logger.Warn("decoding bulk states failed", "error", err)
		return states
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	now := time.Now()
	for _, doc := range docs {
		if _, ok := wanted[doc.EntityID]; ok {
			states[doc.EntityID] = EntityState{Value: doc.State, FetchedAt: now}
		}
	}
	return states
}

// State fetches a single entity's current state.
func (c *Client) State(ctx context.Context, entityID string) (EntityState, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return EntityState{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return EntityState{}, fmt.Errorf("hass: fetch %s: %w", entityID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return EntityState{}, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	case http.StatusUnauthorized, http.StatusForbidden:
		return EntityState{}, ErrUnauthorized
	default:
		return EntityState{}, fmt.Errorf("hass: fetch %s: status %d", entityID, resp.StatusCode)
	}

	var doc struct {
		EntityID string `json:"entity_id"`
		State    string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return EntityState{}, fmt.Errorf("hass: decode %s: %w", entityID, err)
	}

	return EntityState{Value: doc.State, FetchedAt: time.Now()}, nil
}

// CallService invokes a Home Assistant service against a single entity,
// e.g. CallService(ctx, "switch", "turn_on", "switch.living_room").
func (c *Client) CallService(ctx context.Context, domain, service, entityID string) error {
	body, err := json.Marshal(map[string]string{"entity_id": entityID})
	if err != nil {
		return fmt.Errorf("hass: encode service call: %w", err)
	}

	path := fmt.Sprintf("/api/services/%s/%s", domain, service)
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s on %s: status %d", ErrServiceCallFailed, path, entityID, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("hass: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
