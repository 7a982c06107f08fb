package hass

import "errors"

// Domain-specific errors for Home Assistant API access.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotReady is returned when the API root does not answer 200,
	// typically because Home Assistant is still starting up.
	ErrNotReady = errors.New("hass: api not ready")

	// ErrUnauthorized is returned when the long-lived access token is
	// rejected by Home Assistant.
	ErrUnauthorized = errors.New("hass: unauthorized")

	// ErrEntityNotFound is returned when an entity id does not exist.
	ErrEntityNotFound = errors.New("hass: entity not found")

	// ErrServiceCallFailed is returned when a service invocation does
	// not complete successfully.
	ErrServiceCallFailed = errors.New("hass: service call failed")
)
