// Package mqtt owns the single broker session shared by every part of
// the bridge. The gateway authenticates once with its own identity and
// all sub-device traffic is multiplexed over that one connection.
//
// # Connection Lifecycle
//
// The client moves through four states:
//
//	disconnected → connecting → connected → reconnecting
//
// Connect attempts authentication up to the configured attempt budget
// with a fixed delay between attempts, then gives up and returns
// ErrConnectionFailed. An unexpected disconnect re-runs the same
// bounded sequence in the background; when that is exhausted too, the
// client parks in disconnected and signals Down so the orchestrator
// can restart the startup sequence.
//
// Reconnection is owned by this package, not by the paho library:
// paho's built-in retry loop is unbounded and invisible to callers,
// while the platform expects a gateway that gives up after a known
// budget and re-registers its sub-devices on the next session.
//
// # Publish Semantics
//
// Publishes are accepted only while connected. In any other state the
// payload is dropped with a logged warning, never queued: the bridge
// favours freshness over completeness, and a missed cycle is
// superseded by the next one. Concurrent publish calls are serialized
// so interleaved writes cannot corrupt the single session.
//
// # Usage
//
//	creds := alink.MQTTCredentials(pk, dn, secret, cfg.Broker.UseSSL)
//	client := mqtt.New(cfg.Broker, creds, policy, logger)
//	if err := client.Connect(ctx); err != nil {
//	    // broker unreachable after all attempts
//	}
//	defer client.Close()
package mqtt
