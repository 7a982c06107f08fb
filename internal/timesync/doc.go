// Package timesync measures local clock offset against an NTP server.
//
// The vendor platform rejects property posts whose timestamps drift too
// far from real time, and embedded hosts running this bridge frequently
// boot with a stale clock. At startup the orchestrator queries NTP once
// and applies the measured offset to every outgoing payload timestamp.
// The system clock itself is never stepped; only bridge-generated
// timestamps are corrected.
//
// A failed query is not fatal. The bridge logs the failure and proceeds
// on the local clock, since a degraded timestamp is preferable to a
// fully blocked bridge.
package timesync
