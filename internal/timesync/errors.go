package timesync

import "errors"

// ErrSyncFailed is returned when the NTP exchange fails or the server's
// response does not validate. Callers are expected to log it and carry
// on with the local clock.
var ErrSyncFailed = errors.New("timesync: clock sync failed")
