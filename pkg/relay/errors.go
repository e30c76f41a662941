package relay

import "errors"

// ErrStaleMessage marks a message that was already applied, echoed back to its sender,
// or belongs to an earlier round. Such messages are dropped.
var ErrStaleMessage = errors.New("stale message")
