package acs

import "errors"

// ErrUnavailable wraps any transport-level failure talking to the
// counter store (dial, timeout, connection reset). Callers in
// internal/engine translate it into the unavailable error category.
var ErrUnavailable = errors.New("acs: store unavailable")

// ErrInternal wraps a script-reported invariant violation, such as a
// counter overflow that aborted a script before it could mutate state.
var ErrInternal = errors.New("acs: internal invariant violation")
