package store

import "errors"

// ErrNotFound is returned by Get when no value exists for (nestId, dataType, key).
var ErrNotFound = errors.New("store: not found")

// ErrStoreUnavailable wraps transient backend failures. Callers decide
// whether to retry; the probe engine treats it as best-effort for
// probe-result writes but surfaces it for configuration writes.
var ErrStoreUnavailable = errors.New("store: unavailable")
