package registry

import "errors"

// ErrLockTimeout is returned by Modify when the registry mutex could not be
// acquired within the retry budget (§7 "LockTimeout").
var ErrLockTimeout = errors.New("registry: lock acquisition timed out")
