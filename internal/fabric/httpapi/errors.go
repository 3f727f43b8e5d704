package httpapi

import "errors"

// ErrDownstreamUnavailable is the sentinel a SendFunc returns when the
// delivery target (the editor's chat surface) is not currently reachable —
// distinct from an arbitrary failure, because it maps to 503 rather than
// 500 (§7 "DownstreamUnavailable" vs "DownstreamFailed").
var ErrDownstreamUnavailable = errors.New("httpapi: downstream delivery target unavailable")
