package httpapi

import "strings"

// allowedOriginSchemes are the browser-extension URL schemes permitted to
// call this surface cross-origin (§4.E). Origin "null" and an absent
// Origin header are always permitted too — extension service workers and
// curl-class clients routinely omit the header, and the loopback binding
// plus per-instance id check on send is what actually guards this server,
// not the Origin check (§9 "Always allow empty Origin").
var allowedOriginSchemes = []string{
	"chrome-extension://",
	"moz-extension://",
}

// originAllowed reports whether origin may receive a CORS-enabled response.
func originAllowed(origin string) bool {
	if origin == "" || origin == "null" {
		return true
	}
	for _, scheme := range allowedOriginSchemes {
		if strings.HasPrefix(origin, scheme) {
			return true
		}
	}
	return false
}
