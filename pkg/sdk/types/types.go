// Package types holds the wire-shape Go structs shared between the fabric's
// HTTP surface, its discovery client, and any external importer that wants
// the SDK without depending on internal packages.
package types

// InstanceRecord is one entry in the shared registry, and the shape of an
// element in the /instances response.
type InstanceRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WorkspacePath string `json:"workspacePath"`
	Port          int    `json:"port"`
	PID           int    `json:"pid"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
}

// InstancesResponse is the body of GET /instances.
type InstancesResponse struct {
	Instances []InstanceRecord `json:"instances"`
}

// ClockHealth reports the local wall clock's offset from an NTP reference,
// surfaced through /health because a skewed clock silently breaks the
// stale-threshold invariant without any fabric component misbehaving.
type ClockHealth struct {
	OffsetMs float64 `json:"offsetMs"`
	Healthy  bool    `json:"healthy"`
	Error    string  `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Healthy             bool         `json:"healthy"`
	Version             string       `json:"version"`
	CapabilityAvailable bool         `json:"capabilityAvailable"`
	WorkspaceName       string       `json:"workspaceName"`
	WorkspacePath       string       `json:"workspacePath"`
	InstanceID          string       `json:"instanceId"`
	Port                int          `json:"port"`
	PID                 int          `json:"pid"`
	UptimeSeconds       float64      `json:"uptime"`
	ClockHealth         *ClockHealth `json:"clockHealth,omitempty"`
}

// SendRequest is the body of POST /instance/{id}/send.
type SendRequest struct {
	Content string `json:"content"`
}

// SendResponse is the body of a successful or failed send.
type SendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Status is the embedding surface's summary of a running fabric instance
// (§6 "CLI / embedding surface" — the `status()` control point).
type Status struct {
	Listening     bool    `json:"listening"`
	Port          int     `json:"port"`
	PID           int     `json:"pid"`
	InstanceID    string  `json:"instanceId"`
	UptimeSeconds float64 `json:"uptime"`
}
