package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// withCORS wraps h with the origin policy of §4.E: permitted origins get
// an echoed Access-Control-Allow-Origin plus method/header allowances and
// handle OPTIONS preflight with 204; forbidden origins get a plain 403
// with no CORS headers at all, including on OPTIONS.
func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !originAllowed(origin) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden: invalid origin"})
			return
		}
		if origin != "" && origin != "null" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{
		Healthy:             true,
		Version:             Version,
		CapabilityAvailable: !s.paused.Load(),
		WorkspaceName:       s.identity.Name,
		WorkspacePath:       s.identity.WorkspacePath,
		InstanceID:          s.identity.ID,
		Port:                s.identity.Port,
		PID:                 s.identity.PID,
		UptimeSeconds:       s.uptime(),
	}
	if s.clockHealth != nil {
		resp.ClockHealth = s.clockHealth()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "registry.snapshot")
	defer span.End()

	records, err := s.registry.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.InstancesResponse{Instances: records})
}

// handleSend serves POST /instance/{id}/send. It is registered under the
// "/instance/" prefix because the id segment is caller-controlled.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	id, ok := parseSendPath(r.URL.Path)
	if !ok {
		writeJSON(w, http.StatusNotFound, types.SendResponse{Success: false, Error: "Instance not found on this server"})
		return
	}
	if id != s.identity.ID {
		writeJSON(w, http.StatusNotFound, types.SendResponse{Success: false, Error: "Instance not found on this server"})
		return
	}

	var req types.SendRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, types.SendResponse{Success: false, Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, types.SendResponse{Success: false, Error: "Missing or invalid content"})
		return
	}
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, types.SendResponse{Success: false, Error: "Missing or invalid content"})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "fabric.send")
	defer span.End()

	if s.paused.Load() {
		writeJSON(w, http.StatusServiceUnavailable, types.SendResponse{Success: false, Error: ErrDownstreamUnavailable.Error()})
		return
	}

	if err := s.send(ctx, req.Content); err != nil {
		if errors.Is(err, ErrDownstreamUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, types.SendResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, types.SendResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, types.SendResponse{Success: true})
}

// parseSendPath extracts {id} from "/instance/{id}/send".
func parseSendPath(path string) (id string, ok bool) {
	const prefix = "/instance/"
	const suffix = "/send"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id = strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
