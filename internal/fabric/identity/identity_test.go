package identity

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestNewGeneratesUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New("proj", "/workspace")
		if seen[id.ID] {
			t.Fatalf("duplicate id %q generated on iteration %d", id.ID, i)
		}
		seen[id.ID] = true
	}
}

func TestNewIDEncodesPID(t *testing.T) {
	id := New("proj", "/workspace")
	want := strconv.FormatInt(int64(os.Getpid()), 16)
	if !strings.HasPrefix(id.ID, want+"-") {
		t.Fatalf("id = %q, want prefix %q-", id.ID, want)
	}
}

func TestWithPortCompletesIdentityWithoutMutatingOriginal(t *testing.T) {
	id := New("proj", "/workspace")
	if id.Port != 0 {
		t.Fatalf("Port = %d before WithPort, want 0", id.Port)
	}

	bound := id.WithPort(41970)
	if bound.Port != 41970 {
		t.Fatalf("bound.Port = %d, want 41970", bound.Port)
	}
	if id.Port != 0 {
		t.Fatalf("original Port mutated to %d, want 0 (WithPort must not mutate receiver)", id.Port)
	}
}

func TestRecordStampsHeartbeatAndFields(t *testing.T) {
	id := New("proj", "/workspace").WithPort(41970)
	rec := id.Record(12345)

	if rec.ID != id.ID || rec.Name != id.Name || rec.WorkspacePath != id.WorkspacePath {
		t.Fatalf("Record() = %+v, identity fields don't match %+v", rec, id)
	}
	if rec.Port != 41970 {
		t.Fatalf("Record().Port = %d, want 41970", rec.Port)
	}
	if rec.PID != id.PID {
		t.Fatalf("Record().PID = %d, want %d", rec.PID, id.PID)
	}
	if rec.LastHeartbeat != 12345 {
		t.Fatalf("Record().LastHeartbeat = %d, want 12345", rec.LastHeartbeat)
	}
}
