package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/DNGriffin/clankercontext/internal/fabric/registry"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

func noopSend(ctx context.Context, content string) error { return nil }

func TestStartRegistersAndServesHealth(t *testing.T) {
	dir := t.TempDir()
	inst, err := Start(context.Background(), Config{
		Name:          "proj",
		WorkspacePath: "/ws",
		PreferredPort: defaults.PortRangeBase + 40,
		RegistryDir:   dir,
		Send:          noopSend,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = inst.Stop(context.Background()) })

	url := fmt.Sprintf("http://127.0.0.1:%d/health", inst.Identity().Port)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()

	var body types.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.InstanceID != inst.Identity().ID {
		t.Fatalf("health instanceId = %q, want %q", body.InstanceID, inst.Identity().ID)
	}
}

func TestStopUnregistersInstance(t *testing.T) {
	dir := t.TempDir()
	inst, err := Start(context.Background(), Config{
		Name:          "proj",
		WorkspacePath: "/ws",
		PreferredPort: defaults.PortRangeBase + 41,
		RegistryDir:   dir,
		Send:          noopSend,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := inst.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	store, err := registry.New(dir)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	records, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	for _, r := range records {
		if r.ID == inst.Identity().ID {
			t.Fatalf("registry still contains %q after Stop()", r.ID)
		}
	}
}

func TestPauseReturns503AndResumeRecovers(t *testing.T) {
	dir := t.TempDir()
	called := false
	inst, err := Start(context.Background(), Config{
		Name:          "proj",
		WorkspacePath: "/ws",
		PreferredPort: defaults.PortRangeBase + 42,
		RegistryDir:   dir,
		Send: func(ctx context.Context, content string) error {
			called = true
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = inst.Stop(context.Background()) })

	inst.Pause()
	url := fmt.Sprintf("http://127.0.0.1:%d/instance/%s/send", inst.Identity().Port, inst.Identity().ID)
	resp, err := http.Post(url, "application/json", strings.NewReader(`{"content":"hi"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("paused send status = %d, want 503", resp.StatusCode)
	}
	if called {
		t.Fatal("downstream callback invoked while paused")
	}

	inst.Resume()
	resp, err = http.Post(url, "application/json", strings.NewReader(`{"content":"hi"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resumed send status = %d, want 200", resp.StatusCode)
	}
	if !called {
		t.Fatal("downstream callback not invoked after resume")
	}
}

func TestTwoInstancesRouteIndependently(t *testing.T) {
	dir := t.TempDir()
	a, err := Start(context.Background(), Config{Name: "a", WorkspacePath: "/a", PreferredPort: defaults.PortRangeBase + 43, RegistryDir: dir, Send: noopSend})
	if err != nil {
		t.Fatalf("Start(a) error = %v", err)
	}
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	b, err := Start(context.Background(), Config{Name: "b", WorkspacePath: "/b", PreferredPort: a.Identity().Port, RegistryDir: dir, Send: noopSend})
	if err != nil {
		t.Fatalf("Start(b) error = %v", err)
	}
	t.Cleanup(func() { _ = b.Stop(context.Background()) })

	if a.Identity().Port == b.Identity().Port {
		t.Fatalf("both instances bound same port %d", a.Identity().Port)
	}

	urlB := fmt.Sprintf("http://127.0.0.1:%d/instance/%s/send", a.Identity().Port, b.Identity().ID)
	resp, err := http.Post(urlB, "application/json", strings.NewReader(`{"content":"hi"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-instance send status = %d, want 404", resp.StatusCode)
	}
}
