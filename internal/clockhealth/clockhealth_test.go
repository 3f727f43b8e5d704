package clockhealth

import (
	"context"
	"testing"
	"time"

	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
)

func TestRunInvokesCheckFuncImmediately(t *testing.T) {
	c := New(clock.NewFake(time.Unix(0, 0)))
	calls := 0
	c.CheckFunc = func() Status {
		calls++
		return Status{Offset: 10 * time.Millisecond, Healthy: true}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if calls == 0 {
		t.Fatal("CheckFunc never invoked")
	}
	if !c.Status().Healthy {
		t.Fatalf("Status() = %+v, want healthy", c.Status())
	}
}

func TestHTTPFieldConvertsOffsetToMilliseconds(t *testing.T) {
	c := New(clock.NewFake(time.Unix(0, 0)))
	c.CheckFunc = func() Status { return Status{Offset: 250 * time.Millisecond, Healthy: true} }
	c.check()

	field := c.HTTPField()
	if field.OffsetMs != 250 {
		t.Fatalf("OffsetMs = %v, want 250", field.OffsetMs)
	}
	if !field.Healthy {
		t.Fatal("Healthy = false, want true")
	}
}

func TestHTTPFieldSurfacesError(t *testing.T) {
	c := New(clock.NewFake(time.Unix(0, 0)))
	c.CheckFunc = func() Status { return Status{Error: "no route to pool.ntp.org", Healthy: false} }
	c.check()

	field := c.HTTPField()
	if field.Healthy {
		t.Fatal("Healthy = true, want false")
	}
	if field.Error == "" {
		t.Fatal("Error = empty, want message")
	}
}
