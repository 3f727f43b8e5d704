package main

import (
	"testing"

	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

func TestSelectInstanceByID(t *testing.T) {
	instances := []types.InstanceRecord{
		{ID: "a", Port: 1},
		{ID: "b", Port: 2},
	}
	got, ok := selectInstance(instances, "b")
	if !ok || got.Port != 2 {
		t.Fatalf("got %+v, ok=%v, want port 2", got, ok)
	}
}

func TestSelectInstanceUnknownIDNotFound(t *testing.T) {
	instances := []types.InstanceRecord{{ID: "a"}}
	if _, ok := selectInstance(instances, "missing"); ok {
		t.Fatal("expected not found")
	}
}

func TestSelectInstanceNoIDWithSoleInstance(t *testing.T) {
	instances := []types.InstanceRecord{{ID: "only", Port: 9}}
	got, ok := selectInstance(instances, "")
	if !ok || got.ID != "only" {
		t.Fatalf("got %+v, ok=%v, want the sole instance", got, ok)
	}
}

func TestSelectInstanceNoIDWithMultipleInstancesAmbiguous(t *testing.T) {
	instances := []types.InstanceRecord{{ID: "a"}, {ID: "b"}}
	if _, ok := selectInstance(instances, ""); ok {
		t.Fatal("expected ambiguous selection to fail")
	}
}
