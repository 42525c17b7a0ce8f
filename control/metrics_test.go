package control_test

import (
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-mem/control"
	"github.com/momentics/hioload-mem/pool"
	"github.com/momentics/hioload-mem/reclaim"
)

type nopSource struct{ blocks atomic.Int64 }

func (s *nopSource) AllocBlock(words int) []uintptr {
	s.blocks.Add(1)
	return make([]uintptr, words)
}

func (s *nopSource) FreeBlock(block []uintptr) { s.blocks.Add(-1) }

func TestRegistrySnapshotEvaluatesProbes(t *testing.T) {
	r := control.NewRegistry()
	calls := 0
	r.RegisterProbe("x", func() any { calls++; return calls })

	if got := r.Snapshot()["x"]; got != 1 {
		t.Fatalf("first snapshot x = %v, want 1", got)
	}
	if got := r.Snapshot()["x"]; got != 2 {
		t.Fatalf("second snapshot x = %v, want 2", got)
	}
}

func TestRegisterProbeReplaces(t *testing.T) {
	r := control.NewRegistry()
	r.RegisterProbe("x", func() any { return "old" })
	r.RegisterProbe("x", func() any { return "new" })

	snap := r.Snapshot()
	if len(snap) != 1 || snap["x"] != "new" {
		t.Fatalf("snapshot = %v, want map[x:new]", snap)
	}
}

func TestPoolAndTaskProbes(t *testing.T) {
	src := &nopSource{}
	fp := pool.NewFreePool(pool.FreePoolConfig{
		Source: src,
		Categories: []pool.CategoryConfig{
			{Name: "cards", BufferCapacity: 8},
		},
	})
	defer fp.Close()
	task := reclaim.NewFreeMemoryTask("free-memory", fp, nil, reclaim.Config{})

	r := control.NewRegistry()
	control.RegisterPoolProbes(r, "pool", fp)
	control.RegisterTaskProbes(r, "reclaim", task)

	a := fp.Allocator(0)
	for i := 0; i < 3; i++ {
		a.Release(a.Allocate())
	}
	a.TryTransferPending()

	snap := r.Snapshot()
	if got := snap["pool.cards.free_count"]; got != uint64(3) {
		t.Fatalf("free_count probe = %v, want 3", got)
	}
	if got := snap["pool.cards.minted"]; got != uint64(3) {
		t.Fatalf("minted probe = %v, want 3", got)
	}
	if got := snap["pool.cards.reserve_segments"]; got != uint64(0) {
		t.Fatalf("reserve_segments probe = %v, want 0", got)
	}
	if got := snap["reclaim.state"]; got != "Inactive" {
		t.Fatalf("state probe = %v, want Inactive", got)
	}
	if got := snap["reclaim.active"]; got != false {
		t.Fatalf("active probe = %v, want false", got)
	}
}
