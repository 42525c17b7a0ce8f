//go:build linux

package pool_test

import (
	"testing"

	"github.com/momentics/hioload-mem/pool"
)

func TestMmapSourceRoundTrip(t *testing.T) {
	src := pool.NewMmapSource()

	block := src.AllocBlock(512)
	if len(block) != 512 {
		t.Fatalf("block length = %d, want 512", len(block))
	}
	for i, v := range block {
		if v != 0 {
			t.Fatalf("slot %d not zeroed: %d", i, v)
		}
	}
	block[0] = 0xdead
	if src.Mapped() != 1 {
		t.Fatalf("Mapped = %d, want 1", src.Mapped())
	}

	src.FreeBlock(block)
	if src.Mapped() != 0 {
		t.Fatalf("Mapped after free = %d, want 0", src.Mapped())
	}
}

func TestMmapSourceBacksAllocator(t *testing.T) {
	src := pool.NewMmapSource()
	a := pool.NewAllocator(pool.AllocatorConfig{
		Name:           "mmap",
		BufferCapacity: 256,
		Source:         src,
	})

	nodes := make([]*pool.BufferNode, 12)
	for i := range nodes {
		nodes[i] = a.Allocate()
	}
	if src.Mapped() != 12 {
		t.Fatalf("Mapped = %d, want 12", src.Mapped())
	}
	for _, n := range nodes {
		a.Release(n)
	}
	a.TryTransferPending()
	a.ReduceFreeList(12)
	if src.Mapped() != 0 {
		t.Fatalf("Mapped after reduce = %d, want 0", src.Mapped())
	}
}

func TestFreeUnknownBlockPanics(t *testing.T) {
	src := pool.NewMmapSource()
	defer func() {
		if recover() == nil {
			t.Fatal("FreeBlock of unknown block did not panic")
		}
	}()
	src.FreeBlock(make([]uintptr, 8))
}
