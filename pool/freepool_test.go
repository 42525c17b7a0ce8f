package pool_test

import (
	"math/bits"
	"testing"
	"time"

	"github.com/momentics/hioload-mem/pool"
)

const testWordBytes = bits.UintSize / 8

func newTestPool(src *countSource) *pool.FreePool {
	return pool.NewFreePool(pool.FreePoolConfig{
		Source: src,
		Categories: []pool.CategoryConfig{
			{Name: "small", BufferCapacity: 8},
			{Name: "large", BufferCapacity: 64},
		},
	})
}

// fillFreeList allocates and releases n nodes in category i so they land on
// the free list.
func fillFreeList(fp *pool.FreePool, i, n int) {
	a := fp.Allocator(i)
	nodes := make([]*pool.BufferNode, n)
	for j := range nodes {
		nodes[j] = a.Allocate()
	}
	for _, node := range nodes {
		a.Release(node)
	}
	a.TryTransferPending()
	a.TryTransferPending()
}

func TestFreeListSizesCoversBothTiers(t *testing.T) {
	src := &countSource{}
	fp := newTestPool(src)

	fillFreeList(fp, 0, 5)
	stats := fp.FreeListSizes()

	if stats.NumCategories() != 2 {
		t.Fatalf("categories = %d, want 2", stats.NumCategories())
	}
	if stats.NumBlocks[0] != 5 {
		t.Fatalf("blocks[0] = %d, want 5", stats.NumBlocks[0])
	}
	wantBytes := uint64(5 * 8 * testWordBytes)
	if stats.MemSizes[0] != wantBytes {
		t.Fatalf("bytes[0] = %d, want %d", stats.MemSizes[0], wantBytes)
	}
	if stats.NumBlocks[1] != 0 {
		t.Fatalf("blocks[1] = %d, want 0", stats.NumBlocks[1])
	}
}

func TestReturnProcessorsShedExcess(t *testing.T) {
	src := &countSource{}
	fp := newTestPool(src)

	fillFreeList(fp, 0, 10)
	stats := fp.FreeListSizes()

	procs := []*pool.ReturnProcessor{
		pool.NewReturnProcessor(stats.MemSizes[0], 0), // shed everything
		pool.NewReturnProcessor(0, 0),                 // nothing to do
	}
	fp.UpdateUnlinkProcessors(procs)

	far := time.Now().Add(time.Hour)
	if procs[0].ReturnToVM(far) {
		t.Fatal("ReturnToVM reported deadline cut with a distant deadline")
	}
	if fp.Allocator(0).FreeCount() != 0 {
		t.Fatalf("allocator free count = %d, want 0", fp.Allocator(0).FreeCount())
	}
	if got := fp.Reserve(0).NumSegments(); got != 10 {
		t.Fatalf("reserve segments = %d, want 10", got)
	}
	if procs[0].NumMoved() != 10 {
		t.Fatalf("NumMoved = %d, want 10", procs[0].NumMoved())
	}

	if procs[0].ReturnToOS(far) {
		t.Fatal("ReturnToOS reported deadline cut with a distant deadline")
	}
	if got := fp.Reserve(0).NumSegments(); got != 0 {
		t.Fatalf("reserve segments after OS return = %d, want 0", got)
	}
	if src.live() != 0 {
		t.Fatalf("block balance = %d, want 0", src.live())
	}

	if !procs[1].FinishedReturnToVM() || !procs[1].FinishedReturnToOS() {
		t.Fatal("idle processor not finished")
	}
}

func TestReturnToVMForwardProgressOnExpiredDeadline(t *testing.T) {
	src := &countSource{}
	fp := newTestPool(src)

	fillFreeList(fp, 0, 40)
	stats := fp.FreeListSizes()

	proc := pool.NewReturnProcessor(stats.MemSizes[0], 4)
	fp.UpdateUnlinkProcessors([]*pool.ReturnProcessor{
		proc, pool.NewReturnProcessor(0, 0),
	})

	past := time.Now().Add(-time.Hour)
	if !proc.ReturnToVM(past) {
		t.Fatal("ReturnToVM finished despite expired deadline and 40 nodes")
	}
	if proc.NumMoved() == 0 {
		t.Fatal("no forward progress on expired deadline")
	}
	if proc.NumMoved() > 4 {
		t.Fatalf("moved %d nodes past an expired deadline, chunk is 4", proc.NumMoved())
	}

	// Resumes where it left off.
	far := time.Now().Add(time.Hour)
	for proc.ReturnToVM(far) {
	}
	if fp.Allocator(0).FreeCount() != 0 {
		t.Fatalf("allocator free count = %d, want 0", fp.Allocator(0).FreeCount())
	}
}

func TestAllocatorRefillsFromReserve(t *testing.T) {
	src := &countSource{}
	fp := newTestPool(src)

	fillFreeList(fp, 0, 6)
	stats := fp.FreeListSizes()
	proc := pool.NewReturnProcessor(stats.MemSizes[0], 0)
	fp.UpdateUnlinkProcessors([]*pool.ReturnProcessor{
		proc, pool.NewReturnProcessor(0, 0),
	})
	far := time.Now().Add(time.Hour)
	proc.ReturnToVM(far)

	minted := src.allocs.Load()
	n := fp.Allocator(0).Allocate()
	if n == nil {
		t.Fatal("Allocate returned nil")
	}
	if src.allocs.Load() != minted {
		t.Fatal("Allocate minted a fresh block instead of refilling from the reserve")
	}
	if got := fp.Reserve(0).NumSegments(); got != 5 {
		t.Fatalf("reserve segments = %d, want 5", got)
	}
}

func TestFreePoolClose(t *testing.T) {
	src := &countSource{}
	fp := newTestPool(src)

	fillFreeList(fp, 0, 4)
	fillFreeList(fp, 1, 3)
	fp.Close()
	if src.live() != 0 {
		t.Fatalf("block balance after Close = %d, want 0", src.live())
	}
}
