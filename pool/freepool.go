// File: pool/freepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FreePool groups the allocators of a family of fixed-size-block categories
// under one memory source and one epoch guard, and exposes the aggregate
// views the reclamation task works against: per-category free sizes and the
// binding of return processors to categories.

package pool

import (
	"log"

	"github.com/momentics/hioload-mem/api"
	"github.com/momentics/hioload-mem/core/concurrency"
)

// CategoryConfig describes one fixed-size buffer category.
type CategoryConfig struct {
	Name            string
	BufferCapacity  int
	TriggerTransfer int
}

// FreePoolConfig parametrizes a FreePool.
type FreePoolConfig struct {
	// Source backs every category. Defaults to DefaultMemorySource().
	Source api.MemorySource

	// Logger is handed to each allocator; nil disables logging.
	Logger *log.Logger

	Categories []CategoryConfig
}

type category struct {
	name    string
	alloc   *Allocator
	reserve *SegmentFreeList
}

// FreePool owns one hot allocator and one warm reserve per category. All
// categories share a single epoch guard, so one transfer synchronization
// covers stale readers of every list in the pool.
type FreePool struct {
	src   api.MemorySource
	guard concurrency.EpochGuard
	cats  []*category
}

// NewFreePool builds a pool with the given categories.
func NewFreePool(cfg FreePoolConfig) *FreePool {
	if len(cfg.Categories) == 0 {
		panic("pool: FreePool requires at least one category")
	}
	if cfg.Source == nil {
		cfg.Source = DefaultMemorySource()
	}
	fp := &FreePool{src: cfg.Source}
	for _, c := range cfg.Categories {
		reserve := NewSegmentFreeList(c.Name, &fp.guard)
		alloc := NewAllocator(AllocatorConfig{
			Name:            c.Name,
			BufferCapacity:  c.BufferCapacity,
			TriggerTransfer: c.TriggerTransfer,
			Source:          cfg.Source,
			Guard:           &fp.guard,
			Refill:          reserve.Pop,
			Logger:          cfg.Logger,
		})
		fp.cats = append(fp.cats, &category{name: c.Name, alloc: alloc, reserve: reserve})
	}
	return fp
}

// NumCategories returns the number of configured categories.
func (fp *FreePool) NumCategories() int { return len(fp.cats) }

// CategoryName returns the name of category i.
func (fp *FreePool) CategoryName(i int) string { return fp.cats[i].name }

// Allocator returns the hot-tier allocator of category i.
func (fp *FreePool) Allocator(i int) *Allocator { return fp.cats[i].alloc }

// Reserve returns the warm-tier reserve of category i.
func (fp *FreePool) Reserve(i int) *SegmentFreeList { return fp.cats[i].reserve }

// FreeListSizes returns per-category free byte and block counts across both
// tiers. A momentary snapshot with no cross-list atomicity.
func (fp *FreePool) FreeListSizes() MemoryStats {
	stats := NewMemoryStats(len(fp.cats))
	for i, c := range fp.cats {
		nodeBytes := uint64(c.alloc.BufferCapacity()) * wordBytes
		free := c.alloc.FreeCount()
		stats.MemSizes[i] = free*nodeBytes + c.reserve.MemSize()
		stats.NumBlocks[i] = free + c.reserve.NumSegments()
	}
	return stats
}

// MemSize returns the total free byte footprint across all categories.
func (fp *FreePool) MemSize() uint64 {
	var total uint64
	stats := fp.FreeListSizes()
	for _, s := range stats.MemSizes {
		total += s
	}
	return total
}

// UpdateUnlinkProcessors binds each return processor to its category's
// lists. Only processors with work to do are bound; the rest keep a nil
// source and report finished immediately.
func (fp *FreePool) UpdateUnlinkProcessors(procs []*ReturnProcessor) {
	if len(procs) != len(fp.cats) {
		panic("pool: return processor count mismatch")
	}
	for i, c := range fp.cats {
		procs[i].visitFreeList(c.alloc, c.reserve)
	}
}

// Close destroys every free node in every category, hot and warm tier.
// Callers must have quiesced all users first.
func (fp *FreePool) Close() {
	for _, c := range fp.cats {
		node := c.reserve.PopAll()
		for node != nil {
			next := node.next.Load()
			node.next.Store(nil)
			destroyNode(node, fp.src)
			node = next
		}
		c.alloc.Close()
	}
}
