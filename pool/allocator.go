// File: pool/allocator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Allocator hands out fixed-capacity buffer nodes from a lock-free free
// list with deferred, batched reclamation of released nodes.
//
// The ABA hazard of the lock-free pop is solved without hazard pointers:
// Allocate pops inside an epoch critical section, and the transfer step
// synchronizes on those critical sections before recycling released nodes.
// Releases do not synchronize individually; they stage nodes on a
// double-buffered pending list and the transfer drains it in batches. Only
// one transfer runs at a time, guarded by a CAS try-lock; contenders skip
// and leave the work to the current owner.

package pool

import (
	"log"
	"sync/atomic"

	"github.com/momentics/hioload-mem/api"
	"github.com/momentics/hioload-mem/core/concurrency"
)

// defaultTriggerTransfer is the pending-list length beyond which a releaser
// attempts a transfer. There is little importance to the specific number: too
// big wastes space when the release rate is low; under a high release rate
// more may accumulate before a transfer can start, which is fine.
const defaultTriggerTransfer = 10

// AllocatorConfig parametrizes an Allocator. Zero values select defaults.
type AllocatorConfig struct {
	// Name tags the allocator in logs and stats.
	Name string

	// BufferCapacity is the slot count of every node, shared across the
	// allocator's lifetime. Required, must be positive.
	BufferCapacity int

	// TriggerTransfer overrides the pending-list transfer threshold.
	TriggerTransfer int

	// Source provides raw blocks. Defaults to DefaultMemorySource().
	Source api.MemorySource

	// Guard is the epoch guard shared with any structure whose pops must
	// be covered by the same transfer synchronization (e.g. a category
	// reserve). Defaults to a private guard.
	Guard *concurrency.EpochGuard

	// Refill, if set, is consulted on a free-list miss before minting a
	// fresh node from Source. Used to pull from a category reserve.
	Refill func() *BufferNode

	// Logger receives transfer/reduce trace lines; nil disables logging.
	Logger *log.Logger
}

// Allocator owns a free list, two pending lists and the epoch/transfer
// coordination between them. One instance exists per category of fixed-size
// buffer and lives for the subsystem lifetime.
type Allocator struct {
	name    string
	bufCap  int
	trigger uint64
	src     api.MemorySource
	guard   *concurrency.EpochGuard
	refill  func() *BufferNode
	logger  *log.Logger

	pending       [2]pendingList
	activePending atomic.Uint32 // written only by the transfer-lock owner

	freeList  concurrency.Stack[BufferNode, *BufferNode]
	freeCount concurrency.Counter
	minted    concurrency.Counter

	transferLock concurrency.TryMutex
}

// AllocatorStats is a momentary, non-atomic snapshot for sizing decisions.
type AllocatorStats struct {
	Name           string
	BufferCapacity int
	FreeCount      uint64
	Minted         uint64
}

// NewAllocator builds an allocator for one buffer category.
func NewAllocator(cfg AllocatorConfig) *Allocator {
	if cfg.BufferCapacity <= 0 {
		panic("pool: allocator requires a positive buffer capacity")
	}
	if cfg.Source == nil {
		cfg.Source = DefaultMemorySource()
	}
	if cfg.Guard == nil {
		cfg.Guard = &concurrency.EpochGuard{}
	}
	trigger := uint64(defaultTriggerTransfer)
	if cfg.TriggerTransfer > 0 {
		trigger = uint64(cfg.TriggerTransfer)
	}
	return &Allocator{
		name:    cfg.Name,
		bufCap:  cfg.BufferCapacity,
		trigger: trigger,
		src:     cfg.Source,
		guard:   cfg.Guard,
		refill:  cfg.Refill,
		logger:  cfg.Logger,
	}
}

// Name returns the allocator's tag.
func (a *Allocator) Name() string { return a.name }

// BufferCapacity returns the slot count of the allocator's nodes.
func (a *Allocator) BufferCapacity() int { return a.bufCap }

// FreeCount returns the approximate number of nodes on the free list. The
// value has no cross-field atomicity with the list contents; treat it as an
// estimate, not an invariant.
func (a *Allocator) FreeCount() uint64 { return a.freeCount.Load() }

// Stats returns a momentary usage snapshot.
func (a *Allocator) Stats() AllocatorStats {
	return AllocatorStats{
		Name:           a.name,
		BufferCapacity: a.bufCap,
		FreeCount:      a.freeCount.Load(),
		Minted:         a.minted.Load(),
	}
}

// Allocate returns a node owned exclusively by the caller until Release.
// A free-list hit recycles; a miss consults the refill hook, then mints a
// fresh node from the memory source. Never returns nil.
func (a *Allocator) Allocate() *BufferNode {
	// Pop inside a critical section to protect against ABA; see Release
	// and TryTransferPending.
	ticket := a.guard.Enter()
	node := a.freeList.Pop()
	a.guard.Exit(ticket)

	if node == nil {
		if a.refill != nil {
			if node = a.refill(); node != nil {
				return node
			}
		}
		a.minted.Add(1)
		return mintNode(a.bufCap, a.src)
	}
	// Decrement count after getting the node from the free list. This,
	// with incrementing before adding to the free list, ensures the count
	// never underflows.
	count := a.freeCount.Sub(1)
	if count+1 == 0 {
		panic("pool: free count underflow")
	}
	return node
}

// Release returns a node to the allocator. The node must not be linked into
// any list (its link must be clear); violating this is a programming error
// and panics. The node lands on the active pending list; once the pending
// count exceeds the trigger threshold, the releaser attempts a transfer as a
// hint — if another transfer is in progress, nodes simply accumulate for a
// later releaser to move.
func (a *Allocator) Release(node *BufferNode) {
	if node == nil {
		panic("pool: Release of nil node")
	}
	if node.next.Load() != nil {
		panic("pool: Release of node still linked into a list")
	}

	// The pending list is double-buffered. Add to the currently active
	// one inside a critical section, so a transfer that just flipped the
	// active index waits for this add before draining the old list.
	ticket := a.guard.Enter()
	index := a.activePending.Load()
	count := a.pending[index].add(node)
	a.guard.Exit(ticket)

	if count <= a.trigger {
		return
	}
	a.TryTransferPending()
}

// TryTransferPending moves the inactive pending list onto the free list.
// Returns true if a (possibly empty) transfer was performed, false if another
// transfer was already in progress.
func (a *Allocator) TryTransferPending() bool {
	if !a.transferLock.TryLock() {
		return false
	}

	// Flip which pending list is active. No atomic RMW needed: the lock
	// owner is the only writer.
	index := a.activePending.Load()
	a.activePending.Store(index ^ 1)

	// Wait for every critical section in the buffer life-cycle to finish:
	// free-list pops that may hold a stale head, and adds racing into what
	// is now the inactive list. After this, no thread can still observe a
	// node of the drained list, so recycling them is ABA-safe.
	a.guard.Synchronize()

	head, tail, count := a.pending[index].takeAll()
	if count > 0 {
		// Update the count first so a concurrent Allocate cannot pop
		// and then underflow it.
		a.freeCount.Add(count)
		a.freeList.Prepend(head, tail)
		a.logf("pool: %s transferred pending to free: %d", a.name, count)
	}

	a.transferLock.Unlock()
	return true
}

// ReduceFreeList pops and destroys up to removeGoal nodes from the free
// list, returning how many were removed. A transfer is forced first so the
// free list holds as much as possible. Best-effort: removes fewer if the
// free list is shorter than the goal.
func (a *Allocator) ReduceFreeList(removeGoal uint64) uint64 {
	a.TryTransferPending()
	var removed uint64
	for ; removed < removeGoal; removed++ {
		ticket := a.guard.Enter()
		node := a.freeList.Pop()
		a.guard.Exit(ticket)
		if node == nil {
			break
		}
		destroyNode(node, a.src)
	}
	if removed > 0 {
		newCount := a.freeCount.Sub(removed)
		a.logf("pool: %s reduced free list by %d to %d", a.name, removed, newCount)
	}
	return removed
}

// unlinkFree pops up to max nodes from the free list into a private chain
// for the reclamation task's return-to-VM phase. Returns the chain bounds,
// the node count and the detached byte footprint.
func (a *Allocator) unlinkFree(max uint64) (head, tail *BufferNode, count, bytes uint64) {
	ticket := a.guard.Enter()
	for count < max {
		node := a.freeList.Pop()
		if node == nil {
			break
		}
		bytes += node.byteSize()
		if head == nil {
			head, tail = node, node
		} else {
			node.next.Store(head)
			head = node
		}
		count++
	}
	a.guard.Exit(ticket)
	if count > 0 {
		a.freeCount.Sub(count)
	}
	return head, tail, count, bytes
}

// Close destroys every node still held by the allocator: both pending lists
// and the free list. Not safe to call concurrently with any other operation;
// callers must have quiesced all users first.
func (a *Allocator) Close() {
	for i := range a.pending {
		head, _, _ := a.pending[i].takeAll()
		a.destroyChain(head)
	}
	a.destroyChain(a.freeList.PopAll())
	a.freeCount.Store(0)
}

func (a *Allocator) destroyChain(node *BufferNode) {
	for node != nil {
		next := node.next.Load()
		node.next.Store(nil)
		destroyNode(node, a.src)
		node = next
	}
}

func (a *Allocator) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
