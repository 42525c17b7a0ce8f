// File: pool/segfreelist.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SegmentFreeList is a category's warm reserve: nodes shed from the hot
// allocator free list park here until either a refill pulls them back into
// circulation or the reclamation task returns them to the OS. Pops share the
// category's epoch guard, so the allocator's transfer synchronization covers
// stale reserve readers too.

package pool

import (
	"github.com/momentics/hioload-mem/core/concurrency"
)

// SegmentFreeList is a lock-free reserve of free buffer nodes with byte and
// node accounting.
type SegmentFreeList struct {
	name  string
	guard *concurrency.EpochGuard

	list     concurrency.Stack[BufferNode, *BufferNode]
	segments concurrency.Counter
	memSize  concurrency.Counter
}

// NewSegmentFreeList creates a reserve sharing the given epoch guard.
func NewSegmentFreeList(name string, guard *concurrency.EpochGuard) *SegmentFreeList {
	if guard == nil {
		guard = &concurrency.EpochGuard{}
	}
	return &SegmentFreeList{name: name, guard: guard}
}

// Name returns the reserve's tag.
func (l *SegmentFreeList) Name() string { return l.name }

// NumSegments returns the approximate number of parked nodes.
func (l *SegmentFreeList) NumSegments() uint64 { return l.segments.Load() }

// MemSize returns the approximate byte footprint of parked nodes.
func (l *SegmentFreeList) MemSize() uint64 { return l.memSize.Load() }

// Push parks a single node. The node's link must be clear.
func (l *SegmentFreeList) Push(node *BufferNode) {
	bytes := node.byteSize()
	l.segments.Add(1)
	l.memSize.Add(bytes)
	l.list.Push(node)
}

// PushChain parks a pre-linked chain [head..tail] of count nodes totalling
// bytes. Counts are updated before the splice so a concurrent pop cannot
// under-observe availability and underflow them.
func (l *SegmentFreeList) PushChain(head, tail *BufferNode, count, bytes uint64) {
	if count == 0 {
		return
	}
	l.segments.Add(count)
	l.memSize.Add(bytes)
	l.list.Prepend(head, tail)
}

// Pop unparks one node, or returns nil if the reserve is empty. Safe against
// ABA via the shared epoch guard.
func (l *SegmentFreeList) Pop() *BufferNode {
	ticket := l.guard.Enter()
	node := l.list.Pop()
	l.guard.Exit(ticket)
	if node == nil {
		return nil
	}
	l.segments.Sub(1)
	l.memSize.Sub(node.byteSize())
	return node
}

// PopAll detaches the whole reserve as a chain and zeroes the accounting.
// Single-owner: teardown and the reclamation task only.
func (l *SegmentFreeList) PopAll() *BufferNode {
	head := l.list.PopAll()
	l.segments.Store(0)
	l.memSize.Store(0)
	return head
}
