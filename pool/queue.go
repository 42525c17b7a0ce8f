// File: pool/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Word queues: the fill/drain layer on top of the allocator. A Queue owns at
// most one buffer node at a time and fills it downward; when the buffer is
// full it is handed to the set's completed hook and a fresh node is
// installed. Queues are single-owner; only the allocator underneath is
// shared.

package pool

// Queue is a single-owner, fill-downward view over one buffer node. The zero
// value is an empty queue attached to no buffer.
type Queue struct {
	node *BufferNode
}

// Node returns the queue's current buffer node, or nil.
func (q *Queue) Node() *BufferNode { return q.node }

// Size returns the number of entries currently in the queue's buffer.
func (q *Queue) Size() int {
	if q.node == nil {
		return 0
	}
	return cap(q.node.buf) - q.node.index
}

// QueueSet shares one allocator among a group of queues and receives their
// completed (full or flushed non-empty) buffers.
type QueueSet struct {
	alloc *Allocator

	// onCompleted receives buffers carrying entries in slots
	// [Index(), capacity). The receiver owns the node and must
	// eventually Release it. Nil discards entries and releases directly.
	onCompleted func(*BufferNode)
}

// NewQueueSet creates a queue set over alloc.
func NewQueueSet(alloc *Allocator, onCompleted func(*BufferNode)) *QueueSet {
	return &QueueSet{alloc: alloc, onCompleted: onCompleted}
}

// BufferCapacity returns the slot count of the set's buffers.
func (s *QueueSet) BufferCapacity() int { return s.alloc.BufferCapacity() }

// TryEnqueue stores v if the queue has a buffer with room, else returns
// false.
func (s *QueueSet) TryEnqueue(q *Queue, v uintptr) bool {
	if q.node == nil || q.node.index == 0 {
		return false
	}
	q.node.index--
	q.node.buf[q.node.index] = v
	return true
}

// Enqueue stores v, exchanging a full (or absent) buffer for a fresh one
// first. The displaced full buffer goes to the completed hook.
func (s *QueueSet) Enqueue(q *Queue, v uintptr) {
	if s.TryEnqueue(q, v) {
		return
	}
	s.exchangeBufferWithNew(q)
	if !s.TryEnqueue(q, v) {
		panic("pool: enqueue failed on a fresh buffer")
	}
}

// Flush detaches the queue's buffer: an untouched buffer is released back to
// the allocator, a partially filled one goes to the completed hook.
func (s *QueueSet) Flush(q *Queue) {
	node := q.node
	if node == nil {
		return
	}
	q.node = nil
	if node.index == cap(node.buf) {
		s.alloc.Release(node)
		return
	}
	s.completed(node)
}

// Reset discards the entries of the queue's buffer, keeping the buffer.
func (s *QueueSet) Reset(q *Queue) {
	if q.node != nil {
		q.node.index = cap(q.node.buf)
	}
}

func (s *QueueSet) exchangeBufferWithNew(q *Queue) {
	if q.node != nil {
		s.completed(q.node)
	}
	node := s.alloc.Allocate()
	node.index = cap(node.buf)
	q.node = node
}

func (s *QueueSet) completed(node *BufferNode) {
	if s.onCompleted != nil {
		s.onCompleted(node)
		return
	}
	node.index = cap(node.buf)
	s.alloc.Release(node)
}
