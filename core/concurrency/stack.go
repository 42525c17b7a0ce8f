// File: core/concurrency/stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Intrusive Treiber stack for MPMC use. Nodes carry their own link, so the
// stack allocates nothing. Pop is CAS-based and therefore exposed to ABA when
// popped nodes can be recycled and re-pushed concurrently; callers that
// recycle nodes must pop inside an EpochGuard critical section and call
// Synchronize before reuse (see pool.Allocator).

package concurrency

import "sync/atomic"

// Linked is implemented by intrusive node types: it exposes the node's
// embedded next link to the stack.
type Linked[T any] interface {
	NextPtr() *atomic.Pointer[T]
}

// Stack is a lock-free LIFO of intrusive nodes. The zero value is an empty
// stack ready for use.
type Stack[T any, P interface {
	*T
	Linked[T]
}] struct {
	top atomic.Pointer[T]
	_   [cacheLinePad]byte
}

// Push adds node to the top of the stack. The node's link must be clear.
func (s *Stack[T, P]) Push(node *T) {
	link := P(node).NextPtr()
	for {
		top := s.top.Load()
		link.Store(top)
		if s.top.CompareAndSwap(top, node) {
			return
		}
	}
}

// Pop removes and returns the top node, or nil if the stack is empty.
// The returned node's link is cleared.
func (s *Stack[T, P]) Pop() *T {
	for {
		top := s.top.Load()
		if top == nil {
			return nil
		}
		next := P(top).NextPtr().Load()
		if s.top.CompareAndSwap(top, next) {
			P(top).NextPtr().Store(nil)
			return top
		}
	}
}

// Prepend splices an externally built chain [head..tail] onto the stack in a
// single CAS, so concurrent poppers never observe a partial splice. The chain
// must be linked head->...->tail with tail's link clear.
func (s *Stack[T, P]) Prepend(head, tail *T) {
	link := P(tail).NextPtr()
	for {
		top := s.top.Load()
		link.Store(top)
		if s.top.CompareAndSwap(top, head) {
			return
		}
	}
}

// PopAll detaches and returns the whole stack contents as a linked chain,
// leaving the stack empty. Intended for teardown and bulk drains.
func (s *Stack[T, P]) PopAll() *T {
	return s.top.Swap(nil)
}

// Empty reports whether the stack had no nodes at the moment of the load.
func (s *Stack[T, P]) Empty() bool {
	return s.top.Load() == nil
}
