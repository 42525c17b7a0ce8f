// File: pool/pending.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// pendingList is the per-epoch staging area for released buffer nodes. Nodes
// accumulate here between transfers so that only the (rare) transfer has to
// pay for epoch synchronization, not every release. The head is multi-writer
// via atomic exchange; the tail is written only by the releaser that
// installed the first node and read only after the count made that write
// visible; takeAll is single-owner under the allocator's transfer lock.

package pool

import "sync/atomic"

type pendingList struct {
	head  atomic.Pointer[BufferNode]
	tail  *BufferNode
	count atomic.Uint64
}

// add links node at the head and returns the post-add count. The node's link
// must be clear. Safe for unbounded concurrent callers.
func (p *pendingList) add(node *BufferNode) uint64 {
	oldHead := p.head.Swap(node)
	if oldHead != nil {
		node.next.Store(oldHead)
	} else {
		p.tail = node
	}
	return p.count.Add(1)
}

// takeAll detaches the whole list and resets it to empty, returning the
// chain and its length. Must only be called by the transfer-lock owner,
// after all concurrent adds to this list have quiesced.
func (p *pendingList) takeAll() (head, tail *BufferNode, count uint64) {
	head = p.head.Load()
	tail = p.tail
	count = p.count.Load()
	p.head.Store(nil)
	p.tail = nil
	p.count.Store(0)
	return head, tail, count
}
