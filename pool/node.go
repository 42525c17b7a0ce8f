// File: pool/node.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BufferNode is the unit of currency of the allocator: a fixed-capacity
// block of machine-word slots that doubles as an intrusive free-list and
// pending-list node. Identity is the node address; the link field is owned
// by whichever list currently holds the node.

package pool

import (
	"math/bits"
	"sync/atomic"

	"github.com/momentics/hioload-mem/api"
)

// wordBytes is the size of one buffer slot in bytes.
const wordBytes = bits.UintSize / 8

// BufferNode is a fixed-capacity word buffer with an intrusive next link.
// A node resides in at most one list at a time; outside any list its link
// is nil. The slot capacity is shared by all nodes of one Allocator.
type BufferNode struct {
	next atomic.Pointer[BufferNode]

	// Slots hold opaque word values for the queue layer. The allocator
	// never interprets them.
	buf []uintptr

	// index is the fill cursor maintained by the queue layer: slots
	// [index, len(buf)) hold entries, filled downward.
	index int
}

// NextPtr exposes the intrusive link for concurrency.Stack.
func (n *BufferNode) NextPtr() *atomic.Pointer[BufferNode] {
	return &n.next
}

// Buffer returns the node's slot block.
func (n *BufferNode) Buffer() []uintptr {
	return n.buf
}

// Index returns the queue-layer fill cursor.
func (n *BufferNode) Index() int {
	return n.index
}

// SetIndex updates the queue-layer fill cursor.
func (n *BufferNode) SetIndex(i int) {
	n.index = i
}

// byteSize returns the memory footprint of the node's slot block.
func (n *BufferNode) byteSize() uint64 {
	return uint64(cap(n.buf)) * wordBytes
}

// mintNode allocates a fresh node of the given slot capacity from src.
func mintNode(capacity int, src api.MemorySource) *BufferNode {
	return &BufferNode{buf: src.AllocBlock(capacity), index: capacity}
}

// destroyNode returns the node's slot block to src. The node must not be
// linked into any list.
func destroyNode(n *BufferNode, src api.MemorySource) {
	src.FreeBlock(n.buf)
	n.buf = nil
}
