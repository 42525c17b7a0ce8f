// File: pool/returnproc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ReturnProcessor carries the in-progress state of returning one category's
// excess free memory: first from the hot allocator free list into the warm
// reserve (return to VM), then from the reserve back to the memory source
// (return to OS). Both directions work in small chunks and re-check the
// deadline between chunks, guaranteeing forward progress of at least one
// chunk per invocation.

package pool

import "time"

// defaultReturnChunk is how many nodes are moved or freed between deadline
// checks. Small enough to keep a single unit of work predictable.
const defaultReturnChunk = 16

// ReturnProcessor tracks incremental return-of-memory progress for a single
// category. Created per reclamation pass and discarded at cleanup; owned by
// the single background caller, no internal synchronization.
type ReturnProcessor struct {
	alloc   *Allocator
	reserve *SegmentFreeList

	vmGoal uint64 // bytes still to move allocator -> reserve
	osGoal uint64 // bytes still to free reserve -> source
	chunk  uint64

	numMoved uint64
	numFreed uint64
}

// NewReturnProcessor creates a processor that will shed excessBytes from its
// category. chunkNodes bounds the work between deadline checks; zero selects
// the default.
func NewReturnProcessor(excessBytes uint64, chunkNodes int) *ReturnProcessor {
	chunk := uint64(defaultReturnChunk)
	if chunkNodes > 0 {
		chunk = uint64(chunkNodes)
	}
	return &ReturnProcessor{vmGoal: excessBytes, osGoal: excessBytes, chunk: chunk}
}

// visitFreeList binds the processor to its category's lists. Categories with
// nothing to return are left unbound.
func (p *ReturnProcessor) visitFreeList(alloc *Allocator, reserve *SegmentFreeList) {
	if p.vmGoal == 0 && p.osGoal == 0 {
		return
	}
	p.alloc = alloc
	p.reserve = reserve
}

// FinishedReturnToVM reports whether the allocator->reserve phase is done.
func (p *ReturnProcessor) FinishedReturnToVM() bool {
	return p.alloc == nil || p.vmGoal == 0
}

// FinishedReturnToOS reports whether the reserve->source phase is done.
func (p *ReturnProcessor) FinishedReturnToOS() bool {
	return p.reserve == nil || p.osGoal == 0
}

// NumMoved returns how many nodes this pass moved into the reserve.
func (p *ReturnProcessor) NumMoved() uint64 { return p.numMoved }

// NumFreed returns how many nodes this pass returned to the source.
func (p *ReturnProcessor) NumFreed() uint64 { return p.numFreed }

// ReturnToVM moves excess nodes from the allocator free list into the
// reserve until the goal is met or the deadline expires. Returns true if the
// deadline cut the phase short and work remains.
func (p *ReturnProcessor) ReturnToVM(deadline time.Time) bool {
	for p.vmGoal > 0 {
		head, tail, count, bytes := p.alloc.unlinkFree(p.chunk)
		if count == 0 {
			// Free list exhausted; nothing more to move this pass.
			p.vmGoal = 0
			break
		}
		p.reserve.PushChain(head, tail, count, bytes)
		p.numMoved += count
		if bytes >= p.vmGoal {
			p.vmGoal = 0
		} else {
			p.vmGoal -= bytes
		}
		if p.vmGoal > 0 && !time.Now().Before(deadline) {
			return true
		}
	}
	return false
}

// ReturnToOS frees parked reserve nodes back to the memory source until the
// goal is met or the deadline expires. Returns true if the deadline cut the
// phase short and work remains.
func (p *ReturnProcessor) ReturnToOS(deadline time.Time) bool {
	for p.osGoal > 0 {
		var done uint64
		for done < p.chunk && p.osGoal > 0 {
			node := p.reserve.Pop()
			if node == nil {
				p.osGoal = 0
				break
			}
			bytes := node.byteSize()
			destroyNode(node, p.alloc.src)
			p.numFreed++
			done++
			if bytes >= p.osGoal {
				p.osGoal = 0
			} else {
				p.osGoal -= bytes
			}
		}
		if p.osGoal > 0 && !time.Now().Before(deadline) {
			return true
		}
	}
	return false
}
