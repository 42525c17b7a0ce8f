// File: core/concurrency/epoch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EpochGuard implements quiescent-state synchronization for lock-free
// reclamation. Readers bracket accesses to shared lock-free structures with
// Enter/Exit; a reclaimer calls Synchronize before reusing detached nodes,
// which waits until every critical section that began before the call has
// finished. This substitutes for hazard pointers or reference counting: the
// reclaimer pays the cost, readers stay wait-free.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const cacheLinePad = 64

// EpochGuard tracks in-flight critical sections with two parity counters.
// Readers register under the parity of the epoch they observed on entry.
// Synchronize flips the epoch and drains the old parity, so any reader that
// observed pre-flip state is guaranteed to have exited before it returns.
type EpochGuard struct {
	global atomic.Uint64
	_      [cacheLinePad]byte
	active [2]struct {
		count atomic.Int64
		_     [cacheLinePad - 8]byte
	}

	// Serializes writers. Concurrent Synchronize calls on overlapping
	// parities would wait on each other's readers otherwise.
	syncMu sync.Mutex
}

// Enter opens a critical section and returns a ticket for Exit.
// Wait-free for readers except for the rare retry when an epoch flip
// races the registration.
func (g *EpochGuard) Enter() uint64 {
	for {
		epoch := g.global.Load()
		g.active[epoch&1].count.Add(1)
		if g.global.Load() == epoch {
			return epoch
		}
		// A flip raced our registration; the synchronizer may not be
		// waiting on this parity anymore. Back out and re-register
		// under the current epoch.
		g.active[epoch&1].count.Add(-1)
	}
}

// Exit closes the critical section opened by the Enter that returned ticket.
func (g *EpochGuard) Exit(ticket uint64) {
	g.active[ticket&1].count.Add(-1)
}

// Synchronize advances the epoch and blocks until all critical sections that
// were in flight at the moment of the flip have exited. Sections entered
// after the flip are not waited for.
func (g *EpochGuard) Synchronize() {
	g.syncMu.Lock()
	epoch := g.global.Load()
	g.global.Store(epoch + 1)
	for g.active[epoch&1].count.Load() != 0 {
		runtime.Gosched()
	}
	g.syncMu.Unlock()
}
