// File: core/concurrency/trylock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TryMutex is a single-owner non-blocking lock: a boolean flag claimed by
// CAS. Contenders never wait; they observe failure and move on. Used to make
// phases like the allocator's pending-list transfer single-owner without a
// blocking mutex on the hot path.

package concurrency

import "sync/atomic"

// TryMutex is a CAS-claimed binary lock. The zero value is unlocked.
type TryMutex struct {
	held atomic.Bool
}

// TryLock attempts to claim the lock without blocking. The cheap load first
// avoids a contended CAS when the lock is likely held.
func (m *TryMutex) TryLock() bool {
	if m.held.Load() {
		return false
	}
	return m.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Must only be called by the current owner.
func (m *TryMutex) Unlock() {
	if !m.held.Swap(false) {
		panic("concurrency: Unlock of unheld TryMutex")
	}
}

// Held reports whether the lock is currently claimed. Advisory only.
func (m *TryMutex) Held() bool {
	return m.held.Load()
}
