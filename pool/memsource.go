// File: pool/memsource.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Heap-backed memory source. Blocks are ordinary Go slices; FreeBlock only
// severs the reference and lets the GC reclaim the storage.

package pool

import "github.com/momentics/hioload-mem/api"

// HeapSource mints word blocks from the Go heap.
type HeapSource struct{}

// AllocBlock returns a zeroed block of exactly words machine words.
func (HeapSource) AllocBlock(words int) []uintptr {
	if words <= 0 {
		panic("pool: AllocBlock requires a positive word count")
	}
	return make([]uintptr, words)
}

// FreeBlock is a no-op; the garbage collector reclaims the storage.
func (HeapSource) FreeBlock(block []uintptr) {}

var _ api.MemorySource = HeapSource{}
