// Package api
// Author: momentics <momentics@gmail.com>
//
// Contracts for raw memory provisioning behind the buffer allocator.
//
// Blocks may be heap-backed or mmap-backed; the allocator never inspects the
// backing, it only mints and destroys fixed-size word blocks through this
// interface.

package api

// MemorySource provides raw fixed-size blocks of machine words, keyed by
// word count. It backs buffer handle minting on a free-list miss and the
// physical release of handles during free-list shrinkage.
//
// AllocBlock never returns nil: exhaustion of the underlying source is a
// fatal condition (panic), not a recoverable error — the subsystem has no
// fallback path without the buffer.
//
// Implementations must be safe for concurrent use.
type MemorySource interface {
	// AllocBlock returns a zeroed block of exactly words machine words.
	AllocBlock(words int) []uintptr

	// FreeBlock returns a block previously obtained from AllocBlock to the
	// source. The block must not be used afterwards.
	FreeBlock(block []uintptr)
}
