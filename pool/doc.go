// Package pool
// Author: momentics <momentics@gmail.com>
//
// Lock-free buffer allocation with deferred, batched reclamation.
// Implements the fixed-capacity buffer-node allocator (free list, pending
// lists, epoch-synchronized transfer), per-category free pools with warm
// reserves, and the word-queue layer that fills and drains buffers.
// See allocator.go, freepool.go, queue.go for implementation details.
package pool
