// File: pool/memsource_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mmap-backed memory source for Linux. Blocks live in private anonymous
// mappings outside the Go heap; FreeBlock unmaps, which is the physical
// "return to OS" behind the reclamation task's ReturnToOS phase.

//go:build linux

package pool

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mem/api"
)

// MmapSource mints word blocks from anonymous mmap regions. Exhaustion of
// the underlying source is fatal: mmap failure panics, per the allocator's
// no-fallback contract.
type MmapSource struct {
	mu      sync.Mutex
	regions map[uintptr][]byte // base address -> backing mapping
}

// NewMmapSource creates an mmap-backed source.
func NewMmapSource() *MmapSource {
	return &MmapSource{regions: make(map[uintptr][]byte)}
}

// AllocBlock maps a zeroed block of exactly words machine words.
// Slots must hold opaque word values only: the mapping is invisible to the
// garbage collector, so storing Go pointers in it is invalid.
func (s *MmapSource) AllocBlock(words int) []uintptr {
	if words <= 0 {
		panic("pool: AllocBlock requires a positive word count")
	}
	raw, err := unix.Mmap(-1, 0, words*wordBytes,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Sprintf("pool: mmap of %d words failed: %v", words, err))
	}
	base := uintptr(unsafe.Pointer(&raw[0]))
	s.mu.Lock()
	s.regions[base] = raw
	s.mu.Unlock()
	return unsafe.Slice((*uintptr)(unsafe.Pointer(&raw[0])), words)
}

// FreeBlock unmaps a block previously returned by AllocBlock.
func (s *MmapSource) FreeBlock(block []uintptr) {
	base := uintptr(unsafe.Pointer(&block[0]))
	s.mu.Lock()
	raw, ok := s.regions[base]
	if ok {
		delete(s.regions, base)
	}
	s.mu.Unlock()
	if !ok {
		panic("pool: FreeBlock of unknown block")
	}
	if err := unix.Munmap(raw); err != nil {
		panic(fmt.Sprintf("pool: munmap failed: %v", err))
	}
}

// Mapped returns the number of live mappings, for tests and probes.
func (s *MmapSource) Mapped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

var _ api.MemorySource = (*MmapSource)(nil)
