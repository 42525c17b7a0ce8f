// File: pool/memsource_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback MmapSource for platforms without the mmap backend: delegates to
// the heap source so callers can construct it unconditionally.

//go:build !linux

package pool

import "github.com/momentics/hioload-mem/api"

// MmapSource falls back to heap-backed blocks on this platform.
type MmapSource struct {
	HeapSource
}

// NewMmapSource creates the fallback source.
func NewMmapSource() *MmapSource {
	return &MmapSource{}
}

// Mapped always reports zero on this platform.
func (s *MmapSource) Mapped() int { return 0 }

var _ api.MemorySource = (*MmapSource)(nil)
