// File: pool/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

// MemoryStats holds per-category byte and block counts for a free pool.
// Statistics are typically not taken atomically, so there can be
// inconsistencies between fields; users must be prepared for them.
type MemoryStats struct {
	MemSizes  []uint64
	NumBlocks []uint64
}

// NewMemoryStats returns all-zero statistics for n categories.
func NewMemoryStats(n int) MemoryStats {
	return MemoryStats{
		MemSizes:  make([]uint64, n),
		NumBlocks: make([]uint64, n),
	}
}

// NumCategories returns the number of categories covered by the stats.
func (s MemoryStats) NumCategories() int {
	return len(s.MemSizes)
}

// Add accumulates other into s. Category counts must match.
func (s MemoryStats) Add(other MemoryStats) {
	if len(other.MemSizes) != len(s.MemSizes) {
		panic("pool: MemoryStats category count mismatch")
	}
	for i := range s.MemSizes {
		s.MemSizes[i] += other.MemSizes[i]
		s.NumBlocks[i] += other.NumBlocks[i]
	}
}

// Clear zeroes all counts.
func (s MemoryStats) Clear() {
	for i := range s.MemSizes {
		s.MemSizes[i] = 0
		s.NumBlocks[i] = 0
	}
}
