// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Standard probes over the memory pool and the reclamation task.

package control

import (
	"github.com/momentics/hioload-mem/pool"
	"github.com/momentics/hioload-mem/reclaim"
)

// RegisterPoolProbes exposes per-category free counts and byte footprints.
func RegisterPoolProbes(r *Registry, prefix string, fp *pool.FreePool) {
	for i := 0; i < fp.NumCategories(); i++ {
		alloc := fp.Allocator(i)
		reserve := fp.Reserve(i)
		name := prefix + "." + fp.CategoryName(i)
		r.RegisterProbe(name+".free_count", func() any { return alloc.FreeCount() })
		r.RegisterProbe(name+".minted", func() any { return alloc.Stats().Minted })
		r.RegisterProbe(name+".reserve_segments", func() any { return reserve.NumSegments() })
		r.RegisterProbe(name+".reserve_bytes", func() any { return reserve.MemSize() })
	}
	r.RegisterProbe(prefix+".mem_size", func() any { return fp.MemSize() })
}

// RegisterTaskProbes exposes the reclamation task's state by name.
func RegisterTaskProbes(r *Registry, prefix string, t *reclaim.FreeMemoryTask) {
	r.RegisterProbe(prefix+".state", func() any { return t.State().String() })
	r.RegisterProbe(prefix+".active", func() any { return t.IsActive() })
}
