// File: pool/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "github.com/momentics/hioload-mem/api"

// DefaultMemorySource returns the process-wide default block source so all
// allocators share one backing unless configured otherwise. The heap source
// is the default on every platform: blocks stay under GC management and a
// leaked handle cannot leak a mapping. Use NewMmapSource explicitly when
// blocks must live outside the Go heap.
func DefaultMemorySource() api.MemorySource {
	return HeapSource{}
}
