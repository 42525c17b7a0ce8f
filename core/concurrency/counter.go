// File: core/concurrency/counter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "sync/atomic"

// Counter is an atomic uint64 with two's-complement subtraction, for counts
// that are incremented and decremented from many goroutines.
type Counter struct {
	v atomic.Uint64
}

func (c *Counter) Load() uint64     { return c.v.Load() }
func (c *Counter) Store(val uint64) { c.v.Store(val) }

// Add increments by delta and returns the new value.
func (c *Counter) Add(delta uint64) uint64 { return c.v.Add(delta) }

// Sub decrements by delta and returns the new value. Wraps on underflow;
// callers that care assert on the result.
func (c *Counter) Sub(delta uint64) uint64 { return c.v.Add(^(delta - 1)) }
