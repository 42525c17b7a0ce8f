// File: reclaim/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FreeMemoryTask incrementally sheds excess free memory held by a FreePool.
// It is a resumable state machine driven by repeated, deadline-bounded
// invocations from a service thread: each Execute performs at most one
// time-slice of work, then either finishes (back to Inactive) or asks to be
// rescheduled shortly. The deadline is checked between discrete units of
// work, never mid-unit, so an invocation never stalls the service thread.

package reclaim

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mem/api"
	"github.com/momentics/hioload-mem/pool"
)

// State enumerates the task's phases.
type State int32

const (
	StateInactive State = iota
	StateCalculateUsed
	StateReturnToVM
	StateReturnToOS
	StateCleanup
)

var stateNames = [...]string{
	"Inactive",
	"CalculateUsed",
	"ReturnToVM",
	"ReturnToOS",
	"Cleanup",
}

// String returns the human-readable state name, for observability only.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Invalid"
	}
	return stateNames[s]
}

// Config parametrizes a FreeMemoryTask. Zero values select defaults.
type Config struct {
	// StepDuration is the time slice of one Execute invocation.
	StepDuration time.Duration

	// RescheduleDelay is the self-requested delay when work remains.
	// Deliberately short: there is known unfinished work.
	RescheduleDelay time.Duration

	// KeepExcessRatio is the fraction of used memory worth of free
	// memory to keep per category; the rest is excess to shed.
	KeepExcessRatio float64

	// ChunkNodes bounds return-processor work between deadline checks.
	ChunkNodes int

	// Logger receives state transitions and per-category trace lines.
	Logger *log.Logger
}

const (
	defaultStepDuration    = time.Millisecond
	defaultRescheduleDelay = 10 * time.Millisecond
	defaultKeepRatio       = 0.1
)

// usageCell is one category's notified usage, updated atomically so
// NotifyNewStats can race Execute safely.
type usageCell struct {
	bytes  atomic.Uint64
	blocks atomic.Uint64
}

// FreeMemoryTask returns excess free memory of a FreePool toward the OS
// across repeated bounded invocations. All state except the usage cells and
// the state word is owned by the single background caller of Execute;
// NotifyNewStats and IsActive are safe from any goroutine.
type FreeMemoryTask struct {
	name  string
	pool  *pool.FreePool
	sched api.Scheduler
	cfg   Config

	state     atomic.Int32
	totalUsed []usageCell

	procs []*pool.ReturnProcessor
}

// NewFreeMemoryTask builds the task for fp, rescheduling itself on sched
// when a pass does not complete within one time slice.
func NewFreeMemoryTask(name string, fp *pool.FreePool, sched api.Scheduler, cfg Config) *FreeMemoryTask {
	if cfg.StepDuration <= 0 {
		cfg.StepDuration = defaultStepDuration
	}
	if cfg.RescheduleDelay <= 0 {
		cfg.RescheduleDelay = defaultRescheduleDelay
	}
	if cfg.KeepExcessRatio <= 0 {
		cfg.KeepExcessRatio = defaultKeepRatio
	}
	return &FreeMemoryTask{
		name:      name,
		pool:      fp,
		sched:     sched,
		cfg:       cfg,
		totalUsed: make([]usageCell, fp.NumCategories()),
	}
}

// Name implements api.Task.
func (t *FreeMemoryTask) Name() string { return t.name }

// State returns the current state.
func (t *FreeMemoryTask) State() State { return State(t.state.Load()) }

// IsActive reports whether a reclamation pass is in progress.
func (t *FreeMemoryTask) IsActive() bool { return t.State() != StateInactive }

// NotifyNewStats records fresh per-category usage statistics. While the task
// is Inactive it also starts a new pass: the state moves to CalculateUsed
// and the task is scheduled immediately. While active, the stats feed the
// in-progress computation without restarting the pipeline.
func (t *FreeMemoryTask) NotifyNewStats(stats ...pool.MemoryStats) {
	for i := range t.totalUsed {
		var bytes, blocks uint64
		for _, s := range stats {
			bytes += s.MemSizes[i]
			blocks += s.NumBlocks[i]
		}
		t.totalUsed[i].bytes.Store(bytes)
		t.totalUsed[i].blocks.Store(blocks)
	}
	if t.state.CompareAndSwap(int32(StateInactive), int32(StateCalculateUsed)) {
		t.logf("reclaim: %s state change %s -> %s", t.name, StateInactive, StateCalculateUsed)
		if t.sched != nil {
			t.sched.Schedule(t, 0) //nolint:errcheck // a stopped scheduler ends the pass
		}
	}
}

// Execute implements api.Task: one deadline-bounded slice of reclamation.
// Invoked while Inactive it is a no-op. If states remain unfinished at the
// deadline, the task reschedules itself after the configured delay.
func (t *FreeMemoryTask) Execute() {
	if t.freeExcessMemory() && t.sched != nil {
		t.sched.Schedule(t, t.cfg.RescheduleDelay) //nolint:errcheck
	}
}

// RescheduleDelay returns the delay used when a pass is cut short.
func (t *FreeMemoryTask) RescheduleDelay() time.Duration { return t.cfg.RescheduleDelay }

// freeExcessMemory advances the state machine until the pass completes or
// the deadline expires. Returns true if more work remains.
func (t *FreeMemoryTask) freeExcessMemory() bool {
	if !t.IsActive() {
		return false
	}
	start := time.Now()
	deadline := start.Add(t.cfg.StepDuration)

	for {
		var next State
		switch t.State() {
		case StateCalculateUsed:
			if t.calculateReturnInfos(deadline) {
				return true
			}
			next = StateReturnToVM
		case StateReturnToVM:
			if t.returnMemoryToVM(deadline) {
				return true
			}
			next = StateReturnToOS
		case StateReturnToOS:
			if t.returnMemoryToOS(deadline) {
				return true
			}
			next = StateCleanup
		case StateCleanup:
			t.cleanupReturnInfos()
			next = StateInactive
		default:
			panic("reclaim: execute in state " + t.State().String())
		}

		t.setState(next)
		if t.State() == StateInactive || deadlineExceeded(deadline) {
			break
		}
	}

	t.logf("reclaim: %s step took %v, active=%v", t.name, time.Since(start), t.IsActive())
	return t.IsActive()
}

// calculateReturnInfos builds the per-category return-processor set from the
// notified usage and a live free-size query. The deadline is ignored in this
// step as it is very short. Returns false: always completes in one unit.
func (t *FreeMemoryTask) calculateReturnInfos(time.Time) bool {
	free := t.pool.FreeListSizes()

	t.procs = make([]*pool.ReturnProcessor, t.pool.NumCategories())
	for i := range t.procs {
		used := t.totalUsed[i].bytes.Load()
		keep := keepSize(free.MemSizes[i], used, t.cfg.KeepExcessRatio)
		excess := free.MemSizes[i] - keep
		t.logf("reclaim: %s category %s: free %d (%d blocks) used %d keep %d",
			t.name, t.pool.CategoryName(i),
			free.MemSizes[i], free.NumBlocks[i], used, keep)
		t.procs[i] = pool.NewReturnProcessor(excess, t.cfg.ChunkNodes)
	}
	t.pool.UpdateUnlinkProcessors(t.procs)
	return false
}

// returnMemoryToVM drives the allocator->reserve phase of every processor.
// Returns true if the deadline cut it short.
func (t *FreeMemoryTask) returnMemoryToVM(deadline time.Time) bool {
	for _, p := range t.procs {
		if !p.FinishedReturnToVM() && p.ReturnToVM(deadline) {
			return true
		}
	}
	return false
}

// returnMemoryToOS drives the reserve->source phase of every processor.
// Returns true if the deadline cut it short.
func (t *FreeMemoryTask) returnMemoryToOS(deadline time.Time) bool {
	for _, p := range t.procs {
		if !p.FinishedReturnToOS() && p.ReturnToOS(deadline) {
			return true
		}
	}
	return false
}

// cleanupReturnInfos discards the processor set and resets the usage
// bookkeeping. Trivial; normally completes in one pass.
func (t *FreeMemoryTask) cleanupReturnInfos() {
	t.procs = nil
	for i := range t.totalUsed {
		t.totalUsed[i].bytes.Store(0)
		t.totalUsed[i].blocks.Store(0)
	}
}

func (t *FreeMemoryTask) setState(next State) {
	t.logf("reclaim: %s state change %s -> %s", t.name, t.State(), next)
	t.state.Store(int32(next))
}

func (t *FreeMemoryTask) logf(format string, args ...any) {
	if t.cfg.Logger != nil {
		t.cfg.Logger.Printf(format, args...)
	}
}

// keepSize caps the kept free memory at percent of used, and at what is
// actually free.
func keepSize(free, used uint64, percent float64) uint64 {
	toKeep := uint64(float64(used) * percent)
	if toKeep > free {
		return free
	}
	return toKeep
}

// deadlineExceeded reports whether the monotonic clock passed deadline.
func deadlineExceeded(deadline time.Time) bool {
	return !time.Now().Before(deadline)
}
