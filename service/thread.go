// File: service/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread is the shared background scheduler for maintenance tasks. Tasks are
// scheduled with a delay, ordered in a timer heap, moved to a FIFO ready
// queue when due, and executed one at a time on the thread's goroutine. A
// task that wants to continue simply schedules itself again; the thread
// never blocks inside a task beyond the task's own bounded work.

package service

import (
	"container/heap"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mem/api"
)

type timerEntry struct {
	at   time.Time
	seq  uint64
	task api.Task
}

// timerHeap orders entries by due time, then submission order.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Thread runs scheduled tasks on a single background goroutine. Implements
// api.Scheduler.
type Thread struct {
	mu      sync.Mutex
	timers  timerHeap
	ready   *queue.Queue // FIFO of due api.Task
	seq     uint64
	stopped bool

	notify  chan struct{}
	quitCh  chan struct{}
	doneCh  chan struct{}
	running atomic.Bool

	logger *log.Logger
}

// NewThread creates a stopped-state scheduler; call Run to start it.
// logger may be nil.
func NewThread(logger *log.Logger) *Thread {
	return &Thread{
		ready:  queue.New(),
		notify: make(chan struct{}, 1),
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// Schedule enqueues task to run after delay. Implements api.Scheduler.
func (t *Thread) Schedule(task api.Task, delay time.Duration) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return api.ErrSchedulerStopped
	}
	if delay <= 0 {
		t.ready.Add(task)
	} else {
		t.seq++
		heap.Push(&t.timers, &timerEntry{at: time.Now().Add(delay), seq: t.seq, task: task})
	}
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
	return nil
}

// Run executes tasks until Stop. Blocks; callers usually run it on its own
// goroutine.
func (t *Thread) Run() {
	if !t.running.CompareAndSwap(false, true) {
		return
	}
	defer close(t.doneCh)

	for {
		task, wait := t.nextTask()
		if task != nil {
			if t.logger != nil {
				t.logger.Printf("service: running task %s", task.Name())
			}
			task.Execute()
			continue
		}

		if wait < 0 {
			select {
			case <-t.notify:
			case <-t.quitCh:
				return
			}
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-t.notify:
		case <-timer.C:
		case <-t.quitCh:
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

// nextTask moves due timers to the ready queue and pops one ready task.
// The second return is the wait until the earliest timer, or -1 if there is
// no pending timer.
func (t *Thread) nextTask() (api.Task, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for len(t.timers) > 0 && !t.timers[0].at.After(now) {
		e := heap.Pop(&t.timers).(*timerEntry)
		t.ready.Add(e.task)
	}
	if t.ready.Length() > 0 {
		return t.ready.Remove().(api.Task), 0
	}
	if len(t.timers) > 0 {
		return nil, time.Until(t.timers[0].at)
	}
	return nil, -1
}

// Stop rejects further Schedule calls and shuts the thread down. Waits for
// the Run loop to exit if it was running.
func (t *Thread) Stop() {
	t.mu.Lock()
	alreadyStopped := t.stopped
	t.stopped = true
	t.mu.Unlock()
	if !alreadyStopped {
		close(t.quitCh)
	}
	if t.running.Load() {
		<-t.doneCh
	}
}

var _ api.Scheduler = (*Thread)(nil)
