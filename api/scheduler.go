// Package api
// Author: momentics <momentics@gmail.com>
//
// Scheduler contract for periodic background maintenance work.

package api

import "time"

// Task is a resumable unit of background work driven by a Scheduler.
// Execute performs a bounded amount of work per invocation; a task with
// unfinished work re-requests scheduling itself rather than blocking.
type Task interface {
	// Name identifies the task for logging and observability.
	Name() string

	// Execute runs one bounded invocation of the task.
	Execute()
}

// Scheduler runs Tasks after a delay on a dedicated background thread.
type Scheduler interface {
	// Schedule enqueues task to run after delay. A zero delay means "as
	// soon as possible". Returns an error if the scheduler has stopped.
	Schedule(task Task, delay time.Duration) error
}
