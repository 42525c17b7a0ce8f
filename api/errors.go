// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values for the hioload-mem library.
//
// Contract violations (double release, linked handle passed to Release) and
// memory-source exhaustion are not represented here: they are programming
// errors or fatal conditions and surface as panics, never as error values.

package api

import "errors"

var (
	// ErrSchedulerStopped indicates a Schedule call on a stopped scheduler.
	ErrSchedulerStopped = errors.New("scheduler is stopped")

	// ErrInvalidArgument indicates invalid construction parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)
