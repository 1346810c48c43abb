// Package apply executes a reconciliation plan against a device. The
// executor runs operations in plan order, gates each one against the
// firmware feature table, and reports per-operation outcomes instead of
// failing the whole run on the first error.
package apply

import (
	"fmt"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/reconcile"
)

// Status is the outcome of one operation.
type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// OpResult pairs an operation with its outcome. Commands holds the
// submissions that were sent (or would be sent, in dry-run), rendered
// with sensitive values masked.
type OpResult struct {
	Op       *reconcile.Op
	Status   Status
	Err      error
	Commands []string
}

// Result is the outcome of one reconciliation run against one device.
type Result struct {
	Target   string
	Outcomes []OpResult

	// Unchanged counts desired entities that needed no operation.
	Unchanged int

	// Aborted is set when cancellation cut the run short. Operations
	// not reached are reported as skipped.
	Aborted bool

	// DryRun marks a run that rendered commands without submitting.
	DryRun bool
}

// Changed reports whether any operation was applied.
func (r *Result) Changed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusApplied {
			return true
		}
	}
	return false
}

// Failures returns the failed outcomes.
func (r *Result) Failures() []OpResult {
	var failed []OpResult
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Count returns how many outcomes have the given status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Summary renders a one-line account of the run.
func (r *Result) Summary() string {
	parts := []string{
		fmt.Sprintf("%d applied", r.Count(StatusApplied)),
		fmt.Sprintf("%d unchanged", r.Unchanged),
	}
	if n := r.Count(StatusFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if n := r.Count(StatusSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	s := strings.Join(parts, ", ")
	if r.Aborted {
		s += " (aborted)"
	}
	return s
}
