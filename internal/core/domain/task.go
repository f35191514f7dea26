package domain

import "fmt"

// TaskStatus is the lifecycle state of a fetch task.
type TaskStatus string

// Fetch task statuses.
const (
	TaskPending  TaskStatus = "pending"
	TaskInFlight TaskStatus = "in_flight"
	TaskDone     TaskStatus = "done"
	TaskFailed   TaskStatus = "failed"
)

// FetchTask is one unit of work for the multi-fetch dispatcher.
type FetchTask struct {
	// ID is derived from the URI and the depth it was discovered at.
	ID string

	// URI is the resource to fetch.
	URI string

	// Depth is the discovery depth, 0 for the root resource.
	Depth int

	// Priority orders the work queue. Lower runs first; tasks
	// discovered at shallower depth carry lower priority values.
	Priority int

	// Status tracks task progress.
	Status TaskStatus

	// Dependents are the IDs of tasks discovered from this task's
	// resource. Reporting only; child fetches are independent.
	Dependents []string
}

// TaskID builds the canonical task identifier for a URI at a depth.
func TaskID(uri string, depth int) string {
	return fmt.Sprintf("%s@%d", uri, depth)
}

// MultiFetchResult is the outcome of one multi-fetch run. Partial
// success is a normal outcome: callers receive every resource that
// was retrievable plus the per-URI errors for the rest.
type MultiFetchResult struct {
	// Resources maps URI to the fetched resource.
	Resources map[string]*Resource

	// Errors maps URI to the error that made it unretrievable.
	Errors map[string]error

	// Tasks holds the final state of every scheduled task, by ID.
	Tasks map[string]*FetchTask
}

// Multi-fetch defaults.
const (
	// DefaultMaxDepth bounds recursive link discovery.
	DefaultMaxDepth = 2

	// DefaultMaxParallel is the worker pool size.
	DefaultMaxParallel = 4
)
