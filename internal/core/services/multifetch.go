package services

import (
	"container/heap"
	"context"
	"sync"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driving"
	"github.com/resync-dev/resync/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.MultiFetcher = (*Dispatcher)(nil)

// Dispatcher coordinates recursive multi-fetch runs: it seeds a
// priority work queue with the root resource, discovers references in
// fetched bodies and schedules dependent fetches across a bounded
// worker pool. Concurrent requests for the same URI share one network
// call (single-flight dedup), including across overlapping MultiFetch
// runs.
type Dispatcher struct {
	fetcher   driving.Fetcher
	discovery *Discovery

	maxDepth    int
	maxParallel int

	// inflight is shared across runs; the lock is held only around
	// check-and-insert and removal, never during the fetch itself.
	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// inflightCall is one in-progress fetch that late requesters of the
// same URI block on instead of duplicating the network call.
type inflightCall struct {
	done     chan struct{}
	resource *domain.Resource
	err      error
}

// NewDispatcher creates a multi-fetch dispatcher. maxDepth and
// maxParallel are the defaults applied when a run passes zero.
func NewDispatcher(fetcher driving.Fetcher, discovery *Discovery, maxDepth, maxParallel int) *Dispatcher {
	if maxDepth <= 0 {
		maxDepth = domain.DefaultMaxDepth
	}
	if maxParallel <= 0 {
		maxParallel = domain.DefaultMaxParallel
	}
	return &Dispatcher{
		fetcher:     fetcher,
		discovery:   discovery,
		maxDepth:    maxDepth,
		maxParallel: maxParallel,
		inflight:    make(map[string]*inflightCall),
	}
}

// taskResult is what a worker reports back to the scheduling loop.
type taskResult struct {
	task     *domain.FetchTask
	resource *domain.Resource
	err      error
}

// MultiFetch fetches rootURI and everything it references, bounded by
// maxDepth hops and maxParallel workers. Partial success is a normal
// outcome: per-URI errors are collected, never fatal.
func (d *Dispatcher) MultiFetch(ctx context.Context, rootURI string, maxDepth, maxParallel int) (*domain.MultiFetchResult, error) {
	if rootURI == "" {
		return nil, domain.ErrInvalidInput
	}
	if maxDepth <= 0 {
		maxDepth = d.maxDepth
	}
	if maxParallel <= 0 {
		maxParallel = d.maxParallel
	}

	result := &domain.MultiFetchResult{
		Resources: make(map[string]*domain.Resource),
		Errors:    make(map[string]error),
		Tasks:     make(map[string]*domain.FetchTask),
	}

	// Seen URIs within this run; the cross-run dedup is d.inflight.
	seen := map[string]struct{}{rootURI: {}}

	var queue taskQueue
	seq := 0
	enqueue := func(uri string, depth int) *domain.FetchTask {
		task := &domain.FetchTask{
			ID:       domain.TaskID(uri, depth),
			URI:      uri,
			Depth:    depth,
			Priority: depth,
			Status:   domain.TaskPending,
		}
		result.Tasks[task.ID] = task
		heap.Push(&queue, &queueItem{task: task, seq: seq})
		seq++
		return task
	}
	enqueue(rootURI, 0)

	taskCh := make(chan *domain.FetchTask)
	resultCh := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				resource, err := d.fetchOnce(ctx, task.URI)
				resultCh <- taskResult{task: task, resource: resource, err: err}
			}
		}()
	}

	active := 0
	cancelled := false

loop:
	for queue.Len() > 0 || active > 0 {
		// Only offer work when something is queued; a nil channel
		// makes that select arm inert.
		var sendCh chan *domain.FetchTask
		var next *domain.FetchTask
		if queue.Len() > 0 {
			sendCh = taskCh
			next = queue.peek()
		}

		select {
		case <-ctx.Done():
			cancelled = true
			break loop

		case sendCh <- next:
			heap.Pop(&queue)
			next.Status = domain.TaskInFlight
			active++

		case res := <-resultCh:
			active--
			fetched := d.recordResult(res, result)
			if res.err == nil && res.task.Depth < maxDepth {
				for _, uri := range fetched.DiscoveredLinks {
					if _, ok := seen[uri]; ok {
						continue
					}
					seen[uri] = struct{}{}
					child := enqueue(uri, res.task.Depth+1)
					res.task.Dependents = append(res.task.Dependents, child.ID)
				}
			}
		}
	}

	close(taskCh)

	// Let in-flight fetches finish or time out rather than killing
	// them; their results are still recorded.
	for active > 0 {
		res := <-resultCh
		active--
		_ = d.recordResult(res, result)
	}
	wg.Wait()

	if cancelled {
		for queue.Len() > 0 {
			item := heap.Pop(&queue).(*queueItem)
			item.task.Status = domain.TaskFailed
			result.Errors[item.task.URI] = ctx.Err()
		}
		return result, ctx.Err()
	}
	return result, nil
}

// recordResult folds a worker result into the run outcome, running
// link discovery on successful fetches. Returns the processed
// resource, nil on failure.
func (d *Dispatcher) recordResult(res taskResult, result *domain.MultiFetchResult) *domain.Resource {
	if res.err != nil {
		res.task.Status = domain.TaskFailed
		result.Errors[res.task.URI] = res.err
		logger.Debug("multifetch: %s failed: %v", res.task.URI, res.err)
		return nil
	}

	resource := res.resource.Clone()
	resource.DiscoveredLinks = d.discovery.Discover(resource.Body)
	res.task.Status = domain.TaskDone
	result.Resources[res.task.URI] = resource
	return resource
}

// fetchOnce performs a single-flight fetch: if another worker is
// already fetching uri, block on that call's result instead of
// duplicating the network work.
func (d *Dispatcher) fetchOnce(ctx context.Context, uri string) (*domain.Resource, error) {
	d.mu.Lock()
	if call, ok := d.inflight[uri]; ok {
		d.mu.Unlock()
		select {
		case <-call.done:
			return call.resource, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	d.inflight[uri] = call
	d.mu.Unlock()

	call.resource, call.err = d.fetcher.Fetch(ctx, uri)

	d.mu.Lock()
	delete(d.inflight, uri)
	d.mu.Unlock()
	close(call.done)

	return call.resource, call.err
}

// queueItem orders tasks by priority, then insertion order, so shallow
// resources finish before deep ones are attempted under saturation.
type queueItem struct {
	task *domain.FetchTask
	seq  int
}

// taskQueue is a min-heap over (priority, seq).
type taskQueue []*queueItem

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].task.Priority != q[j].task.Priority {
		return q[i].task.Priority < q[j].task.Priority
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func (q taskQueue) peek() *domain.FetchTask { return q[0].task }
