// Package worker provides a small fixed-size worker pool used to fan
// extraction work out across fragments and documents.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job. Index reports the submission order
// of the originating job so callers can restore deterministic output
// order after the unordered parallel phase.
type Result interface {
	Index() int
	Err() error
}

// Pool runs jobs on a fixed number of workers. Results are collected
// on a dedicated goroutine as they arrive, so Submit never blocks on a
// full results buffer no matter how many jobs the caller queues before
// Wait.
type Pool struct {
	workers     int
	jobs        chan Job
	results     chan Result
	collected   []Result
	collectDone chan struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewPool creates a pool with the given number of workers (minimum 1).
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:     workers,
		jobs:        make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers and the result collector.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// collect drains results continuously so workers never stall on the
// results buffer while the caller is still submitting.
func (p *Pool) collect() {
	defer close(p.collectDone)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job for execution.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for all submitted jobs, and returns
// their results sorted by submission index.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone

	sortByIndex(p.collected)
	return p.collected
}

// Shutdown cancels outstanding work and stops the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// sortByIndex is an insertion sort; result sets are small and mostly
// ordered already because workers drain the queue roughly in order.
func sortByIndex(results []Result) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Index() < results[j-1].Index(); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
