package ingest

import "sync"

// Pool is a bounded worker pool for message handling. The transport
// callback hands each message off to Submit instead of spawning a
// goroutine per message, so a burst of pings cannot fan out unbounded.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewPool starts workers goroutines draining a buffered job queue.
func NewPool(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 256
	}

	p := &Pool{jobs: make(chan func(), queueDepth)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues a job, blocking when the queue is full. Backpressure
// onto the transport client is preferable to dropping pings.
func (p *Pool) Submit(job func()) {
	p.jobs <- job
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
