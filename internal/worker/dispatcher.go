// Package worker runs blocking triage work (model and OCR calls) on a
// bounded, elastic pool so the serving layer never blocks on slow external
// services without a backpressure signal.
package worker

import (
	"errors"
	"time"
)

// ErrDispatcherBusy is returned by Submit when the job queue is full.
var ErrDispatcherBusy = errors.New("job queue full")

type jobKind int

const (
	runJob jobKind = iota
	stopJob
)

type job struct {
	kind jobKind
	run  func()
}

type DispatcherConfig struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
}

// Dispatcher feeds queued jobs to pool workers in arrival order.
type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan job
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	d := &Dispatcher{
		pool:     newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout),
		jobQueue: make(chan job, cfg.QueueSize),
	}

	// Warm up workers so the first requests do not pay the spawn cost.
	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for j := range d.jobQueue {
		workerChan := d.pool.acquire()
		debugLog("[dispatcher] assign job, %d workers running", d.pool.runningWorkers())
		workerChan <- j
	}
}

// Submit enqueues fn for execution without blocking. Callers receive the
// result through whatever channel fn closes over; when the queue is
// saturated, Submit reports ErrDispatcherBusy instead of queueing.
func (d *Dispatcher) Submit(fn func()) error {
	select {
	case d.jobQueue <- job{kind: runJob, run: fn}:
		return nil
	default:
		return ErrDispatcherBusy
	}
}

func (p *jobChannelPool) runningWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
