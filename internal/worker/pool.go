// Package worker provides the bounded pool that runs generation jobs in the
// background. The pool caps concurrent flows so long polling loops cannot
// grow resource use without bound.
package worker

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is one unit of background work.
type Job interface {
	ID() string
	Execute() error
}

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("job queue full")

// Dispatcher manages a fixed pool of workers pulling from a shared queue.
type Dispatcher struct {
	maxWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	log        *logrus.Logger

	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// capacity.
func NewDispatcher(maxWorkers, queueSize int, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		log:        log,
	}
}

// Run starts the workers.
func (d *Dispatcher) Run() {
	d.log.Infof("Dispatcher starting with %d workers", d.maxWorkers)
	for i := 1; i <= d.maxWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for job := range d.jobQueue {
		d.log.WithFields(logrus.Fields{"worker": id, "job_id": job.ID()}).Info("Job started")
		if err := job.Execute(); err != nil {
			d.log.WithFields(logrus.Fields{"worker": id, "job_id": job.ID()}).WithError(err).Error("Job failed")
		} else {
			d.log.WithFields(logrus.Fields{"worker": id, "job_id": job.ID()}).Info("Job finished")
		}
	}
}

// Submit enqueues a job without blocking. A full queue is reported to the
// caller instead of stalling the request path.
func (d *Dispatcher) Submit(job Job) error {
	select {
	case d.jobQueue <- job:
		return nil
	default:
		d.log.WithField("job_id", job.ID()).Warn("Job queue full, rejecting job")
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.jobQueue)
	})
	d.wg.Wait()
	d.log.Info("Dispatcher stopped")
}

// Func adapts a closure into a Job.
type Func struct {
	JobID string
	Run   func() error
}

func (f *Func) ID() string     { return f.JobID }
func (f *Func) Execute() error { return f.Run() }
