// Package pipeline runs document ingestion: parse the uploaded DOCX,
// build the block tree, split it by entity and persist the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/docstore"
)

// Options configures the orchestrator.
type Options struct {
	WorkerCount     int
	MaxQueueSize    int
	JobTTL          time.Duration
	SectionToEntity map[string]string
	Abbreviations   map[string]string
}

// Orchestrator owns the job queue and the ingest workers.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	store *docstore.Store
	log   *slog.Logger
	opts  Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the queue, job store and workers together.
func NewOrchestrator(store *docstore.Store, log *slog.Logger, opts Options) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 2
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:  NewJobStore(opts.JobTTL),
		queue: make(chan *Job, opts.MaxQueueSize),
		store: store,
		log:   log,
		opts:  opts,
	}
}

// Start launches the workers and the job-store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := 0; i < o.opts.WorkerCount; i++ {
		o.wg.Add(1)
		go func(id int) {
			defer o.wg.Done()
			o.runWorker(ctx, id)
		}(i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()

	o.log.Info("pipeline started", "workers", o.opts.WorkerCount, "queue_size", o.opts.MaxQueueSize)
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.log.Info("pipeline stopped")
}

// Submit enqueues a job without blocking. It fails the job
// immediately when the queue is full.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue full")
		return fmt.Errorf("ingest queue is full (%d pending)", len(o.queue))
	}
}

// GetJob returns the job with the given id, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth reports the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) runWorker(ctx context.Context, id int) {
	log := o.log.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			o.process(ctx, log, job)
		}
	}
}
