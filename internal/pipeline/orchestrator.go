package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/specgest/internal/config"
	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/metrics"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("pipeline stopped")
)

const cleanupInterval = 5 * time.Minute

// Orchestrator manages the extraction worker pool.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Pipeline

	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, ex *extract.Extractor, m *metrics.Metrics, stats *extract.Stats, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:   NewJobStore(cfg.Pipeline.JobTTL),
		queue:  make(chan *Job, cfg.Pipeline.MaxQueueSize),
		worker: NewWorker(ex, m, stats, log, cfg.Extract.Timeout),
		log:    log,
		cfg:    cfg.Pipeline,
	}
	if m != nil {
		m.RegisterQueueDepth(o.QueueDepth)
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					// Failures are recorded on the job.
					_ = o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()

	o.log.Info("pipeline started", "workers", o.cfg.WorkerCount, "queue_size", o.cfg.MaxQueueSize)
}

// Stop gracefully shuts down the pipeline. Jobs still queued are dropped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.log.Info("pipeline stopped")
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		err := fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
		job.Fail("queue_full", err)
		return err
	}
}

// Run processes job on the calling goroutine, bypassing the queue. The job
// is still recorded so it can be polled afterwards.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	o.jobs.Put(job)
	return o.worker.Process(ctx, job)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
