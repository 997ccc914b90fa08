package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/metrics"
)

// Worker processes a single extraction job.
type Worker struct {
	extractor *extract.Extractor
	metrics   *metrics.Metrics
	stats     *extract.Stats
	log       *slog.Logger
	timeout   time.Duration
}

// NewWorker builds a worker. metrics and stats may be nil; a zero timeout
// leaves only the caller's context in charge.
func NewWorker(ex *extract.Extractor, m *metrics.Metrics, stats *extract.Stats, log *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{
		extractor: ex,
		metrics:   m,
		stats:     stats,
		log:       log,
		timeout:   timeout,
	}
}

// Process extracts the requirements of job's archive. The job's final state
// mirrors the returned error.
func (w *Worker) Process(ctx context.Context, job *Job) error {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	job.SetStatus(StatusExtracting, "extracting")
	start := time.Now()
	res, err := w.extractor.RunBytes(ctx, job.FileData())
	elapsed := time.Since(start)

	kind := extract.Kind(err)
	requirements, skipped := 0, 0
	if res != nil {
		requirements, skipped = len(res.Requirements), len(res.SkippedSections)
	}
	if w.metrics != nil {
		w.metrics.ObserveExtraction(kind, elapsed, requirements, skipped)
	}
	if w.stats != nil {
		w.stats.Record(kind, elapsed, requirements)
	}

	if err != nil {
		log.Error("extraction failed", "kind", kind, "error", err, "elapsed_ms", elapsed.Milliseconds())
		job.Fail("extracting", err)
		return err
	}

	job.Complete(res)
	log.Info("extraction complete",
		"requirements", requirements,
		"sections", res.Sections,
		"skipped_sections", skipped,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}
