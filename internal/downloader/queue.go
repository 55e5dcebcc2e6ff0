package downloader

import (
	"context"
	"time"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/models"
	"coolromdl/pkg/pipeline"
)

// DownloadJob represents one selected item in selection order
type DownloadJob struct {
	Index int
	Task  models.DownloadTask
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Outcome  pipeline.Outcome
	Success  bool
	Error    error
	Duration time.Duration
}

// ItemDownloader runs the full pipeline for one task
type ItemDownloader interface {
	Download(ctx context.Context, task models.DownloadTask) (pipeline.Outcome, error)
}

// Queue runs download jobs strictly one after another. A failed job is
// recorded and the queue moves on; a cancelled job stops it.
type Queue struct {
	downloader ItemDownloader
	onResult   func(DownloadResult)
	logger     logger.Logger
}

// NewQueue creates a new sequential download queue
func NewQueue(d ItemDownloader, log logger.Logger) *Queue {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Queue{downloader: d, logger: log}
}

// OnResult registers a callback invoked after every job
func (q *Queue) OnResult(fn func(DownloadResult)) {
	q.onResult = fn
}

// Run processes tasks in order and returns the results collected so far.
// The error is non-nil only when the run was cancelled.
func (q *Queue) Run(ctx context.Context, tasks []models.DownloadTask) ([]DownloadResult, error) {
	results := make([]DownloadResult, 0, len(tasks))

	q.logger.InfoWithFields("Starting download queue", map[string]interface{}{
		"jobs": len(tasks),
	})

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrap(errors.ErrorTypeCancelled, err, "queue stopped before %s", task.Item.Name)
		}

		result := q.processJob(ctx, DownloadJob{Index: i, Task: task})
		results = append(results, result)
		if q.onResult != nil {
			q.onResult(result)
		}

		if result.Error != nil && errors.StopsRun(result.Error) {
			q.logger.WarnWithFields("Download queue cancelled", map[string]interface{}{
				"completed": len(results) - 1,
				"remaining": len(tasks) - i - 1,
			})
			return results, result.Error
		}
	}

	return results, nil
}

// processJob handles a single download job
func (q *Queue) processJob(ctx context.Context, job DownloadJob) DownloadResult {
	start := time.Now()

	q.logger.DebugWithFields("Processing job", map[string]interface{}{
		"index": job.Index,
		"item":  job.Task.Item.Name,
	})

	outcome, err := q.downloader.Download(ctx, job.Task)
	result := DownloadResult{
		Job:      job,
		Outcome:  outcome,
		Success:  err == nil,
		Error:    err,
		Duration: time.Since(start),
	}

	if err != nil {
		q.logger.ErrorWithFields("Job failed", map[string]interface{}{
			"index":    job.Index,
			"item":     job.Task.Item.Name,
			"error":    err.Error(),
			"type":     string(errors.TypeOf(err)),
			"duration": result.Duration,
		})
	}

	return result
}
