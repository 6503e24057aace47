package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"icgrab/pkg/logger"
)

// DownloadJob represents a single transfer task
type DownloadJob struct {
	URL       string
	PhotoGUID string
	Filename  string
	SizeLabel string
}

// DownloadResult represents the outcome of a download job. Every submitted
// job yields exactly one result, success or failure.
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Error    error
	Duration time.Duration
	Size     int
}

// AssetDownloader interface for fetching asset content
type AssetDownloader interface {
	DownloadAsset(url string) ([]byte, error)
}

// AssetStorage interface for persisting downloaded assets
type AssetStorage interface {
	SaveAsset(r io.Reader, filename string) error
}

// WorkerPool manages concurrent transfer workers. The worker count is the
// admission gate: at most numWorkers transfers are in flight at any time,
// and one worker's failure never cancels or blocks the others.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      AssetDownloader
	storage     AssetStorage
	logger      logger.Logger
}

// NewWorkerPool creates a new transfer worker pool
func NewWorkerPool(
	numWorkers int,
	client AssetDownloader,
	storage AssetStorage,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting download pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight transfers to finish, and
// closes the result queue.
func (wp *WorkerPool) Stop() {
	wp.logger.Debug("Stopping download pool...")

	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Download pool stopped")
}

// Submit adds a new transfer job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"photo_guid": job.PhotoGUID,
			"filename":   job.Filename,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the result channel for consuming transfer outcomes
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// processJob handles a single transfer job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{
		Job:     job,
		Success: false,
	}

	wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
		"worker_id":  workerID,
		"photo_guid": job.PhotoGUID,
		"filename":   job.Filename,
		"size_label": job.SizeLabel,
	})

	data, err := wp.client.DownloadAsset(job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to download asset", map[string]interface{}{
			"worker_id":  workerID,
			"photo_guid": job.PhotoGUID,
			"error":      err.Error(),
			"duration":   result.Duration,
		})

		return result
	}

	result.Size = len(data)

	err = wp.storage.SaveAsset(bytes.NewReader(data), job.Filename)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save asset", map[string]interface{}{
			"worker_id":  workerID,
			"photo_guid": job.PhotoGUID,
			"filename":   job.Filename,
			"error":      err.Error(),
			"size":       result.Size,
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job successfully", map[string]interface{}{
		"worker_id":  workerID,
		"photo_guid": job.PhotoGUID,
		"filename":   job.Filename,
		"size":       result.Size,
		"duration":   result.Duration,
	})

	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetNumWorkers returns the configured worker count
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}
