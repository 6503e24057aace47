package album

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"icgrab/internal/downloader"
	"icgrab/pkg/config"
	"icgrab/pkg/icloud"
	"icgrab/pkg/logger"
	"icgrab/pkg/ratelimit"
	"icgrab/pkg/storage"
	"icgrab/pkg/ui"
)

// Client is the shared-streams API surface the fetcher needs. Satisfied by
// *icloud.Client; tests substitute their own.
type Client interface {
	FetchStream(token string) (*icloud.Stream, error)
	FetchAssetURLs(token string, photoGUIDs []string) (*icloud.AssetURLs, error)
	DownloadAsset(assetURL string) ([]byte, error)
}

// Summary is the outcome of one album run. Total counts the photos that
// produced a download task; Succeeded plus Failed always equals Total.
type Summary struct {
	AlbumName string
	Total     int
	Succeeded int
	Failed    int
}

// Fetcher drives the full pipeline for one shared album: metadata fetch,
// per-batch asset URL resolution, and the concurrent download phase.
type Fetcher struct {
	client  Client
	limiter ratelimit.Limiter
	config  *config.Config
	logger  logger.Logger
}

// New creates a fetcher from the resolved configuration.
func New(cfg *config.Config) *Fetcher {
	log := logger.GetLogger()

	client := icloud.NewClient(cfg.Client.RequestTimeout, log)
	if cfg.Client.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Client.UserAgent)
	}
	client.SetDownloadTimeout(cfg.Download.DownloadTimeout)

	return &Fetcher{
		client:  client,
		limiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		config:  cfg,
		logger:  log,
	}
}

// NewWithClient creates a fetcher with a caller-supplied client. Used by
// tests.
func NewWithClient(cfg *config.Config, client Client, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Fetcher{
		client:  client,
		limiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		config:  cfg,
		logger:  log,
	}
}

// Run downloads every photo of the shared album behind albumURL into the
// configured output directory. A Summary is returned even on partial
// failure; it is zero-valued only when the error is fatal.
func (f *Fetcher) Run(albumURL string) (Summary, error) {
	token, err := icloud.ExtractToken(albumURL)
	if err != nil {
		return Summary{}, err
	}

	f.logger.InfoWithFields("starting album fetch", map[string]interface{}{
		"token":     token,
		"partition": icloud.Partition(token),
	})

	f.limiter.Wait()
	stream, err := f.client.FetchStream(token)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrMetadataFetch, err)
	}

	albumName := stream.StreamName
	if albumName == "" {
		albumName = "Unknown Album"
	}

	ui.PrintInfo("Album", albumName)
	ui.PrintInfo("Photos", fmt.Sprintf("%d", len(stream.Photos)))

	if len(stream.Photos) == 0 {
		f.logger.Info("album is empty, nothing to download")
		return Summary{AlbumName: albumName}, nil
	}

	tasks, err := f.resolveTasks(token, albumName, stream.Photos)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		AlbumName: albumName,
		Total:     len(tasks),
	}

	if len(tasks) == 0 {
		f.logger.Warn("no downloadable derivatives in album")
		return summary, nil
	}

	succeeded, failed, err := f.download(tasks)
	if err != nil {
		return Summary{}, err
	}

	summary.Succeeded = succeeded
	summary.Failed = failed

	f.logger.InfoWithFields("album fetch finished", map[string]interface{}{
		"album":     albumName,
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})

	if summary.Failed > 0 {
		return summary, &PartialDownloadError{Failed: summary.Failed}
	}

	return summary, nil
}

// resolveTasks resolves asset URLs for all photos in album order, one
// service call per batch of at most icloud.MaxGUIDsPerBatch GUIDs.
func (f *Fetcher) resolveTasks(token, albumName string, photos []icloud.Photo) ([]DownloadTask, error) {
	batches := chunkPhotos(photos, icloud.MaxGUIDsPerBatch)
	tasks := make([]DownloadTask, 0, len(photos))

	for i, batch := range batches {
		ui.ScanningBatch(i+1, len(batches))
		logger.LogBatchProgress(albumName, i+1, len(batches))

		guids := make([]string, len(batch))
		for j := range batch {
			guids[j] = batch[j].PhotoGUID
		}

		f.limiter.Wait()
		assets, err := f.client.FetchAssetURLs(token, guids)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d/%d: %w", ErrBatchFetch, i+1, len(batches), err)
		}

		batchTasks, err := buildBatchTasks(batch, assets)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, batchTasks...)
	}

	return tasks, nil
}

// download runs the concurrent transfer phase and returns the success and
// failure counts. Worker failures are recorded, never propagated; the only
// error here is a setup failure creating the output directory.
func (f *Fetcher) download(tasks []DownloadTask) (succeeded, failed int, err error) {
	store, err := storage.NewManager(f.config.Output.Directory)
	if err != nil {
		return 0, 0, err
	}

	pool := downloader.NewWorkerPool(
		f.config.Download.ConcurrentDownloads,
		f.client,
		store,
		f.logger,
	)
	pool.Start()

	progress := ui.NewProgressDisplay(len(tasks))

	var g errgroup.Group
	g.Go(func() error {
		for result := range pool.Results() {
			if result.Success {
				succeeded++
			} else {
				failed++
				logger.LogDownload(result.Job.PhotoGUID, result.Job.Filename, false, result.Error)
			}
			progress.TaskDone(result.Job.Filename, result.Success)
		}
		return nil
	})

	// Submit failures are counted here and merged below, after the collector
	// has finished; failed itself belongs to the collector goroutine.
	submitFailed := 0
	for _, task := range tasks {
		job := downloader.DownloadJob{
			URL:       task.URL,
			PhotoGUID: task.PhotoGUID,
			Filename:  task.Filename,
			SizeLabel: task.SizeLabel,
		}
		if submitErr := pool.Submit(job); submitErr != nil {
			submitFailed++
		}
	}

	pool.Stop()
	_ = g.Wait()
	failed += submitFailed

	progress.Complete()

	return succeeded, failed, nil
}
