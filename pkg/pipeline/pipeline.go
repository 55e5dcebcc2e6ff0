package pipeline

import (
	"context"
	"os"
	"time"

	"coolromdl/pkg/archive"
	"coolromdl/pkg/config"
	"coolromdl/pkg/coolrom"
	"coolromdl/pkg/errors"
	"coolromdl/pkg/fetcher"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/models"
	"coolromdl/pkg/ratelimit"
	"coolromdl/pkg/storage"
	"coolromdl/pkg/ui"
)

// Outcome is the result of downloading one item
type Outcome struct {
	Item      models.ItemReference
	Download  *models.ResolvedDownload
	Extracted bool
}

// Pipeline orchestrates listing, resolution, download and extraction
type Pipeline struct {
	client    CatalogClient
	extractor Extractor
	progress  fetcher.ProgressReporter
	chunkSize int
	logger    logger.Logger
}

// New creates a pipeline wired to the live catalog
func New(cfg *config.Config) (*Pipeline, error) {
	log := logger.GetLogger()

	limiter := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute, time.Minute)
	client := coolrom.NewClient(cfg.Catalog, limiter, log)

	return NewWithDependencies(
		client,
		archive.NewUnpacker(log),
		ui.NewDownloadProgress(os.Stdout),
		cfg.Download.ChunkSize,
		log,
	), nil
}

// NewWithDependencies creates a pipeline from explicit collaborators
func NewWithDependencies(client CatalogClient, extractor Extractor, progress fetcher.ProgressReporter, chunkSize int, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &Pipeline{
		client:    client,
		extractor: extractor,
		progress:  progress,
		chunkSize: chunkSize,
		logger:    log,
	}
}

// ListCategories returns the category names of the catalog root
func (p *Pipeline) ListCategories(ctx context.Context) ([]string, error) {
	return p.client.ListCategories(ctx)
}

// ListItems returns the items of one category and letter
func (p *Pipeline) ListItems(ctx context.Context, category, letter string) (*models.Listing, error) {
	return p.client.ListItems(ctx, category, letter)
}

// SearchItems matches term against every letter page of category
func (p *Pipeline) SearchItems(ctx context.Context, category, term string) (*models.Listing, error) {
	return coolrom.SearchItems(ctx, p.client, category, term, p.logger)
}

// Download resolves, fetches and optionally extracts one item. The
// returned Outcome carries whatever was completed before a failure.
func (p *Pipeline) Download(ctx context.Context, task models.DownloadTask) (Outcome, error) {
	outcome := Outcome{Item: task.Item}
	log := p.logger.WithFields(map[string]interface{}{
		"item":     task.Item.Name,
		"category": coolrom.CategoryOf(task.Item.Path),
	})

	url, err := p.client.ResolveDownload(ctx, task.Item)
	if err != nil {
		log.WithError(err).Error("Failed to resolve download")
		return outcome, err
	}

	store, err := storage.NewManager(task.OutputDir)
	if err != nil {
		return outcome, errors.Wrap(errors.ErrorTypeFilesystem, err, "cannot prepare %s", task.OutputDir)
	}

	f := fetcher.New(p.client, store, p.progress, p.chunkSize, log)
	download, err := f.Fetch(ctx, url, p.client.RefererFor(task.Item.Path))
	outcome.Download = download
	if err != nil {
		var filename string
		var written int64
		if download != nil {
			filename, written = download.Filename, download.Written
		}
		logger.LogDownload(log, task.Item.Name, filename, written, err)
		return outcome, err
	}
	logger.LogDownload(log, task.Item.Name, download.Filename, download.Written, nil)

	if p.extractor == nil {
		return outcome, nil
	}

	extracted, err := p.extractor.Extract(ctx, archive.Request{
		ArchivePath: download.Path,
		Filename:    download.Filename,
		Dest:        store.GetOutputDir(),
		Owner:       task.Owner,
		Mode:        task.Mode,
		HasMode:     task.HasMode,
		Clean:       task.Clean,
	})
	outcome.Extracted = extracted
	return outcome, err
}
