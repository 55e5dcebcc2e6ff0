package pipeline

import (
	"context"
	"net/http"

	"coolromdl/pkg/archive"
	"coolromdl/pkg/models"
)

// CatalogClient defines the catalog operations the pipeline relies on
type CatalogClient interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListItems(ctx context.Context, category, letter string) (*models.Listing, error)
	ResolveDownload(ctx context.Context, item models.ItemReference) (string, error)
	RefererFor(itemPath string) string
	Open(ctx context.Context, url, referer string) (*http.Response, error)
}

// Extractor unpacks a downloaded file
type Extractor interface {
	Extract(ctx context.Context, req archive.Request) (bool, error)
}
