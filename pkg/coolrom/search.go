package coolrom

import (
	"context"
	"strings"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/models"
)

// ItemLister lists the items of one category+letter page
type ItemLister interface {
	ListItems(ctx context.Context, category, letter string) (*models.Listing, error)
}

// SearchItems lists every letter page of category and keeps the items
// whose name contains term, ignoring case. A failing letter is logged and
// skipped; the search fails only when every letter failed or ctx ends.
func SearchItems(ctx context.Context, lister ItemLister, category, term string, log logger.Logger) (*models.Listing, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	needle := strings.ToLower(term)
	matches := models.NewListing()

	var lastErr error
	failed := 0
	for _, r := range Letters {
		letter := string(r)
		listing, err := lister.ListItems(ctx, category, letter)
		if err != nil {
			if errors.IsCancelled(err) || ctx.Err() != nil {
				return nil, err
			}
			log.WithError(err).WithFields(map[string]interface{}{
				"category": category,
				"letter":   letter,
			}).Warn("Skipping letter after listing failure")
			lastErr = err
			failed++
			continue
		}

		found := models.NewListing()
		for _, ref := range listing.Items() {
			if strings.Contains(strings.ToLower(ref.Name), needle) {
				found.Set(ref)
			}
		}
		matches.Merge(found)
	}

	if failed == len(Letters) {
		return nil, lastErr
	}
	return matches, nil
}
