package coolrom

import (
	"context"
	"strings"

	"coolromdl/pkg/markup"
	"coolromdl/pkg/models"
)

// ListCategories fetches the catalog root and returns category names in
// page order. Duplicates are kept.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	page, err := c.GetPage(ctx, c.CatalogURL(), "")
	if err != nil {
		return nil, err
	}

	categories := CategoriesFrom(markup.Scan(page))
	c.logger.DebugWithFields("listed categories", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

// CategoriesFrom picks category links out of a scanned catalog page: tags
// carrying exactly one attribute whose value contains the path marker.
func CategoriesFrom(doc *markup.Document) []string {
	categories := []string{}
	for _, attrs := range doc.Attrs {
		if attrs.Len() != 1 {
			continue
		}
		first, _ := attrs.First()
		if !strings.Contains(first.Val, PathMarker) {
			continue
		}
		name, ok := CategoryFromLink(first.Val)
		if !ok {
			continue
		}
		categories = append(categories, name)
	}
	return categories
}

// ListItems fetches one category+letter page and returns its items
func (c *Client) ListItems(ctx context.Context, category, letter string) (*models.Listing, error) {
	page, err := c.GetPage(ctx, c.LetterURL(category, letter), "")
	if err != nil {
		return nil, err
	}

	items := ItemsFrom(markup.Scan(page))
	c.logger.DebugWithFields("listed items", map[string]interface{}{
		"category": category,
		"letter":   letter,
		"count":    items.Len(),
	})
	return items, nil
}

// ItemsFrom picks item links out of a scanned listing page: tags carrying
// exactly one attribute whose value is an item link. Later links with the
// same derived name replace earlier ones.
func ItemsFrom(doc *markup.Document) *models.Listing {
	listing := models.NewListing()
	for _, attrs := range doc.Attrs {
		if attrs.Len() != 1 {
			continue
		}
		first, _ := attrs.First()
		if !IsItemLink(first.Val) {
			continue
		}
		listing.Set(models.ItemReference{
			Name: ItemName(first.Val),
			Path: first.Val,
		})
	}
	return listing
}
