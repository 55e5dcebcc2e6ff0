package coolrom

import (
	"context"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/markup"
	"coolromdl/pkg/models"
)

// ResolveDownload turns an item reference into the binary URL embedded in
// the item's download form. Relative actions are resolved against the
// site root.
func (c *Client) ResolveDownload(ctx context.Context, item models.ItemReference) (string, error) {
	id, ok := ItemID(item.Path)
	if !ok {
		return "", errors.New(errors.ErrorTypeResolution, "no item id in path %q", item.Path)
	}

	fragment, err := c.GetPage(ctx, c.ResolveURL(id), c.RefererFor(item.Path))
	if err != nil {
		return "", err
	}

	actionURL, ok := ActionURL(fragment)
	if !ok {
		return "", errors.New(errors.ErrorTypeResolution, "could not find download URL for %s", item.Name)
	}

	actionURL = c.AbsoluteURL(actionURL)
	c.logger.DebugWithFields("resolved download", map[string]interface{}{
		"item": item.Name,
		"id":   id,
		"url":  actionURL,
	})
	return actionURL, nil
}

// ActionURL finds the form action in a download fragment. The fragment is
// scanned, then its joined text is fed through the scanner a second time so
// forms that arrive escaped inside text are found too. The first attribute
// set carrying an action key wins; an empty action counts as not found.
func ActionURL(fragment string) (string, bool) {
	doc := markup.Scan(fragment)
	doc.Feed(doc.JoinedText())

	attrs, ok := doc.FirstWith("action")
	if !ok {
		return "", false
	}
	action, _ := attrs.Get("action")
	return action, action != ""
}
