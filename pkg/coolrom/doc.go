// Package coolrom is the client for the ROM catalog site.
//
// It lists categories and per-letter item pages, searches across letters,
// and resolves an item to the URL of its binary:
//
//	client := coolrom.NewClient(cfg.Catalog, limiter, log)
//	categories, err := client.ListCategories(ctx)
//	items, err := client.ListItems(ctx, "nes", "a")
//	ref, _ := items.At(0)
//	url, err := client.ResolveDownload(ctx, ref)
//
// Page structure is matched with plain string checks on scanned attribute
// sets (see package markup): a link counts only when its tag has exactly
// one attribute. That coupling mirrors the site's markup and is brittle by
// nature.
package coolrom
