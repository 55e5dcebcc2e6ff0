// Package pipeline ties the catalog client, the streaming fetcher and the
// archive unpacker together behind the entry points the CLI uses.
//
// Basic usage:
//
//	p, err := pipeline.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	categories, err := p.ListCategories(ctx)
//	items, err := p.ListItems(ctx, categories[0], "a")
//	ref, _ := items.At(0)
//	outcome, err := p.Download(ctx, models.DownloadTask{Item: ref, OutputDir: "roms"})
//
// Download runs resolve, fetch and extract strictly in that order. An
// extraction failure leaves the downloaded file in place.
package pipeline
