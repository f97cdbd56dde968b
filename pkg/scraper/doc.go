// Package scraper runs complete download jobs: it harvests the result
// URLs of search queries, downloads them into the output directory and
// keeps the resume checkpoint and the batch manifest up to date.
//
// Usage:
//
//	s, err := scraper.New(scraper.Options{
//	    Config:  cfg,
//	    Session: browser.NewHTTPSession(),
//	})
//	if err != nil {
//	    return err
//	}
//	report, err := s.DownloadQueries(ctx, scraper.Request{
//	    Queries:  []string{"site:example.com annual report"},
//	    Language: "German",
//	    Resume:   true,
//	})
//
// Every query gets its own checkpoint, created as soon as its results are
// harvested. A checkpoint is removed once all of its URLs are saved, so an
// interrupted job continues with Request.Resume and only fetches what is
// missing.
//
// Dashboards:
//
// Options.Dashboard creates a ui.Dashboard per batch. Dashboards that also
// have Start and Stop methods, like the bubbletea dashboard, own the
// terminal while the batch runs; quitting them cancels the batch.
package scraper
