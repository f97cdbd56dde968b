package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	errs "linkharvest/pkg/errors"
)

// FeedReader lists the links of RSS and Atom feeds. gofeed detects the
// format, so both are handled the same way.
type FeedReader struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFeedReader creates a reader using client, or a default client when nil
func NewFeedReader(client *http.Client, userAgent string, timeout time.Duration) *FeedReader {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &FeedReader{parser: p, timeout: timeout}
}

// Links fetches feedURL and returns the links of its items
func (r *FeedReader) Links(ctx context.Context, feedURL string) ([]string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeParsing, "parse feed", fmt.Errorf("failed to parse feed: %w", err)).WithURL(feedURL)
	}
	return FeedLinks(feed), nil
}

// Parse reads a feed document from rd and returns the links of its items
func (r *FeedReader) Parse(rd io.Reader) ([]string, error) {
	feed, err := r.parser.Parse(rd)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "parse feed", err)
	}
	return FeedLinks(feed), nil
}

// FeedLinks collects, per item, the enclosure URLs followed by the item
// links. Entries that are not web URLs and repeats are dropped.
func FeedLinks(feed *gofeed.Feed) []string {
	if feed == nil {
		return nil
	}

	var links []string
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		for _, enc := range item.Enclosures {
			if enc != nil && enc.URL != "" {
				links = append(links, enc.URL)
			}
		}
		if item.Link != "" {
			links = append(links, item.Link)
		}
		links = append(links, item.Links...)
	}
	return Unique(WebOnly(links))
}
