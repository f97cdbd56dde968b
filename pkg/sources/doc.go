// Package sources turns text and feeds into URL lists for the downloader.
//
// Extract finds absolute URIs of any scheme in free text; WebOnly and
// Unique narrow the result to a download list. FeedReader lists the item
// links and enclosures of RSS and Atom feeds.
package sources
