package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "linkharvest/pkg/errors"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Papers</title>
  <link>https://papers.example.com/</link>
  <description>New papers</description>
  <item>
    <title>First</title>
    <link>https://papers.example.com/first</link>
    <enclosure url="https://papers.example.com/first.pdf" length="1024" type="application/pdf"/>
  </item>
  <item>
    <title>Second</title>
    <link>https://papers.example.com/second.pdf</link>
  </item>
  <item>
    <title>Duplicate</title>
    <link>https://papers.example.com/first</link>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Reports</title>
  <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Annual report</title>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <link href="https://reports.example.com/annual.pdf"/>
  </entry>
</feed>`

func TestFeedReaderLinks(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	reader := NewFeedReader(server.Client(), "feed-test", 5*time.Second)
	links, err := reader.Links(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://papers.example.com/first.pdf",
		"https://papers.example.com/first",
		"https://papers.example.com/second.pdf",
	}, links)
	assert.Equal(t, "feed-test", ua)
}

func TestFeedReaderParseAtom(t *testing.T) {
	reader := NewFeedReader(nil, "", 0)
	links, err := reader.Parse(strings.NewReader(atomFeed))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://reports.example.com/annual.pdf"}, links)
}

func TestFeedReaderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	reader := NewFeedReader(server.Client(), "", 0)
	_, err := reader.Links(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))

	assert.Nil(t, FeedLinks(nil))
}
