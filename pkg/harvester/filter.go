package harvester

import (
	"net/url"
	"strings"
)

// Filter decides which scanned hrefs are result candidates
type Filter struct {
	keyword string
	hosts   map[string]bool
}

// NewFilter rejects links on any host listed in engineHosts and on any host
// with a label equal to engineKeyword, so "google" covers www.google.com and
// google.co.uk but not googleblog.com
func NewFilter(engineKeyword string, engineHosts ...string) *Filter {
	f := &Filter{
		keyword: strings.ToLower(strings.TrimSpace(engineKeyword)),
		hosts:   make(map[string]bool, len(engineHosts)),
	}
	for _, h := range engineHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			f.hosts[h] = true
		}
	}
	return f
}

// Accept returns the trimmed href and true when it is a non-empty absolute
// http(s) URL outside the search engine's own domain
func (f *Filter) Accept(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || f.hosts[host] {
		return "", false
	}
	if f.keyword != "" {
		for _, label := range strings.Split(host, ".") {
			if label == f.keyword {
				return "", false
			}
		}
	}
	return href, true
}
