package language

import (
	"net/url"
	"strings"

	errs "linkharvest/pkg/errors"
)

const (
	DefaultSearchURL         = "https://www.google.com/search"
	DefaultInterfaceLanguage = "en"
)

// URLBuilder produces result page URLs for a search engine
type URLBuilder struct {
	BaseURL           string
	InterfaceLanguage string
}

// DefaultBuilder targets Google with an English interface
func DefaultBuilder() URLBuilder {
	return URLBuilder{BaseURL: DefaultSearchURL, InterfaceLanguage: DefaultInterfaceLanguage}
}

// Build returns <base>?q=<query>&hl=<interface>[&lr=lang_<code>]. The query
// text is escaped; the language code is optional.
func (b URLBuilder) Build(query, languageCode string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errs.Newf(errs.ErrorTypeConfiguration, "build search url", "query text is empty")
	}

	base := b.BaseURL
	if base == "" {
		base = DefaultSearchURL
	}
	if _, err := url.Parse(base); err != nil {
		return "", errs.New(errs.ErrorTypeConfiguration, "build search url", err).WithURL(base)
	}
	hl := b.InterfaceLanguage
	if hl == "" {
		hl = DefaultInterfaceLanguage
	}

	var sb strings.Builder
	sb.WriteString(base)
	if strings.Contains(base, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString("q=")
	sb.WriteString(url.QueryEscape(query))
	sb.WriteString("&hl=")
	sb.WriteString(url.QueryEscape(hl))
	if code := strings.TrimSpace(languageCode); code != "" {
		sb.WriteString("&lr=lang_")
		sb.WriteString(url.QueryEscape(code))
	}
	return sb.String(), nil
}

// BuildSearchURL builds a Google result page URL for query
func BuildSearchURL(query, languageCode string) (string, error) {
	return DefaultBuilder().Build(query, languageCode)
}

// WithPrefix prepends an operator such as "filetype:pdf" to the query text
func WithPrefix(prefix, query string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return query
	}
	return prefix + " " + query
}
