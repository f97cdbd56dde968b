package sources

import (
	"bufio"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	errs "linkharvest/pkg/errors"
)

// uriPattern matches a scheme followed by a run of characters up to the
// next whitespace or double quote
var uriPattern = regexp.MustCompile(`(?P<scheme>[A-Za-z][A-Za-z0-9+.\-]*):[^\s"]+`)

// maxLineBytes bounds a single input line
const maxLineBytes = 1 << 20

// Extract returns every absolute URI found in text, in order of appearance.
// Any scheme is accepted, so "about:config" and "magnet:?xt=..." are found
// alongside web links.
func Extract(text string) []string {
	var out []string
	for _, m := range uriPattern.FindAllString(text, -1) {
		u, err := url.Parse(m)
		if err != nil || !u.IsAbs() {
			continue
		}
		if u.Opaque == "" && u.Host == "" && u.Path == "" && u.RawQuery == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ExtractFrom reads r line by line and extracts the URIs of every line
func ExtractFrom(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var out []string
	for scanner.Scan() {
		out = append(out, Extract(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return out, errs.New(errs.ErrorTypeParsing, "read uris", err)
	}
	return out, nil
}

// ReadFile extracts the URIs in the file at path; "-" reads standard input
func ReadFile(path string) ([]string, error) {
	if path == "-" {
		return ExtractFrom(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeFilesystem, "open uri list", err).WithURL(path)
	}
	defer f.Close()
	return ExtractFrom(f)
}

// WebOnly keeps the http and https URIs
func WebOnly(uris []string) []string {
	out := make([]string, 0, len(uris))
	for _, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			out = append(out, raw)
		}
	}
	return out
}

// Unique drops repeated entries keeping the first occurrence
func Unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
