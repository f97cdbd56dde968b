package storage

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"
)

// FallbackName is used when nothing usable remains of a URL's last segment
const FallbackName = "download"

// maxBaseBytes keeps pending names below common 255 byte filename limits
const maxBaseBytes = 200

// SanitizeName derives a filesystem-safe base name from the last path
// segment of rawURL. The segment is percent-decoded, anything from a '#' or
// '?' onwards is dropped, and path separators, reserved characters and
// whitespace become '_'.
func SanitizeName(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if j := strings.IndexByte(p, '/'); j >= 0 {
			p = p[j:]
		} else {
			p = ""
		}
	}
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}

	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}

	var sb strings.Builder
	for _, r := range p {
		switch {
		case strings.ContainsRune(`\/:*?"<>|`, r), unicode.IsSpace(r):
			sb.WriteByte('_')
		case unicode.IsControl(r), r == utf8.RuneError:
			continue
		default:
			sb.WriteRune(r)
		}
	}

	name := truncate(sb.String(), maxBaseBytes)
	if name == "" {
		return FallbackName
	}
	return name
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// TokenFunc returns a unique, all-digit creation token
type TokenFunc func() string

var lastNano atomic.Int64

// NanoToken returns the current UTC time in nanoseconds, bumped when needed
// so that no two calls in the process return the same value
func NanoToken() string {
	for {
		now := time.Now().UTC().UnixNano()
		last := lastNano.Load()
		if now <= last {
			now = last + 1
		}
		if lastNano.CompareAndSwap(last, now) {
			return strconv.FormatInt(now, 10)
		}
	}
}

// CounterToken returns a TokenFunc yielding 1, 2, 3...
func CounterToken() TokenFunc {
	var n atomic.Int64
	return func() string {
		return strconv.FormatInt(n.Add(1), 10)
	}
}

// Namer builds pending and canonical artifact names for one extension
type Namer struct {
	ext     string
	token   TokenFunc
	pending *regexp.Regexp
}

// NewNamer returns a Namer for ext (for example ".pdf"). A nil token
// defaults to NanoToken.
func NewNamer(ext string, token TokenFunc) *Namer {
	if ext == "" {
		ext = ".pdf"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if token == nil {
		token = NanoToken
	}
	return &Namer{
		ext:   ext,
		token: token,
		// the captured name must already end in ext, so a canonical name
		// that merely carries digits (minutes_2023_05.pdf) never matches
		pending: regexp.MustCompile(`^(.*(?i:` + regexp.QuoteMeta(ext) + `))_\d+_\d+` + regexp.QuoteMeta(ext) + `$`),
	}
}

// Extension returns the artifact extension including the dot
func (n *Namer) Extension() string {
	return n.ext
}

// PendingName returns <base><ext>_<token>_<worker><ext>. A base that
// already ends in the extension does not get a second one before the suffix.
func (n *Namer) PendingName(base string, worker int) string {
	return n.withExtension(base) + "_" + n.token() + "_" + strconv.Itoa(worker) + n.ext
}

// CanonicalName returns the name a pending file is reconciled to and
// whether name is a pending name at all
func (n *Namer) CanonicalName(name string) (string, bool) {
	m := n.pending.FindStringSubmatch(name)
	if m == nil {
		return name, false
	}
	return m[1], true
}

// CanonicalFor returns the canonical name a download of rawURL ends up with
func (n *Namer) CanonicalFor(rawURL string) string {
	return n.withExtension(SanitizeName(rawURL))
}

func (n *Namer) withExtension(base string) string {
	if strings.HasSuffix(strings.ToLower(base), strings.ToLower(n.ext)) {
		return base
	}
	return base + n.ext
}
