package storage

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"query and fragment", "https://host/path/My File (draft)?x=1#frag", "My_File_(draft)"},
		{"plain pdf", "https://example.com/docs/report.pdf", "report.pdf"},
		{"percent encoded space", "https://example.com/a%20b.pdf", "a_b.pdf"},
		{"encoded separator", "https://example.com/a%2Fb.pdf", "a_b.pdf"},
		{"encoded question mark", "https://example.com/a%3Fb.pdf", "a"},
		{"encoded hash", "https://example.com/file%23part.pdf", "file"},
		{"reserved characters", `https://example.com/a:b*c"d<e>f|g.pdf`, "a_b_c_d_e_f_g.pdf"},
		{"tab whitespace", "https://example.com/a%09b", "a_b"},
		{"trailing slash", "https://example.com/docs/", FallbackName},
		{"host only", "https://example.com", FallbackName},
		{"only query", "https://example.com/?file=a.pdf", FallbackName},
		{"slash in query", "https://example.com/paper.pdf?next=/a/b", "paper.pdf"},
		{"invalid escape kept", "https://example.com/100%.pdf", "100%.pdf"},
		{"unicode", "https://example.com/%C3%BCber.pdf", "über.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.url))
		})
	}
}

func TestSanitizeNameNeverContainsReservedCharacters(t *testing.T) {
	inputs := []string{
		"https://x/%5C%2F%3A%2A%22%3C%3E%7C%20%0A",
		`https://x/a\b`,
		"https://x/..%2F..%2Fetc%2Fpasswd",
		"",
		"not a url at all",
	}
	for _, in := range inputs {
		name := SanitizeName(in)
		assert.NotEmpty(t, name)
		assert.False(t, strings.ContainsAny(name, "\\/:*?\"<>| \t\n\r"), "name %q from %q", name, in)
	}
}

func TestSanitizeNameTruncatesLongNames(t *testing.T) {
	name := SanitizeName("https://x/" + strings.Repeat("é", 300))
	assert.LessOrEqual(t, len(name), maxBaseBytes)
	assert.True(t, strings.HasPrefix(name, "éé"))
}

func TestPendingName(t *testing.T) {
	n := NewNamer(".pdf", CounterToken())

	assert.Equal(t, "My_File_(draft).pdf_1_7.pdf", n.PendingName("My_File_(draft)", 7))
	assert.Equal(t, "report.pdf_2_0.pdf", n.PendingName("report.pdf", 0))
}

func TestCanonicalName(t *testing.T) {
	n := NewNamer("pdf", nil)
	assert.Equal(t, ".pdf", n.Extension())

	tests := []struct {
		in        string
		want      string
		isPending bool
	}{
		{"My_File_(draft).pdf_638412345678901234_12.pdf", "My_File_(draft).pdf", true},
		{"report.pdf_638412345678901234_3.pdf", "report.pdf", true},
		{"Report.PDF_5_3.pdf", "Report.PDF", true},
		{".pdf_1_2.pdf", ".pdf", true},
		{"a_b_c.pdf_1_2.pdf", "a_b_c.pdf", true},
		{"a_b_c_1_2.pdf", "a_b_c_1_2.pdf", false},
		{"minutes_2023_05.pdf", "minutes_2023_05.pdf", false},
		{"paper_1_2.pdf", "paper_1_2.pdf", false},
		{"report.pdf", "report.pdf", false},
		{"notes.pdf_1_2.txt", "notes.pdf_1_2.txt", false},
		{"_1_2.pdf", "_1_2.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, pending := n.CanonicalName(tt.in)
			assert.Equal(t, tt.isPending, pending)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingNamesRoundTripToCanonical(t *testing.T) {
	n := NewNamer(".pdf", nil)
	for _, base := range []string{"x", "report.pdf", "a_1_2", "minutes_2023_05", ".pdf", FallbackName} {
		canonical, pending := n.CanonicalName(n.PendingName(base, 63))
		require.True(t, pending)
		assert.Equal(t, n.withExtension(base), canonical)
	}
}

func TestCanonicalFor(t *testing.T) {
	n := NewNamer(".pdf", nil)
	assert.Equal(t, "My_File_(draft).pdf", n.CanonicalFor("https://host/path/My File (draft)?x=1#frag"))
	assert.Equal(t, "paper.pdf", n.CanonicalFor("https://host/paper.pdf"))
}

func TestNanoTokenUnique(t *testing.T) {
	const goroutines, perGoroutine = 8, 500
	seen := sync.Map{}
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				tok := NanoToken()
				_, dup := seen.LoadOrStore(tok, true)
				assert.False(t, dup, "duplicate token %s", tok)
			}
		}()
	}
	wg.Wait()
}
