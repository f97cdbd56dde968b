package language

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "linkharvest/pkg/errors"
)

func TestDefaultTableResolve(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		code string
	}{
		{"English", "en"},
		{"Dutch", "nl"},
		{"Hebrew", "iw"},
		{"Filipino", "tl"},
		{"Norwegian", "no"},
		{"Chinese (Traditional)", "zh-TW"},
		{"Kurdish (Soranî)", "ckb"},
		{"Bork, bork, bork!", "xx-bork"},
		{"Spanish (Latin American)", "es-419"},
		{"  german ", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := table.Resolve(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestResolveUnknownIsConfigurationError(t *testing.T) {
	_, err := Default().Resolve("Elvish")
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Contains(t, err.Error(), `"Elvish"`)
}

func TestLanguagesSorted(t *testing.T) {
	langs := Default().Languages()
	require.Equal(t, Default().Len(), len(langs))
	assert.Equal(t, "Afrikaans", langs[0].Name)
	assert.Equal(t, "Zulu", langs[len(langs)-1].Name)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	content := `languages:
  - name: English
    code: en-GB
  - name: Elvish
    code: xx-elvish
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := Load(path)
	require.NoError(t, err)

	code, err := table.Resolve("English")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", code)

	code, err = table.Resolve("elvish")
	require.NoError(t, err)
	assert.Equal(t, "xx-elvish", code)

	assert.Equal(t, Default().Len()+1, table.Len())

	// The built-in table is not modified
	code, _ = Default().Resolve("English")
	assert.Equal(t, "en", code)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsConfiguration(err))

	_, err = Parse([]byte("languages:\n  - name: Nameless\n"))
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestBuildSearchURL(t *testing.T) {
	raw, err := BuildSearchURL("site:example.com test", "")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", u.Host)
	assert.Equal(t, "/search", u.Path)
	assert.Equal(t, "site:example.com test", u.Query().Get("q"))
	assert.Equal(t, "en", u.Query().Get("hl"))
	assert.False(t, u.Query().Has("lr"))

	raw, err = BuildSearchURL("golang & rust", "nl")
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "golang & rust", u.Query().Get("q"))
	assert.Equal(t, "lang_nl", u.Query().Get("lr"))
	assert.Equal(t, "en", u.Query().Get("hl"))
}

func TestBuildRejectsEmptyQuery(t *testing.T) {
	_, err := BuildSearchURL("   ", "")
	assert.True(t, errs.IsConfiguration(err))
}

func TestBuilderCustomBase(t *testing.T) {
	b := URLBuilder{BaseURL: "http://127.0.0.1:8080/search", InterfaceLanguage: "de"}
	raw, err := b.Build("q", "fr")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/search?q=q&hl=de&lr=lang_fr", raw)
}

func TestWithPrefix(t *testing.T) {
	assert.Equal(t, "filetype:pdf golang", WithPrefix("filetype:pdf", "golang"))
	assert.Equal(t, "golang", WithPrefix("  ", "golang"))
}
