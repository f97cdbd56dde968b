package language

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	errs "linkharvest/pkg/errors"
)

//go:embed languages.yaml
var builtinTable []byte

// Language pairs a display name with the code the search engine expects
type Language struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
}

type tableFile struct {
	Languages []Language `yaml:"languages"`
}

// Table resolves language display names to codes. Lookups ignore case and
// surrounding whitespace.
type Table struct {
	entries []Language
	byName  map[string]int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(builtinTable)
		if err != nil {
			panic(fmt.Sprintf("built-in language table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse reads a table from YAML
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "parse language table", err)
	}

	t := &Table{byName: make(map[string]int, len(f.Languages))}
	for i, l := range f.Languages {
		if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.Code) == "" {
			return nil, errs.Newf(errs.ErrorTypeParsing, "parse language table", "entry %d needs both name and code", i+1)
		}
		t.put(l)
	}
	return t, nil
}

// Load returns the built-in table with the entries of the YAML file at path
// layered on top. An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeConfiguration, "load language table", err).WithURL(path)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, err
	}

	merged := Default().clone()
	for _, l := range overrides.entries {
		merged.put(l)
	}
	return merged, nil
}

// Resolve returns the code for a display name
func (t *Table) Resolve(name string) (string, error) {
	if i, ok := t.byName[key(name)]; ok {
		return t.entries[i].Code, nil
	}
	return "", errs.Newf(errs.ErrorTypeConfiguration, "resolve language", "unknown language %q", name)
}

// Languages returns the entries sorted by display name
func (t *Table) Languages() []Language {
	out := make([]Language, len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) put(l Language) {
	l.Name = strings.TrimSpace(l.Name)
	l.Code = strings.TrimSpace(l.Code)
	if i, ok := t.byName[key(l.Name)]; ok {
		t.entries[i] = l
		return
	}
	t.byName[key(l.Name)] = len(t.entries)
	t.entries = append(t.entries, l)
}

func (t *Table) clone() *Table {
	c := &Table{
		entries: make([]Language, len(t.entries)),
		byName:  make(map[string]int, len(t.byName)),
	}
	copy(c.entries, t.entries)
	for k, v := range t.byName {
		c.byName[k] = v
	}
	return c
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
