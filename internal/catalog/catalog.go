// Package catalog builds the notebook catalog: a JSON index of course
// entries (id, title, description, overridable parameters) scraped from
// tagged comments in notebooks and scripts, plus the default run profile
// generated from it.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/fsutil"
	"github.com/chris-collard/fidle/internal/notebook"
)

var (
	titleRe    = regexp.MustCompile(`(?m)<!-- TITLE -->\s*\[(.*?)\]\s*-\s*(.*)$`)
	descRe     = regexp.MustCompile(`(?m)<!-- DESC -->\s*(.*)$`)
	overrideRe = regexp.MustCompile(`override\((.+?)\)`)
	wordRe     = regexp.MustCompile(`\w+`)
	runDirRe   = regexp.MustCompile(`(?m)run_dir\s*=`)
)

// About holds the metadata extracted for one course file. Files without
// TITLE/DESC tags keep the "??" placeholders.
type About struct {
	ID          string   `json:"id"`
	Dirname     string   `json:"dirname"`
	Basename    string   `json:"basename"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Overrides   []string `json:"overrides"`
}

// Catalog is an ordered id-keyed index of course files.
type Catalog struct {
	order   []string
	entries map[string]*About
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*About)}
}

// Add inserts an entry keyed by its id. A duplicate id replaces the previous
// entry but keeps its position.
func (c *Catalog) Add(a *About) {
	if _, exists := c.entries[a.ID]; !exists {
		c.order = append(c.order, a.ID)
	}
	c.entries[a.ID] = a
}

// Get returns the entry for an id, or nil.
func (c *Catalog) Get(id string) *About { return c.entries[id] }

// IDs returns the entry ids in catalog order.
func (c *Catalog) IDs() []string { return append([]string(nil), c.order...) }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.order) }

// MarshalJSON encodes the catalog as a JSON object in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the catalog, preserving the entry order of the file.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	c.order = nil
	c.entries = make(map[string]*About)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog: expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("catalog: expected object key, got %v", keyTok)
		}
		var a About
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("catalog: decoding entry %q: %w", key, err)
		}
		if a.ID == "" {
			a.ID = key
		}
		c.Add(&a)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// NotebookInfos extracts the catalog metadata of a notebook: the TITLE and
// DESC tags from its markdown cells, and the overridable parameter names
// from override(...) calls and run_dir assignments in its code cells.
func NotebookInfos(topDir, relPath string) (*About, error) {
	about := newAbout(relPath)

	nb, err := notebook.Read(filepath.Join(topDir, relPath))
	if err != nil {
		return nil, err
	}

	overrides := []string{}
	for _, cell := range nb.Cells {
		src := string(cell.Source)
		switch cell.Type {
		case notebook.CellMarkdown:
			applyTags(about, src)
		case notebook.CellCode:
			for _, m := range overrideRe.FindAllStringSubmatch(src, -1) {
				overrides = append(overrides, wordRe.FindAllString(m[1], -1)...)
			}
			if runDirRe.MatchString(src) {
				overrides = append(overrides, "run_dir")
			}
		}
	}
	about.Overrides = overrides
	return about, nil
}

// TextFileInfos extracts the TITLE and DESC tags from a plain text file
// (typically a batch script).
func TextFileInfos(topDir, relPath string) (*About, error) {
	about := newAbout(relPath)

	data, err := os.ReadFile(filepath.Join(topDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}
	applyTags(about, string(data))
	return about, nil
}

func newAbout(relPath string) *About {
	return &About{
		ID:          "??",
		Dirname:     filepath.Dir(relPath),
		Basename:    filepath.Base(relPath),
		Title:       "??",
		Description: "??",
		Overrides:   []string{},
	}
}

func applyTags(about *About, text string) {
	if m := titleRe.FindStringSubmatch(text); m != nil {
		about.ID = strings.TrimSpace(m[1])
		about.Title = strings.TrimSpace(m[2])
	}
	if m := descRe.FindStringSubmatch(text); m != nil {
		about.Description = strings.TrimSpace(m[1])
	}
}

// Scan walks the given course directories and builds the catalog for every
// notebook and script found. Files without tag information are skipped with
// a warning.
func Scan(ctx context.Context, topDir string, dirs []string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindCourseFiles(topDir, dirs)
	if err != nil {
		return nil, err
	}

	cat := New()
	for _, file := range files {
		var about *About
		switch filepath.Ext(file) {
		case ".ipynb":
			about, err = NotebookInfos(topDir, file)
		case ".sh":
			about, err = TextFileInfos(topDir, file)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if about.ID == "??" {
			logger.Warn("File has no tag information, skipped.", "file", file)
			continue
		}
		cat.Add(about)
	}
	return cat, nil
}

// Save writes the catalog JSON file.
func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", path, err)
	}
	return nil
}

// LoadCatalog reads a catalog JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	cat := New()
	if err := json.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return cat, nil
}
