// Package report maintains the CI session report: a JSON file updated
// incrementally while a profile runs, plus an error file listing the
// notebooks that failed. Every mutation is a full load/mutate/store cycle so
// an interrupted session still leaves a readable partial report on disk.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chris-collard/fidle/internal/ctxlog"
)

// MetadataKey is the reserved report key holding the session metadata.
const MetadataKey = "_metadata_"

// Unfinished marks report fields for runs (or the session) still in flight.
// Report consumers grep for this literal, keep it stable.
const Unfinished = "Unfinished..."

// Run states.
const (
	StateOK    = "ok"
	StateError = "ERROR"
)

// Meta is the `_metadata_` section of the report.
type Meta struct {
	Version         string            `json:"version"`
	Description     string            `json:"description,omitempty"`
	OutputTag       string            `json:"output_tag"`
	SaveFigs        bool              `json:"save_figs"`
	OutputIpynb     string            `json:"output_ipynb"`
	OutputHTML      string            `json:"output_html"`
	ReportJSON      string            `json:"report_json"`
	ReportError     string            `json:"report_error"`
	EnvironmentVars map[string]string `json:"environment_vars,omitempty"`
	Host            string            `json:"host"`
	Profile         string            `json:"profile"`
	Reseted         bool              `json:"reseted"`
	Start           string            `json:"start"`
	End             string            `json:"end"`
	Duration        string            `json:"duration"`
}

// Entry is the report record for one notebook run.
type Entry struct {
	ID       string `json:"id"`
	Dir      string `json:"dir"`
	Src      string `json:"src"`
	Out      string `json:"out"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
	State    string `json:"state"`
}

// Document is the in-memory form of the report file. Run entries keep their
// insertion order through marshal/unmarshal round trips.
type Document struct {
	Metadata Meta

	order   []string
	entries map[string]*Entry
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{entries: make(map[string]*Entry)}
}

// Set inserts or replaces the entry for a run id.
func (d *Document) Set(id string, e *Entry) {
	if _, exists := d.entries[id]; !exists {
		d.order = append(d.order, id)
	}
	d.entries[id] = e
}

// Get returns the entry for a run id, or nil.
func (d *Document) Get(id string) *Entry { return d.entries[id] }

// IDs returns the run ids in insertion order.
func (d *Document) IDs() []string { return append([]string(nil), d.order...) }

// Len returns the number of run entries.
func (d *Document) Len() int { return len(d.order) }

// MarshalJSON encodes the document as a single JSON object, metadata first,
// then the run entries in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writePair := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writePair(MetadataKey, d.Metadata); err != nil {
		return nil, err
	}
	for _, id := range d.order {
		buf.WriteByte(',')
		if err := writePair(id, d.entries[id]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the document, preserving the run entry order found
// in the file.
func (d *Document) UnmarshalJSON(data []byte) error {
	d.order = nil
	d.entries = make(map[string]*Entry)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("report: expected object key, got %v", keyTok)
		}

		if key == MetadataKey {
			if err := dec.Decode(&d.Metadata); err != nil {
				return fmt.Errorf("report: decoding metadata: %w", err)
			}
			continue
		}

		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("report: decoding entry %q: %w", key, err)
		}
		d.Set(key, &e)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Report is the file-backed CI report.
type Report struct {
	path    string
	errPath string
}

// Open initializes the report files for a session. When reset is false and a
// report file already exists, its entries are reloaded so several partial
// sessions can fill one report; otherwise the report starts empty. Any stale
// error file is removed either way.
func Open(ctx context.Context, path, errPath string, meta Meta, reset bool) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	absErrPath, err := filepath.Abs(errPath)
	if err != nil {
		return nil, err
	}
	r := &Report{path: absPath, errPath: absErrPath}

	logger.Info("Init report", "report_file", r.path, "error_file", r.errPath)

	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	doc := NewDocument()
	if !reset {
		if existing, err := load(r.path); err == nil {
			doc = existing
			logger.Info("Report reloaded", "entries", doc.Len())
		}
	}

	meta.Reseted = reset
	doc.Metadata = meta

	if err := r.store(doc); err != nil {
		return nil, err
	}

	if err := os.Remove(r.errPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing error file: %w", err)
	}
	return r, nil
}

// Path returns the absolute path of the JSON report file.
func (r *Report) Path() string { return r.path }

// ErrPath returns the absolute path of the error file.
func (r *Report) ErrPath() string { return r.errPath }

// Begin records that a run has started. The entry is written with state
// Unfinished, and the session end markers are reset so a crash mid-run is
// visible in the report.
func (r *Report) Begin(runID string, e Entry) error {
	doc, err := load(r.path)
	if err != nil {
		return err
	}

	e.End = ""
	e.Duration = Unfinished
	e.State = Unfinished
	doc.Set(runID, &e)

	doc.Metadata.End = Unfinished
	doc.Metadata.Duration = Unfinished

	return r.store(doc)
}

// Finish completes a run entry. The output name is rewritten because it
// changes when the run failed.
func (r *Report) Finish(runID, out, end, duration string, ok bool) error {
	doc, err := load(r.path)
	if err != nil {
		return err
	}

	e := doc.Get(runID)
	if e == nil {
		return fmt.Errorf("report: run %q was never started", runID)
	}
	e.End = end
	e.Duration = duration
	e.Out = out
	if ok {
		e.State = StateOK
	} else {
		e.State = StateError
	}

	if err := r.store(doc); err != nil {
		return err
	}

	if !ok {
		f, err := os.OpenFile(r.errPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("opening error file: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintf(f, "See : %s/%s \n", e.Dir, e.Out); err != nil {
			return fmt.Errorf("appending to error file: %w", err)
		}
	}
	return nil
}

// Complete stamps the session end and duration in the metadata.
func (r *Report) Complete(end, duration string) error {
	doc, err := load(r.path)
	if err != nil {
		return err
	}
	doc.Metadata.End = end
	doc.Metadata.Duration = duration
	return r.store(doc)
}

// Load reads a report document from a file.
func Load(path string) (*Document, error) {
	return load(path)
}

func load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return doc, nil
}

func (r *Report) store(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", r.path, err)
	}
	return nil
}
