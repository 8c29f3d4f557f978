// Package notebook reads, writes, executes and exports Jupyter notebooks.
// The on-disk model covers the nbformat v4 fields the pipeline touches;
// cell outputs are kept as raw JSON so executed notebooks round-trip without
// loss.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cell types.
const (
	CellMarkdown = "markdown"
	CellCode     = "code"
	CellRaw      = "raw"
)

// Notebook is an nbformat v4 document.
type Notebook struct {
	Cells         []*Cell        `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is a single notebook cell. Outputs and the execution count are kept
// raw: the pipeline never interprets them beyond HTML export.
type Cell struct {
	ID             string            `json:"id,omitempty"`
	Type           string            `json:"cell_type"`
	Metadata       map[string]any    `json:"metadata"`
	Source         Source            `json:"source"`
	Outputs        []json.RawMessage `json:"outputs,omitempty"`
	ExecutionCount json.RawMessage   `json:"execution_count,omitempty"`
}

// Source is a cell source. nbformat allows both a plain string and a list of
// lines; decoding accepts either, encoding always writes a single string.
type Source string

// UnmarshalJSON accepts a string or a list of line strings.
func (s *Source) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Source(str)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source must be a string or a list of strings: %w", err)
	}
	*s = Source(strings.Join(lines, ""))
	return nil
}

// Read loads a notebook file.
func Read(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook %s: %w", path, err)
	}
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parsing notebook %s: %w", path, err)
	}
	return &nb, nil
}

// Write saves a notebook file, creating parent directories with the same
// permissions the rest of the pipeline uses for artifacts.
func Write(nb *Notebook, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating notebook directory: %w", err)
	}
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return fmt.Errorf("encoding notebook: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing notebook %s: %w", path, err)
	}
	return nil
}
