// Package profile models the declarative YAML run profiles consumed by the
// CI runner. A profile is a single YAML mapping: a `_metadata_` entry with
// the session configuration, then one entry per notebook run. The order of
// the run entries is the execution order, so decoding and encoding both
// preserve it.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MetadataKey is the reserved profile key holding the session configuration.
const MetadataKey = "_metadata_"

// Metadata is the `_metadata_` section of a profile.
type Metadata struct {
	Version         string            `yaml:"version"`
	Description     string            `yaml:"description,omitempty"`
	OutputTag       string            `yaml:"output_tag"`
	SaveFigs        bool              `yaml:"save_figs"`
	OutputIpynb     string            `yaml:"output_ipynb"`
	OutputHTML      string            `yaml:"output_html"`
	ReportJSON      string            `yaml:"report_json"`
	ReportError     string            `yaml:"report_error"`
	EnvironmentVars map[string]string `yaml:"environment_vars,omitempty"`

	// Stamped by the runner at session start, never present in the source file.
	Host    string `yaml:"host,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// Entry describes one notebook run.
type Entry struct {
	NotebookID  string    `yaml:"notebook_id"`
	NotebookDir string    `yaml:"notebook_dir"`
	NotebookSrc string    `yaml:"notebook_src"`
	NotebookTag string    `yaml:"notebook_tag"`
	Overrides   Overrides `yaml:"overrides,omitempty"`
}

// Run pairs a profile key (the run id) with its entry.
type Run struct {
	ID    string
	Entry Entry
}

// Profile is a fully decoded run profile.
type Profile struct {
	Metadata Metadata
	Runs     []Run
}

// Override is a single parameter override. The value "default" means the
// notebook's own default is kept and no environment variable is exported.
type Override struct {
	Name  string
	Value string
}

// Overrides is an ordered name/value list, serialized as a YAML mapping.
type Overrides []Override

// UnmarshalYAML decodes a YAML mapping while preserving key order.
func (o *Overrides) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("overrides must be a mapping, got %s", value.Tag)
	}
	out := make(Overrides, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var v string
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("override %q: %w", value.Content[i].Value, err)
		}
		out = append(out, Override{Name: value.Content[i].Value, Value: v})
	}
	*o = out
	return nil
}

// MarshalYAML encodes the overrides as a mapping in declaration order.
func (o Overrides) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ov := range o {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: ov.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: ov.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML decodes the top-level profile mapping, keeping run order.
func (p *Profile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("profile must be a mapping, got %s", value.Tag)
	}

	seenMetadata := false
	for i := 0; i < len(value.Content); i += 2 {
		key := value.Content[i].Value
		val := value.Content[i+1]

		if key == MetadataKey {
			if err := val.Decode(&p.Metadata); err != nil {
				return fmt.Errorf("decoding %s: %w", MetadataKey, err)
			}
			seenMetadata = true
			continue
		}

		var e Entry
		if err := val.Decode(&e); err != nil {
			return fmt.Errorf("decoding run %q: %w", key, err)
		}
		p.Runs = append(p.Runs, Run{ID: key, Entry: e})
	}

	if !seenMetadata {
		return fmt.Errorf("profile has no %s entry", MetadataKey)
	}
	return nil
}

// MarshalYAML encodes the profile as a mapping, metadata first.
func (p Profile) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	metaNode := &yaml.Node{}
	if err := metaNode.Encode(p.Metadata); err != nil {
		return nil, err
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: MetadataKey}, metaNode)

	for _, run := range p.Runs {
		entryNode := &yaml.Node{}
		if err := entryNode.Encode(run.Entry); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: run.ID}, entryNode)
	}
	return node, nil
}

// Load reads and decodes a YAML profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &p, nil
}

// Save encodes the profile to a YAML file, creating parent directories.
func (p *Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile %s: %w", path, err)
	}
	return nil
}

// OutputName computes the artifact base name for an entry: the source stem
// plus the entry's own tag, or the session output tag when the entry tag is
// "default".
func (e Entry) OutputName(sessionTag string) string {
	stem := e.NotebookSrc[:len(e.NotebookSrc)-len(filepath.Ext(e.NotebookSrc))]
	if e.NotebookTag == "default" {
		return stem + sessionTag
	}
	return stem + e.NotebookTag
}
