package catalog

import (
	"context"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/profile"
)

// DefaultOutputTag is the artifact tag of generated default profiles.
const DefaultOutputTag = "==ci=="

// DefaultProfile turns a catalog into a runnable profile skeleton: one entry
// per catalog item with all overridable parameters set to "default", and
// placeholder metadata the user is expected to edit.
func DefaultProfile(c *Catalog, outputTag string) *profile.Profile {
	if outputTag == "" {
		outputTag = DefaultOutputTag
	}

	p := &profile.Profile{
		Metadata: profile.Metadata{
			Version:     "1.0",
			Description: "Default generated profile",
			OutputTag:   outputTag,
			SaveFigs:    true,
			OutputIpynb: "<directory for ipynb>",
			OutputHTML:  "<directory for html>",
			ReportJSON:  "<report json file>",
			ReportError: "<error file>",
		},
	}

	for _, id := range c.IDs() {
		about := c.Get(id)
		entry := profile.Entry{
			NotebookID:  about.ID,
			NotebookDir: about.Dirname,
			NotebookSrc: about.Basename,
			NotebookTag: "default",
		}
		for _, name := range about.Overrides {
			entry.Overrides = append(entry.Overrides, profile.Override{Name: name, Value: "default"})
		}
		p.Runs = append(p.Runs, profile.Run{ID: "Nb_" + about.ID, Entry: entry})
	}
	return p
}

// BuildDefaultProfile loads a catalog file and writes the generated default
// profile.
func BuildDefaultProfile(ctx context.Context, catalogPath, outPath, outputTag string) error {
	logger := ctxlog.FromContext(ctx)

	cat, err := LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	p := DefaultProfile(cat, outputTag)
	if err := p.Save(outPath); err != nil {
		return err
	}
	logger.Info("Default profile saved.", "path", outPath, "entries", len(p.Runs))
	return nil
}
