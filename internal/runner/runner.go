// Package runner executes a notebook profile: for each entry it exports the
// parameter overrides as environment variables, runs the notebook, records
// the outcome in the CI report and writes the ipynb/HTML artifacts.
// Execution is deliberately sequential; a failing notebook is reported and
// the session moves on to the next entry.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/htmlreport"
	"github.com/chris-collard/fidle/internal/notebook"
	"github.com/chris-collard/fidle/internal/profile"
	"github.com/chris-collard/fidle/internal/report"
)

// ErrorTag replaces the output tag of a failed run, so the artifact name
// itself flags the failure.
const ErrorTag = "==ERROR=="

// Chrono ids for the session and the current notebook.
const (
	chronoMain = "main"
	chronoNb   = "nb"
)

// Options configures a profile run.
type Options struct {
	ProfilePath string
	TopDir      string
	// Filter keeps only the run ids matching this anchored regexp.
	// Empty means everything.
	Filter string
	// Reset discards any previous report instead of extending it.
	Reset bool
}

// Runner drives profile execution. The notebook executor is injected so
// tests run without a jupyter installation.
type Runner struct {
	exec notebook.Executor
}

// New returns a Runner using the given notebook executor.
func New(exec notebook.Executor) *Runner {
	return &Runner{exec: exec}
}

// RunProfile executes every entry of a profile in order.
func (r *Runner) RunProfile(ctx context.Context, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	p, err := profile.Load(opts.ProfilePath)
	if err != nil {
		return err
	}
	logger.Info("Profile loaded.", "path", opts.ProfilePath, "entries", len(p.Runs))

	filter := opts.Filter
	if filter == "" {
		filter = ".*"
	}
	filterRe, err := regexp.Compile("^(?:" + filter + ")")
	if err != nil {
		return fmt.Errorf("invalid filter %q: %w", opts.Filter, err)
	}

	chrono := report.NewChrono()
	chrono.Start(chronoMain)

	host, _ := os.Hostname()
	meta := sessionMeta(&p.Metadata, host, opts.ProfilePath)
	meta.Start = chrono.StartedAt(chronoMain)

	rep, err := report.Open(ctx,
		filepath.Join(opts.TopDir, p.Metadata.ReportJSON),
		filepath.Join(opts.TopDir, p.Metadata.ReportError),
		meta, opts.Reset)
	if err != nil {
		return err
	}

	if err := exportEnvironment(ctx, p.Metadata.EnvironmentVars); err != nil {
		return err
	}

	logger.Info("Start running process.")
	for _, run := range p.Runs {
		if !filterRe.MatchString(run.ID) {
			continue
		}
		if err := r.runOne(ctx, p, rep, chrono, run, opts.TopDir); err != nil {
			return fmt.Errorf("run %s: %w", run.ID, err)
		}
	}
	logger.Info("End of running process.")

	chrono.Stop(chronoMain)
	if err := rep.Complete(chrono.EndedAt(chronoMain), chrono.Delay(chronoMain)); err != nil {
		return err
	}
	logger.Info("Session completed.", "duration", chrono.Delay(chronoMain))
	return nil
}

// runOne executes a single profile entry and records it in the report. An
// execution failure is recorded, not returned; only infrastructure errors
// (report I/O, cancellation) abort the session.
func (r *Runner) runOne(ctx context.Context, p *profile.Profile, rep *report.Report, chrono *report.Chrono, run profile.Run, topDir string) error {
	logger := ctxlog.FromContext(ctx).With("run", run.ID)
	entry := run.Entry

	outputName := entry.OutputName(p.Metadata.OutputTag)

	unset, err := exportOverrides(ctx, entry)
	if err != nil {
		return err
	}
	defer func() {
		for _, name := range unset {
			os.Unsetenv(name)
		}
	}()

	chrono.Start(chronoNb)
	if err := rep.Begin(run.ID, report.Entry{
		ID:    entry.NotebookID,
		Dir:   entry.NotebookDir,
		Src:   entry.NotebookSrc,
		Out:   outputName,
		Start: chrono.StartedAt(chronoNb),
	}); err != nil {
		return err
	}

	logger.Info("Run notebook...", "src", entry.NotebookSrc)
	nb, execErr := r.exec.Execute(ctx, filepath.Join(topDir, entry.NotebookDir), entry.NotebookSrc)

	happyEnd := execErr == nil
	if execErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(execErr, notebook.ErrExecution) {
			return execErr
		}
		outputName = strings.TrimSuffix(entry.NotebookSrc, filepath.Ext(entry.NotebookSrc)) + ErrorTag
		logger.Error("An error occurred while running the notebook.",
			"error", execErr, "see", outputName)
	}

	chrono.Stop(chronoNb)
	if err := rep.Finish(run.ID, outputName, chrono.EndedAt(chronoNb), chrono.Delay(chronoNb), happyEnd); err != nil {
		return err
	}
	logger.Info("Notebook done.", "duration", chrono.Delay(chronoNb), "ok", happyEnd)

	if nb == nil {
		// Nothing came back, the failure is already in the report.
		return nil
	}

	// Embed <img src> references of the markdown cells. Fast, and enough
	// for the header/footer logos.
	for _, cell := range nb.Cells {
		if cell.Type == notebook.CellMarkdown {
			cell.Source = notebook.Source(htmlreport.EmbedImages(string(cell.Source), topDir))
		}
	}

	if !strings.EqualFold(p.Metadata.OutputIpynb, "none") {
		saveDir, err := filepath.Abs(filepath.Join(topDir, p.Metadata.OutputIpynb, entry.NotebookDir))
		if err != nil {
			return err
		}
		path := filepath.Join(saveDir, outputName+".ipynb")
		if err := notebook.Write(nb, path); err != nil {
			return err
		}
		logger.Info("Saved ipynb.", "path", path)
	}

	if !strings.EqualFold(p.Metadata.OutputHTML, "none") {
		body, err := notebook.ExportHTML(nb, outputName)
		if err != nil {
			return err
		}
		saveDir, err := filepath.Abs(filepath.Join(topDir, p.Metadata.OutputHTML, entry.NotebookDir))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(saveDir, 0o750); err != nil {
			return fmt.Errorf("creating html directory: %w", err)
		}
		path := filepath.Join(saveDir, outputName+".html")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing html %s: %w", path, err)
		}
		logger.Info("Saved html.", "path", path)
	}

	return nil
}

// sessionMeta copies the profile metadata into the report metadata and
// stamps the session context.
func sessionMeta(m *profile.Metadata, host, profilePath string) report.Meta {
	return report.Meta{
		Version:         m.Version,
		Description:     m.Description,
		OutputTag:       m.OutputTag,
		SaveFigs:        m.SaveFigs,
		OutputIpynb:     m.OutputIpynb,
		OutputHTML:      m.OutputHTML,
		ReportJSON:      m.ReportJSON,
		ReportError:     m.ReportError,
		EnvironmentVars: m.EnvironmentVars,
		Host:            host,
		Profile:         profilePath,
	}
}

// exportEnvironment sets the session-wide environment variables.
func exportEnvironment(ctx context.Context, vars map[string]string) error {
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := os.Setenv(name, vars[name]); err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		logger.Info("Set environment var.", "name", name, "value", vars[name])
	}
	return nil
}

// exportOverrides sets the per-run override variables and returns the names
// to unset afterwards. The value "default" keeps the notebook's own default.
func exportOverrides(ctx context.Context, entry profile.Entry) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	var unset []string
	for _, ov := range entry.Overrides {
		if ov.Value == "default" {
			continue
		}
		envName := OverrideEnvName(entry.NotebookID, ov.Name)
		if err := os.Setenv(envName, ov.Value); err != nil {
			return unset, fmt.Errorf("setting %s: %w", envName, err)
		}
		unset = append(unset, envName)
		logger.Info("Override.", "name", envName, "value", ov.Value)
	}
	return unset, nil
}

// OverrideEnvName builds the environment variable name carrying a parameter
// override into a notebook, e.g. FIDLE_OVERRIDE_GAN01_batch_size.
func OverrideEnvName(notebookID, param string) string {
	return fmt.Sprintf("FIDLE_OVERRIDE_%s_%s", strings.ToUpper(notebookID), param)
}
