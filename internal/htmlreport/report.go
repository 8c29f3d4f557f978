// Package htmlreport renders the CI index page: one table row per notebook
// run, linking to the per-notebook HTML artifacts, plus the session
// metadata.
package htmlreport

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/profile"
	"github.com/chris-collard/fidle/internal/report"
)

var indexTemplate = template.Must(template.New("index").Parse(`<html>
    <head><title>FIDLE - CI Report</title></head>
    <body>
    <style>
        body{
              font-family: sans-serif;
        }
        div.title{
            font-size: 1.4em;
            font-weight: bold;
            padding: 40px 0px 10px 0px; }
        a{
            color: SteelBlue;
            text-decoration:none;
        }
        table{
              border-collapse : collapse;
              font-size : 0.9em;
        }
        td{
              border-style: solid;
              border-width:  thin;
              border-color:  lightgrey;
              padding: 5px 20px 5px 20px;
        }
        .metadata{ padding: 10px 0px 10px 30px; font-size: 0.9em; }
        .result{ padding: 10px 0px 10px 30px; }
    </style>

        {{.HeaderLogo}}

        <div class='title'>Notebooks performed :</div>
        <div class="result">
            <p>Here is a "correction" of all the notebooks.</p>
            <p>These notebooks have been run on Jean-Zay, on GPU (V100) and the results are proposed here in HTML format.</p>
            <table>
            <tr><th>Directory</th><th>Id</th><th>Notebook</th><th>Start</th><th>Duration</th><th>State</th></tr>
            {{range .Rows}}<tr><td><a href="{{.Dir}}" target="_blank">{{.Dir}}</a></td><td><a href="{{.Link}}" target="_blank">{{.ID}}</a></td><td><a href="{{.Link}}" target="_blank">{{.Src}}</a></td><td>{{.Start}}</td><td>{{.Duration}}</td><td>{{.State}}</td></tr>
            {{end}}</table>
        </div>
        <div class='title'>Metadata :</div>
        <div class="metadata">
            {{range .Metadata}}<b>{{.Name}}</b> : {{.Value}}  <br>
            {{end}}</div>

        {{.FooterLogo}}

        </body>
</html>
`))

type row struct {
	Dir      string
	ID       string
	Src      string
	Link     string
	Start    string
	Duration string
	State    string
}

type metaField struct {
	Name  string
	Value string
}

// Options configures the index report build.
type Options struct {
	ProfilePath string
	TopDir      string
	// HeaderLogo and FooterLogo are optional SVG files inlined at the top
	// and bottom of the page, resolved against TopDir.
	HeaderLogo string
	FooterLogo string
}

// Build renders index.html from the JSON report of a profile, under the
// profile's output_html directory. Nothing is written when the profile
// disables HTML output.
func Build(ctx context.Context, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	p, err := profile.Load(opts.ProfilePath)
	if err != nil {
		return err
	}

	if strings.EqualFold(p.Metadata.OutputHTML, "none") {
		logger.Info("No HTML output is specified in profile, nothing to build.")
		return nil
	}

	doc, err := report.Load(filepath.Join(opts.TopDir, p.Metadata.ReportJSON))
	if err != nil {
		return err
	}

	var rows []row
	for _, id := range doc.IDs() {
		e := doc.Get(id)
		out := e.Out + ".html"
		rows = append(rows, row{
			Dir:      e.Dir,
			ID:       e.ID,
			Src:      e.Src,
			Link:     e.Dir + "/" + out,
			Start:    e.Start,
			Duration: e.Duration,
			State:    e.State,
		})
	}

	data := struct {
		HeaderLogo template.HTML
		FooterLogo template.HTML
		Rows       []row
		Metadata   []metaField
	}{
		HeaderLogo: loadLogo(ctx, opts.TopDir, opts.HeaderLogo),
		FooterLogo: loadLogo(ctx, opts.TopDir, opts.FooterLogo),
		Rows:       rows,
		Metadata:   metaFields(doc.Metadata),
	}

	outDir, err := filepath.Abs(filepath.Join(opts.TopDir, p.Metadata.OutputHTML))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	outFile := filepath.Join(outDir, "index.html")
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outFile, err)
	}
	defer f.Close()

	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("rendering index report: %w", err)
	}
	logger.Info("Saved HTML report.", "path", outFile, "rows", len(rows))
	return nil
}

// loadLogo inlines an SVG logo file. A missing logo is not an error, the
// page just renders without it.
func loadLogo(ctx context.Context, topDir, path string) template.HTML {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(topDir, path))
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Logo not found, skipped.", "path", path)
		return ""
	}
	return template.HTML(data)
}

// metaFields flattens the report metadata into name/value pairs in display
// order.
func metaFields(m report.Meta) []metaField {
	fields := []metaField{
		{"Version", m.Version},
		{"Description", m.Description},
		{"Output_Tag", m.OutputTag},
		{"Save_Figs", fmt.Sprintf("%v", m.SaveFigs)},
		{"Output_Ipynb", m.OutputIpynb},
		{"Output_Html", m.OutputHTML},
		{"Report_Json", m.ReportJSON},
		{"Report_Error", m.ReportError},
		{"Host", m.Host},
		{"Profile", m.Profile},
		{"Reseted", fmt.Sprintf("%v", m.Reseted)},
		{"Start", m.Start},
		{"End", m.End},
		{"Duration", m.Duration},
	}
	out := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
