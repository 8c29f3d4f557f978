package notebook

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// exportTemplate is a single-page "classic" style export: markdown cells are
// injected as-is (course content is authored in this repository and already
// HTML-heavy), code cells and text outputs go into <pre> blocks, image
// outputs become inline <img> tags.
var exportTemplate = template.Must(template.New("notebook").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
    body { font-family: sans-serif; margin: 40px auto; max-width: 960px; }
    pre.input { background: #f7f7f7; border: 1px solid #cfcfcf; padding: 8px 12px; overflow-x: auto; }
    pre.output { padding: 4px 12px; overflow-x: auto; }
    pre.error { color: darkred; padding: 4px 12px; overflow-x: auto; }
    div.cell { margin: 12px 0px; }
    img.output { max-width: 100%; }
</style>
</head>
<body>
{{range .Cells}}<div class="cell">
{{if .Markdown}}{{.Markdown}}
{{else}}<pre class="input">{{.Source}}</pre>
{{range .Outputs}}{{if .DataURI}}<img class="output" src="{{.DataURI}}">
{{else if .Error}}<pre class="error">{{.Text}}</pre>
{{else}}<pre class="output">{{.Text}}</pre>
{{end}}{{end}}{{end}}</div>
{{end}}</body>
</html>
`))

type outputView struct {
	Text    string
	DataURI template.URL
	Error   bool
}

type cellView struct {
	Markdown template.HTML
	Source   string
	Outputs  []outputView
}

// rawOutput covers the nbformat output variants the export cares about.
type rawOutput struct {
	OutputType string                     `json:"output_type"`
	Text       Source                     `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
	Ename      string                     `json:"ename"`
	Evalue     string                     `json:"evalue"`
	Traceback  []string                   `json:"traceback"`
}

// ExportHTML renders a notebook as a standalone HTML page.
func ExportHTML(nb *Notebook, title string) (string, error) {
	var cells []cellView
	for _, cell := range nb.Cells {
		switch cell.Type {
		case CellMarkdown:
			cells = append(cells, cellView{Markdown: template.HTML(cell.Source)})
		case CellCode:
			view := cellView{Source: string(cell.Source)}
			for _, raw := range cell.Outputs {
				out, err := renderOutput(raw)
				if err != nil {
					return "", err
				}
				if out != nil {
					view.Outputs = append(view.Outputs, *out)
				}
			}
			cells = append(cells, view)
		}
	}

	var sb strings.Builder
	err := exportTemplate.Execute(&sb, struct {
		Title string
		Cells []cellView
	}{Title: title, Cells: cells})
	if err != nil {
		return "", fmt.Errorf("rendering notebook html: %w", err)
	}
	return sb.String(), nil
}

func renderOutput(raw json.RawMessage) (*outputView, error) {
	var out rawOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing cell output: %w", err)
	}

	switch out.OutputType {
	case "stream":
		return &outputView{Text: string(out.Text)}, nil
	case "error":
		text := out.Ename + ": " + out.Evalue
		if len(out.Traceback) > 0 {
			text = strings.Join(out.Traceback, "\n")
		}
		return &outputView{Text: text, Error: true}, nil
	case "execute_result", "display_data":
		for _, mime := range []string{"image/png", "image/jpeg"} {
			if data, ok := out.Data[mime]; ok {
				var b64 string
				if err := json.Unmarshal(data, &b64); err != nil {
					return nil, fmt.Errorf("parsing %s output: %w", mime, err)
				}
				uri := "data:" + mime + ";base64," + strings.TrimSpace(b64)
				return &outputView{DataURI: template.URL(uri)}, nil
			}
		}
		if data, ok := out.Data["text/plain"]; ok {
			var text Source
			if err := json.Unmarshal(data, &text); err != nil {
				return nil, fmt.Errorf("parsing text/plain output: %w", err)
			}
			return &outputView{Text: string(text)}, nil
		}
	}
	return nil, nil
}
