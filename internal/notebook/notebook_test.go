package notebook

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSourceDecode(t *testing.T) {
	t.Parallel()

	var fromString Source
	require.NoError(t, json.Unmarshal([]byte(`"print('hi')"`), &fromString))
	require.Equal(t, Source("print('hi')"), fromString)

	var fromList Source
	require.NoError(t, json.Unmarshal([]byte(`["import os\n","print(os.getcwd())"]`), &fromList))
	require.Equal(t, Source("import os\nprint(os.getcwd())"), fromList)

	var bad Source
	require.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestReadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{
 "cells": [
  {
   "cell_type": "markdown",
   "metadata": {},
   "source": ["# Title\n", "Some **course** text."]
  },
  {
   "cell_type": "code",
   "execution_count": 1,
   "metadata": {},
   "outputs": [
    {"output_type": "stream", "name": "stdout", "text": ["hello\n"]}
   ],
   "source": "print('hello')"
  }
 ],
 "metadata": {"kernelspec": {"name": "python3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`
	dir := t.TempDir()
	src := filepath.Join(dir, "01-DCGAN.ipynb")
	require.NoError(t, os.WriteFile(src, []byte(raw), 0o644))

	nb, err := Read(src)
	require.NoError(t, err)
	require.Len(t, nb.Cells, 2)
	require.Equal(t, CellMarkdown, nb.Cells[0].Type)
	require.Equal(t, Source("# Title\nSome **course** text."), nb.Cells[0].Source)
	require.Equal(t, 4, nb.NBFormat)

	out := filepath.Join(dir, "run", "01-DCGAN==ci==.ipynb")
	require.NoError(t, Write(nb, out))

	reloaded, err := Read(out)
	require.NoError(t, err)

	// Raw outputs survive the round trip semantically, not byte for byte:
	// re-encoding reindents them.
	compactRaw := cmp.Transformer("compact", func(in json.RawMessage) string {
		var buf bytes.Buffer
		if err := json.Compact(&buf, in); err != nil {
			return string(in)
		}
		return buf.String()
	})
	if diff := cmp.Diff(nb, reloaded, compactRaw); diff != "" {
		t.Fatalf("notebook did not round-trip (-want +got):\n%s", diff)
	}
}

func TestExportHTML(t *testing.T) {
	t.Parallel()

	nb := &Notebook{
		NBFormat: 4,
		Cells: []*Cell{
			{Type: CellMarkdown, Source: "<h1>DCGAN</h1>"},
			{
				Type:   CellCode,
				Source: "print('loss')",
				Outputs: []json.RawMessage{
					json.RawMessage(`{"output_type":"stream","name":"stdout","text":"loss: 0.69\n"}`),
					json.RawMessage(`{"output_type":"display_data","data":{"image/png":"aW1n\n"}}`),
				},
			},
			{
				Type:   CellCode,
				Source: "raise RuntimeError('boom')",
				Outputs: []json.RawMessage{
					json.RawMessage(`{"output_type":"error","ename":"RuntimeError","evalue":"boom","traceback":["Traceback line"]}`),
				},
			},
		},
	}

	html, err := ExportHTML(nb, "01-DCGAN==ci==")
	require.NoError(t, err)

	require.Contains(t, html, "<title>01-DCGAN==ci==</title>")
	require.Contains(t, html, "<h1>DCGAN</h1>")
	require.Contains(t, html, "print(&#39;loss&#39;)")
	require.Contains(t, html, "loss: 0.69")
	require.Contains(t, html, `src="data:image/png;base64,aW1n"`)
	require.Contains(t, html, `<pre class="error">Traceback line</pre>`)
}

func TestExportHTMLTextPlainResult(t *testing.T) {
	t.Parallel()

	nb := &Notebook{
		Cells: []*Cell{{
			Type:   CellCode,
			Source: "1 + 1",
			Outputs: []json.RawMessage{
				json.RawMessage(`{"output_type":"execute_result","data":{"text/plain":["2"]}}`),
			},
		}},
	}

	html, err := ExportHTML(nb, "calc")
	require.NoError(t, err)
	require.Contains(t, html, `<pre class="output">2</pre>`)
}
