package htmlreport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chris-collard/fidle/internal/report"
	"github.com/chris-collard/fidle/internal/testutil"
)

func writeReport(t *testing.T, path string) {
	t.Helper()

	meta := report.Meta{
		Version:    "1.0",
		OutputTag:  "==ci==",
		OutputHTML: "fidle/html",
		Host:       "jean-zay",
		Profile:    "ci.yml",
		Start:      "01/03/24 10:00:00",
		End:        "01/03/24 12:00:00",
		Duration:   "2:00:00",
	}
	r, err := report.Open(context.Background(), path, path+".err", meta, true)
	require.NoError(t, err)
	require.NoError(t, r.Begin("Nb_GAN1", report.Entry{
		ID: "GAN1", Dir: "GAN", Src: "01-DCGAN.ipynb",
		Start: "01/03/24 10:00:00",
	}))
	require.NoError(t, r.Finish("Nb_GAN1", "01-DCGAN==ci==", "01/03/24 10:30:00", "0:30:00", true))
	require.NoError(t, r.Complete("01/03/24 12:00:00", "2:00:00"))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	topDir := t.TempDir()
	writeReport(t, filepath.Join(topDir, "fidle", "logs", "ci_report.json"))
	testutil.WriteFiles(t, topDir, map[string]string{
		"ci.yml": `_metadata_:
  version: '1.0'
  output_tag: ==ci==
  save_figs: true
  output_ipynb: fidle/done
  output_html: fidle/html
  report_json: fidle/logs/ci_report.json
  report_error: fidle/logs/ci_ERROR.txt
`,
		"img/header.svg": logoSVG,
	})

	err := Build(context.Background(), Options{
		ProfilePath: filepath.Join(topDir, "ci.yml"),
		TopDir:      topDir,
		HeaderLogo:  "img/header.svg",
		FooterLogo:  "img/missing.svg",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(topDir, "fidle", "html", "index.html"))
	require.NoError(t, err)
	html := string(data)

	require.Contains(t, html, `<a href="GAN/01-DCGAN==ci==.html" target="_blank">GAN1</a>`)
	require.Contains(t, html, "<td>0:30:00</td>")
	require.Contains(t, html, "<td>ok</td>")
	require.Contains(t, html, logoSVG)
	require.Contains(t, html, "<b>Host</b> : jean-zay")
}

func TestBuildNoHTMLOutput(t *testing.T) {
	t.Parallel()

	topDir := t.TempDir()
	testutil.WriteFiles(t, topDir, map[string]string{
		"ci.yml": `_metadata_:
  version: '1.0'
  output_tag: ==ci==
  save_figs: false
  output_ipynb: fidle/done
  output_html: none
  report_json: fidle/logs/ci_report.json
  report_error: fidle/logs/ci_ERROR.txt
`,
	})

	err := Build(context.Background(), Options{
		ProfilePath: filepath.Join(topDir, "ci.yml"),
		TopDir:      topDir,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(topDir, "none", "index.html"))
	require.True(t, os.IsNotExist(err))
}
