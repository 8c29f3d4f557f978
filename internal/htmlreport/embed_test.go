package htmlreport

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const logoSVG = `<svg xmlns="http://www.w3.org/2000/svg"><rect width="10" height="10"/></svg>`

func TestBase64Image(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logo.svg")
	require.NoError(t, os.WriteFile(path, []byte(logoSVG), 0o644))

	uri, err := Base64Image(path)
	require.NoError(t, err)
	require.Equal(t, "data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString([]byte(logoSVG)), uri)

	_, err = Base64Image(filepath.Join(t.TempDir(), "missing.svg"))
	require.Error(t, err)
}

func TestEmbedImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "header.svg"), []byte(logoSVG), 0o644))

	html := `<p>intro</p>
<img width="800px" src="img/header.svg">
<img src="data:image/png;base64,QUJD">
<img src="img/missing.svg">`

	got := EmbedImages(html, dir)

	require.Contains(t, got, `src="data:image/svg+xml;base64,`)
	require.NotContains(t, got, `src="img/header.svg"`)
	// Already-embedded and unreadable sources stay as they are.
	require.Contains(t, got, `src="data:image/png;base64,QUJD"`)
	require.Contains(t, got, `src="img/missing.svg"`)
}
