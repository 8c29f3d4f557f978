package htmlreport

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	imgTagRe = regexp.MustCompile(`<img [^>]*>`)
	srcRe    = regexp.MustCompile(`src=['"]([^'"]*)['"]`)
)

// Base64Image reads an image file and returns it as a base64 data URI.
// Course headers and footers are SVG, hence the media type.
func Base64Image(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// EmbedImages rewrites the <img src="..."> references of an HTML fragment as
// base64 data URIs, resolving relative sources against baseDir. Sources that
// are already data URIs, or files that cannot be read, are left untouched.
func EmbedImages(html, baseDir string) string {
	for _, imgTag := range imgTagRe.FindAllString(html, -1) {
		m := srcRe.FindStringSubmatch(imgTag)
		if m == nil {
			continue
		}
		src := m[1]
		if strings.HasPrefix(src, "data:") {
			continue
		}
		embedded, err := Base64Image(filepath.Join(baseDir, src))
		if err != nil {
			continue
		}
		html = strings.ReplaceAll(html, imgTag, strings.ReplaceAll(imgTag, src, embedded))
	}
	return html
}
