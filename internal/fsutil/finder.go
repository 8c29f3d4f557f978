// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// taggedName matches generated artifact names such as "03-GAN==ci==.ipynb".
// Files carrying a tag marker are outputs of a previous run, never sources.
var taggedName = regexp.MustCompile(`==.+?==`)

// ListByExtension returns the names of the regular files directly inside dir
// that end with the given extension, sorted. It does not recurse.
func ListByExtension(dir string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// FindCourseFiles walks the given directories under topDir and returns the
// notebooks and shell scripts they contain, notebooks first, each group
// sorted. Generated artifacts (names containing an ==tag== marker) are
// skipped. Returned paths are relative to topDir.
func FindCourseFiles(topDir string, dirs []string) ([]string, error) {
	var files []string
	for _, d := range dirs {
		for _, ext := range []string{".ipynb", ".sh"} {
			names, err := ListByExtension(filepath.Join(topDir, d), ext)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if taggedName.MatchString(name) {
					continue
				}
				files = append(files, filepath.Join(d, name))
			}
		}
	}
	return files, nil
}
