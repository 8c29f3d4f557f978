package catalog

import (
	"fmt"
	"regexp"
)

// Tag replaces the region delimited by <!-- NAME_BEGIN --> and
// <!-- NAME_END --> in a document with the given text, keeping the markers.
// It is used to refresh generated sections of README-style documents. The
// document is returned unchanged when the markers are absent.
func Tag(name, text, document string) string {
	begin := fmt.Sprintf("<!-- %s_BEGIN -->", name)
	end := fmt.Sprintf("<!-- %s_END -->", name)

	re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(begin) + `.*` + regexp.QuoteMeta(end))
	return re.ReplaceAllString(document, begin+"\n"+text+"\n"+end)
}
