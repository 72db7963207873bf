package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// BuildDescription joins the non-empty textual fields of a course into the
// lowercased document the embedding model was trained on.
func BuildDescription(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		parts = append(parts, lower.String(norm.NFC.String(f)))
	}
	return strings.Join(parts, " ")
}
