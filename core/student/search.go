package student

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Search returns, in list order, the students whose english or bangla name contains `text`
// (case-insensitively) or whose roll contains `text`, and whose class equals `class`.
// An empty class or AllClasses matches every class. `list` is never modified.
func Search(list []Student, text, class string) []Student {
	fold := cases.Fold() // a Caser is not safe for concurrent use
	needle := fold.String(norm.NFC.String(text))
	rollNeedle := norm.NFC.String(text)
	anyClass := class == "" || class == AllClasses

	found := make([]Student, 0, len(list))
	for _, s := range list {
		if !anyClass && s.Class != class {
			continue
		}
		if needle == "" ||
			strings.Contains(fold.String(norm.NFC.String(s.NameEN)), needle) ||
			strings.Contains(fold.String(norm.NFC.String(s.NameBN)), needle) ||
			strings.Contains(norm.NFC.String(s.Roll), rollNeedle) {
			found = append(found, s)
		}
	}
	return found
}
