// Package classify assigns a content kind to captured clipboard text.
//
// This is a heuristic, not a parser: false positives and negatives are
// acceptable and never treated as errors. Image captures bypass the
// classifier entirely and are always record.KindImage.
package classify

import (
	"regexp"
	"strings"

	"go.clipvault.dev/clipvault/internal/record"
)

var (
	urlPrefix = regexp.MustCompile(`^(https?://|www\.)`)
	codeShape = regexp.MustCompile(`[\n;{}]`)
)

// codeKeywords are case-insensitive indicators that shaped text is code.
var codeKeywords = []string{
	"function", "const", "let", "var", "class",
	"def", "import", "public", "private",
}

// Classify maps raw clipboard text to a kind. Deterministic and pure.
func Classify(raw string) record.Kind {
	if urlPrefix.MatchString(strings.TrimSpace(raw)) {
		return record.KindLink
	}
	if codeShape.MatchString(raw) && containsKeyword(raw) {
		return record.KindCode
	}
	return record.KindText
}

func containsKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
