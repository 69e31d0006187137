package portrait

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/charsheets/internal/model"
)

// Sanitize reduces an uploaded filename to a safe, flat ASCII name.
// Accents are folded away, path separators and whitespace become underscores,
// anything outside [A-Za-z0-9_.-] is dropped and leading dots or underscores
// are trimmed. Names that sanitize to nothing map to model.DefaultPortrait.
func Sanitize(name string) string {
	// transform.Chain is stateful, so build one per call
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	folded = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return ' '
		case r > unicode.MaxASCII:
			return -1
		default:
			return r
		}
	}, folded)

	joined := strings.Join(strings.Fields(folded), "_")
	cleaned := strings.Map(func(r rune) rune {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, joined)

	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return model.DefaultPortrait
	}
	return cleaned
}
