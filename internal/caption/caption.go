// Package caption builds the short summary attached to a recipe when it is
// published.
package caption

import "strings"

const (
	// Fallback is used when neither a title nor a description is available.
	Fallback = "A tasty homemade recipe"

	titleOnlySuffix = " — a quick and easy recipe"

	// MaxDescriptionRunes bounds how much of the description is embedded.
	MaxDescriptionRunes = 120
	ellipsis            = "…"
)

// Generate returns the caption for a recipe. It is deterministic and has no
// side effects.
func Generate(title, description string) string {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "" && description == "":
		return Fallback
	case description == "":
		return title + titleOnlySuffix
	case title == "":
		return truncate(description)
	default:
		return title + ": " + truncate(description)
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxDescriptionRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:MaxDescriptionRunes])) + ellipsis
}
