package caption

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerate(t *testing.T) {
	long := strings.Repeat("б", MaxDescriptionRunes+10)

	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{"both empty", "", "", Fallback},
		{"whitespace only", "  ", "\t", Fallback},
		{"title only", "Tomato Soup", "", "Tomato Soup — a quick and easy recipe"},
		{"title and description", "Pasta", "Garlic and oil", "Pasta: Garlic and oil"},
		{"description only", "", "Garlic and oil", "Garlic and oil"},
		{"trims input", "  Pasta ", " Garlic and oil\n", "Pasta: Garlic and oil"},
		{"long description", "Borscht", long, "Borscht: " + strings.Repeat("б", MaxDescriptionRunes) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.title, tt.description); got != tt.want {
				t.Fatalf("Generate(%q, %q) = %q, want %q", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestGenerateIsValidUTF8(t *testing.T) {
	got := Generate("Суп", strings.Repeat("щи ", 100))
	if !utf8.ValidString(got) {
		t.Fatalf("caption is not valid UTF-8: %q", got)
	}
}
