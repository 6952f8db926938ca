package domain

import "strings"

const GenreOther = "Other"

// Genres is the fixed outfit label set, in picker order.
var Genres = []string{
	"Minimalist",
	"Classic / Timeless",
	"Streetwear",
	"Boho",
	"Edgy / Punk",
	"Academia",
	"Y2K / Retro",
	"Cottagecore",
	"Sporty / Athleisure",
	"Artsy / Eclectic",
	"Techwear / Futuristic",
	"Business Casual / Smart Chic",
	GenreOther,
}

// CanonicalGenre matches a label case-insensitively and returns its canonical spelling.
func CanonicalGenre(raw string) (string, bool) {
	needle := strings.TrimSpace(raw)
	for _, genre := range Genres {
		if strings.EqualFold(genre, needle) {
			return genre, true
		}
	}
	return "", false
}

// NormalizeGenre keeps empty genres empty and folds unknown labels into Other.
func NormalizeGenre(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if genre, ok := CanonicalGenre(raw); ok {
		return genre
	}
	return GenreOther
}
