package search

import (
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/docsift/internal/store"
)

// ellipsis marks both ends of every snippet.
const ellipsis = "..."

// Snippet cuts up to radius characters either side of the first
// case-insensitive occurrence of query in text. ok is false when query
// does not occur.
func Snippet(text, query string, radius int) (snippet string, ok bool) {
	foldedText := store.Fold(text)
	foldedQuery := store.Fold(query)
	if foldedQuery == "" {
		return "", false
	}

	at := strings.Index(foldedText, foldedQuery)
	if at < 0 {
		return "", false
	}

	// Fold keeps one rune per rune, so rune offsets in the folded text are
	// offsets in the original.
	start := utf8.RuneCountInString(foldedText[:at])
	end := start + utf8.RuneCountInString(foldedQuery)

	runes := []rune(text)
	from := max(start-radius, 0)
	to := min(end+radius, len(runes))
	return ellipsis + string(runes[from:to]) + ellipsis, true
}
