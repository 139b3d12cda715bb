package extract

import (
	"context"
	"strings"
)

// TextExtractor decodes a file as UTF-8, replacing invalid sequences with
// U+FFFD.
type TextExtractor struct{}

// Extract implements Extractor.
func (TextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
