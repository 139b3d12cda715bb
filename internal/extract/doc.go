package extract

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

const (
	wordStreamName = "WordDocument"
	minTextRun     = 4
)

// DOCExtractor is a best-effort extractor for legacy Word 97-2003 binary
// documents. It reads the WordDocument stream from the compound file and
// keeps runs of printable text, trying UTF-16LE and Windows-1252 and
// keeping whichever decoding recovers more text.
type DOCExtractor struct{}

// Extract implements Extractor.
func (DOCExtractor) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open doc: %w", err)
	}

	var stream []byte
	for entry, err := doc.Next(); ; entry, err = doc.Next() {
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read compound file: %w", err)
		}
		if entry.Name != wordStreamName {
			continue
		}
		stream, err = io.ReadAll(entry)
		if err != nil {
			return "", fmt.Errorf("read %s stream: %w", wordStreamName, err)
		}
		break
	}
	if stream == nil {
		return "", fmt.Errorf("doc has no %s stream", wordStreamName)
	}

	return wordStreamText(stream), nil
}

// wordStreamText recovers printable text from a WordDocument stream.
func wordStreamText(stream []byte) string {
	wide := printableRuns(decodeUTF16LE(stream), alphabeticRune)
	narrow := printableRuns(decodeWindows1252(stream), unicode.IsPrint)
	if len([]rune(wide)) >= len([]rune(narrow)) {
		return wide
	}
	return narrow
}

func decodeUTF16LE(b []byte) []rune {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return utf16.Decode(units)
}

func decodeWindows1252(b []byte) []rune {
	dec := charmap.Windows1252
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = dec.DecodeByte(c)
	}
	return runes
}

// alphabeticRune accepts printable runes below the CJK blocks plus general
// punctuation. Binary data read as UTF-16 decodes mostly to CJK.
func alphabeticRune(r rune) bool {
	return unicode.IsPrint(r) && (r < 0x0530 || r >= 0x2000 && r <= 0x206f)
}

// printableRuns keeps runs holding at least minTextRun letters or digits.
// Word paragraph marks (\r) and cell marks (\x07) become newlines.
func printableRuns(runes []rune, accept func(rune) bool) string {
	var (
		out strings.Builder
		run []rune
	)
	flush := func(sep rune) {
		if countLetters(run) >= minTextRun {
			out.WriteString(strings.TrimSpace(string(run)))
			out.WriteRune(sep)
		}
		run = run[:0]
	}

	for _, r := range runes {
		switch {
		case r == '\r' || r == '\n' || r == 0x07 || r == 0x0b:
			flush('\n')
		case r == '\t' || accept(r) && r != unicode.ReplacementChar:
			run = append(run, r)
		default:
			flush(' ')
		}
	}
	flush('\n')

	return strings.TrimSpace(out.String())
}

func countLetters(run []rune) int {
	n := 0
	for _, r := range run {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
