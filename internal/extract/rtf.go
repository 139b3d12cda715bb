package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// RTFExtractor strips RTF control words and groups, keeping body text.
// \'hh escapes decode through the document's \ansicpg code page
// (Windows-1252 when absent) and \uN escapes decode to Unicode.
type RTFExtractor struct{}

// Extract implements Extractor.
func (RTFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if !strings.HasPrefix(strings.TrimLeft(string(data[:min(len(data), 64)]), " \t\r\n\uFEFF"), "{\\rtf") {
		return "", fmt.Errorf("missing {\\rtf header")
	}
	p := &rtfParser{data: data, codepage: charmap.Windows1252}
	return p.parse(ctx)
}

// rtfSkipDestinations are groups whose content is never body text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "header": true, "headerl": true,
	"headerr": true, "headerf": true, "footer": true, "footerl": true,
	"footerr": true, "footerf": true, "listtable": true, "listoverridetable": true,
	"revtbl": true, "rsidtbl": true, "generator": true, "xmlnstbl": true,
	"themedata": true, "colorschememapping": true, "datastore": true,
	"latentstyles": true, "fldinst": true, "filetbl": true, "bkmkstart": true,
	"bkmkend": true, "private": true, "pgdsctbl": true, "nonshppict": true,
}

// rtfSymbols maps control words to the text they stand for.
var rtfSymbols = map[string]string{
	"par": "\n", "line": "\n", "sect": "\n", "page": "\n", "row": "\n",
	"tab": "\t", "cell": " ", "emdash": "\u2014", "endash": "\u2013",
	"bullet": "\u2022", "lquote": "\u2018", "rquote": "\u2019",
	"ldblquote": "\u201c", "rdblquote": "\u201d", "emspace": "\u2003", "enspace": "\u2002",
}

var rtfCodepages = map[int]*charmap.Charmap{
	437: charmap.CodePage437, 850: charmap.CodePage850, 866: charmap.CodePage866,
	874: charmap.Windows874, 1250: charmap.Windows1250, 1251: charmap.Windows1251,
	1252: charmap.Windows1252, 1253: charmap.Windows1253, 1254: charmap.Windows1254,
	1255: charmap.Windows1255, 1256: charmap.Windows1256, 1257: charmap.Windows1257,
	1258: charmap.Windows1258, 10000: charmap.Macintosh,
}

type rtfGroup struct {
	skip   bool
	ucSkip int
}

type rtfParser struct {
	data     []byte
	pos      int
	out      strings.Builder
	stack    []rtfGroup
	state    rtfGroup
	codepage *charmap.Charmap
	pending  int // fallback characters still to drop after a \u escape
}

func (p *rtfParser) parse(ctx context.Context) (string, error) {
	p.state.ucSkip = 1

	for n := 0; p.pos < len(p.data); n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}

		c := p.data[p.pos]
		p.pos++

		switch c {
		case '{':
			p.stack = append(p.stack, p.state)
			p.pending = 0
		case '}':
			if len(p.stack) == 0 {
				return p.out.String(), nil
			}
			p.state = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pending = 0
		case '\\':
			p.control()
		case '\r', '\n':
		default:
			p.emitByte(c)
		}
	}

	if len(p.stack) > 0 {
		return "", fmt.Errorf("unbalanced groups: %d left open", len(p.stack))
	}
	return p.out.String(), nil
}

// control handles everything after a backslash.
func (p *rtfParser) control() {
	if p.pos >= len(p.data) {
		return
	}

	c := p.data[p.pos]
	if !isASCIILetter(c) {
		p.pos++
		p.controlSymbol(c)
		return
	}

	start := p.pos
	for p.pos < len(p.data) && isASCIILetter(p.data[p.pos]) {
		p.pos++
	}
	word := string(p.data[start:p.pos])

	param, hasParam := 0, false
	numStart := p.pos
	if p.pos < len(p.data) && p.data[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > numStart {
		if n, err := strconv.Atoi(string(p.data[numStart:p.pos])); err == nil {
			param, hasParam = n, true
		}
	}
	if p.pos < len(p.data) && p.data[p.pos] == ' ' {
		p.pos++
	}

	p.controlWord(word, param, hasParam)
}

func (p *rtfParser) controlSymbol(c byte) {
	switch c {
	case '\'':
		if p.pos+2 > len(p.data) {
			return
		}
		b, err := strconv.ParseUint(string(p.data[p.pos:p.pos+2]), 16, 8)
		p.pos += 2
		if err != nil {
			return
		}
		if p.pending > 0 {
			p.pending--
			return
		}
		if !p.state.skip {
			p.out.WriteRune(p.codepage.DecodeByte(byte(b)))
		}
	case '*':
		p.state.skip = true
	case '~':
		p.emit("\u00a0")
	case '_':
		p.emit("-")
	case '\\', '{', '}':
		p.emitByte(c)
	case '\r', '\n':
		p.emit("\n")
	}
}

func (p *rtfParser) controlWord(word string, param int, hasParam bool) {
	switch {
	case rtfSkipDestinations[word]:
		p.state.skip = true
	case word == "ansicpg" && hasParam:
		if cm, ok := rtfCodepages[param]; ok {
			p.codepage = cm
		}
	case word == "uc" && hasParam:
		p.state.ucSkip = param
	case word == "u" && hasParam:
		if param < 0 {
			param += 0x10000
		}
		if !p.state.skip {
			p.out.WriteRune(rune(param))
		}
		p.pending = p.state.ucSkip
	default:
		if s, ok := rtfSymbols[word]; ok {
			p.emit(s)
		}
	}
}

func (p *rtfParser) emit(s string) {
	p.pending = 0
	if !p.state.skip {
		p.out.WriteString(s)
	}
}

func (p *rtfParser) emitByte(c byte) {
	if p.pending > 0 {
		p.pending--
		return
	}
	if !p.state.skip {
		p.out.WriteRune(p.codepage.DecodeByte(c))
	}
}

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
