package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// DOCXExtractor extracts paragraph text from word/document.xml, one
// paragraph per line. Table cell paragraphs are included.
type DOCXExtractor struct{}

// Extract implements Extractor.
func (DOCXExtractor) Extract(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, file := range zr.File {
		if file.Name != docxBodyPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", fmt.Errorf("docx has no %s", docxBodyPart)
}

// parseDocumentXML streams WordprocessingML tokens. Text (t), tabs and
// breaks inside a run (r) are appended to the open paragraph; nested
// paragraphs (text boxes) fold into their outer paragraph. Tab stop
// definitions in paragraph properties are not runs and produce nothing.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		runDepth   int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "r":
				runDepth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 && runDepth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 && runDepth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
