package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeTypeForPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "pdf", path: "reports/annual.pdf", expected: "application/pdf"},
		{name: "uppercase extension", path: "SCAN.PDF", expected: "application/pdf"},
		{name: "docx", path: "letter.docx", expected: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "doc", path: "old.doc", expected: "application/msword"},
		{name: "xlsx", path: "budget.xlsx", expected: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{name: "xls", path: "budget.xls", expected: "application/vnd.ms-excel"},
		{name: "rtf", path: "memo.rtf", expected: "application/rtf"},
		{name: "txt", path: "notes.txt", expected: "text/plain"},
		{name: "unknown", path: "archive.zip", expected: "application/octet-stream"},
		{name: "no extension", path: "README", expected: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MimeTypeForPath(tt.path))
		})
	}
}
