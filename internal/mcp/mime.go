package mcp

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps the extractable extensions to MIME types.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".rtf":  "application/rtf",
	".txt":  "text/plain",
}

// MimeTypeForPath returns the MIME type for a document path, falling back
// to application/octet-stream.
func MimeTypeForPath(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}
