package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	before := strings.Repeat("b", 150)
	after := strings.Repeat("a", 150)

	tests := []struct {
		name   string
		text   string
		query  string
		want   string
		wantOK bool
	}{
		{
			name:   "full radius both sides",
			text:   before + "MATCH" + after,
			query:  "match",
			want:   "..." + strings.Repeat("b", 100) + "MATCH" + strings.Repeat("a", 100) + "...",
			wantOK: true,
		},
		{
			name:   "clamped at start",
			text:   "Match" + after,
			query:  "MATCH",
			want:   "...Match" + strings.Repeat("a", 100) + "...",
			wantOK: true,
		},
		{
			name:   "clamped at end",
			text:   before + "match",
			query:  "match",
			want:   "..." + strings.Repeat("b", 100) + "match...",
			wantOK: true,
		},
		{
			name:   "first occurrence wins",
			text:   "one match, two match",
			query:  "match",
			want:   "...one match, two match...",
			wantOK: true,
		},
		{
			name:   "counts characters not bytes",
			text:   strings.Repeat("é", 150) + "x" + strings.Repeat("ü", 150),
			query:  "X",
			want:   "..." + strings.Repeat("é", 100) + "x" + strings.Repeat("ü", 100) + "...",
			wantOK: true,
		},
		{name: "absent", text: "nothing here", query: "match"},
		{name: "empty query", text: "text", query: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Snippet(tt.text, tt.query, 100)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_ClampLimit(t *testing.T) {
	cfg := Config{DefaultLimit: 50, MaxLimit: 1000}.withDefaults()

	assert.Equal(t, 50, cfg.clampLimit(0))
	assert.Equal(t, 50, cfg.clampLimit(-3))
	assert.Equal(t, 7, cfg.clampLimit(7))
	assert.Equal(t, 1000, cfg.clampLimit(5000))
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 1000, cfg.MaxLimit)
	assert.Equal(t, 2, cfg.MinQueryLength)
	assert.Equal(t, 100, cfg.SnippetRadius)
}
