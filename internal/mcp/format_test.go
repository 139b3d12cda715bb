package mcp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/search"
)

func sampleResponse() *search.Response {
	return &search.Response{
		Results: []*search.Result{
			{Path: "annual_report.pdf", Name: "annual_report.pdf", MatchType: search.MatchBoth, Snippet: "...the annual\nreport for 2023..."},
			{Path: "notes/plan.txt", Name: "plan.txt", MatchType: search.MatchContent, Snippet: "...annual budget..."},
		},
		Total: 2,
	}
}

func TestFormatSearchResults(t *testing.T) {
	out := FormatSearchResults("annual", sampleResponse())

	assert.Contains(t, out, "## Search Results for \"annual\"")
	assert.Contains(t, out, "Found 2 results")
	assert.Contains(t, out, "### 1. annual_report.pdf")
	assert.Contains(t, out, "**Match:** both")
	assert.Contains(t, out, "> ...the annual report for 2023...")
	assert.Contains(t, out, "### 2. notes/plan.txt")
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, "No results found for \"a\"", FormatSearchResults("a", &search.Response{}))
	assert.Equal(t, "No results found for \"x\"", FormatSearchResults("x", nil))
}

func TestToSearchOutput(t *testing.T) {
	out := ToSearchOutput(sampleResponse())

	require.Len(t, out.Results, 2)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "both", out.Results[0].MatchType)
	assert.Equal(t, "application/pdf", out.Results[0].MIMEType)
	assert.Equal(t, "text/plain", out.Results[1].MIMEType)

	empty := ToSearchOutput(nil)
	assert.NotNil(t, empty.Results)
	assert.Equal(t, 0, empty.Total)
}

func TestSearchOutput_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(ToSearchOutput(sampleResponse()))
	require.NoError(t, err)

	var decoded struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Results, 2)
	first := decoded.Results[0]
	assert.Equal(t, "both", first["matchType"])
	assert.Equal(t, "...the annual\nreport for 2023...", first["contentSnippet"])
	assert.Equal(t, "application/pdf", first["mimeType"])
	assert.NotContains(t, first, "match_type")
	assert.NotContains(t, first, "content_snippet")
}

func sampleReport() *index.Report {
	return &index.Report{
		Indexed:     3,
		Scanned:     6,
		Empty:       []index.Outcome{{Path: "blank.txt", Reason: "no text"}},
		Failed:      []index.Outcome{{Path: "broken.pdf", Reason: "malformed PDF"}},
		Unsupported: []index.Outcome{{Path: "photo.png", Reason: "unsupported extension .png"}},
		Skipped:     []index.Outcome{},
		StartedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
	}
}

func TestFormatReport(t *testing.T) {
	out := FormatReport(sampleReport())

	assert.Contains(t, out, "## Indexed 3 files")
	assert.Contains(t, out, "Scanned 6 files in 1.5s.")
	assert.Contains(t, out, "**Failed (1)**\n- broken.pdf: malformed PDF")
	assert.Contains(t, out, "**Unsupported (1)**")
	assert.NotContains(t, out, "Skipped")
}

func TestToReindexOutput(t *testing.T) {
	out := ToReindexOutput(sampleReport())

	assert.Equal(t, "Indexed 3 files", out.Message)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, int64(1500), out.DurationMS)
	assert.Equal(t, []OutcomeOutput{{Path: "broken.pdf", Reason: "malformed PDF"}}, out.Failed)
	assert.NotNil(t, out.Skipped)
	assert.Empty(t, out.Skipped)
}

func TestToLastRun(t *testing.T) {
	assert.Nil(t, toLastRun(nil))

	got := toLastRun(sampleReport())
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-01T12:00:00Z", got.StartedAt)
	assert.Equal(t, 3, got.Indexed)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Unsupported)
}
