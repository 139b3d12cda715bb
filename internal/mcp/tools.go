package mcp

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find in file names and document contents; at least 2 characters"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 50"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"matching documents, file name matches first"`
	Total   int                  `json:"total" jsonschema:"number of results returned"`
}

// SearchResultOutput is one matching document.
type SearchResultOutput struct {
	Path      string `json:"path" jsonschema:"file path relative to the document root"`
	Name      string `json:"name" jsonschema:"file name"`
	MatchType string `json:"matchType" jsonschema:"filename, content, or both"`
	Snippet   string `json:"contentSnippet,omitempty" jsonschema:"text around the first content match"`
	MIMEType  string `json:"mimeType,omitempty" jsonschema:"document type derived from the extension"`
}

// ReindexInput defines the input schema for the reindex tool (no parameters).
type ReindexInput struct{}

// ReindexOutput summarizes a completed reindex.
type ReindexOutput struct {
	Message     string          `json:"message"`
	Count       int             `json:"count"`
	Scanned     int             `json:"scanned"`
	DurationMS  int64           `json:"duration_ms"`
	Empty       []OutcomeOutput `json:"empty"`
	Failed      []OutcomeOutput `json:"failed"`
	Unsupported []OutcomeOutput `json:"unsupported"`
	Skipped     []OutcomeOutput `json:"skipped"`
}

// OutcomeOutput explains why a file was not indexed.
type OutcomeOutput struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Root       string          `json:"root"`
	Backend    string          `json:"backend"`
	Documents  int             `json:"documents"`
	Indexing   bool            `json:"indexing"`
	Extensions []string        `json:"extensions"`
	LastRun    *LastRunSummary `json:"last_run,omitempty"`
}

// LastRunSummary describes the most recent completed reindex.
type LastRunSummary struct {
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
	Indexed     int    `json:"indexed"`
	Scanned     int    `json:"scanned"`
	Empty       int    `json:"empty"`
	Failed      int    `json:"failed"`
	Unsupported int    `json:"unsupported"`
	Skipped     int    `json:"skipped"`
}
