// Package search answers queries by file name and by indexed content.
//
// A query runs two phases over every supported extension: a walk of the
// document root matching display names, and a store lookup matching
// extracted text. Content matches carry a snippet; a file found by both
// phases is reported once as MatchBoth.
package search

import "context"

// MatchType classifies how a result matched the query.
type MatchType string

const (
	// MatchFilename means only the display name matched.
	MatchFilename MatchType = "filename"
	// MatchContent means only the indexed text matched.
	MatchContent MatchType = "content"
	// MatchBoth means the name and the text matched.
	MatchBoth MatchType = "both"
)

// Result is one matching document.
type Result struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Snippet   string    `json:"contentSnippet,omitempty"`
	MatchType MatchType `json:"matchType"`
}

// Response is the answer to one query. Total is the number of returned
// results after truncation to the limit.
type Response struct {
	Results []*Result `json:"results"`
	Total   int       `json:"total"`
}

// Searcher is implemented by Engine. Callers that only query depend on it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*Response, error)
}

func emptyResponse() *Response {
	return &Response{Results: []*Result{}}
}
