package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReportURI serves the last reindex report as JSON.
const ReportURI = "docsift://report/last"

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "last_report",
			URI:         ReportURI,
			Description: "Structured result of the most recent reindex",
			MIMEType:    "application/json",
		},
		s.handleReportResource,
	)
}

func (s *Server) handleReportResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	st, err := s.indexer.Status(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	if st.LastReport == nil {
		return nil, NewInvalidParamsError("no reindex has completed yet")
	}

	data, err := json.MarshalIndent(st.LastReport, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      ReportURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
