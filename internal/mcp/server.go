package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docsift/internal/config"
	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/search"
	"github.com/Aman-CERP/docsift/pkg/version"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "docsift"

// Indexer is the part of index.Indexer the server drives.
type Indexer interface {
	Reindex(ctx context.Context) (*index.Report, error)
	Status(ctx context.Context) (*index.Status, error)
	Extensions() []string
}

// Server bridges MCP clients with the search engine and the indexer.
type Server struct {
	mcp      *mcp.Server
	searcher search.Searcher
	indexer  Indexer
	config   *config.Config
	logger   *slog.Logger
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Find documents under the indexed folder by file name and by extracted text (pdf, docx, doc, xlsx, xls, rtf, txt). Returns file name matches first, each content match with a short snippet.",
	},
	{
		Name:        "reindex",
		Description: "Rebuild the document index from disk. Returns how many files were indexed and why any others were not.",
	},
	{
		Name:        "index_status",
		Description: "Report the number of indexed documents, whether a reindex is running, and the result of the last reindex.",
	},
}

// NewServer creates an MCP server. A nil logger falls back to slog.Default().
func NewServer(searcher search.Searcher, indexer Indexer, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		indexer:  indexer,
		config:   cfg,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name and returns its markdown rendering.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "search":
		query, _ := args["query"].(string)
		limit := 0
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		resp, err := s.search(ctx, SearchInput{Query: query, Limit: limit})
		if err != nil {
			return "", err
		}
		return FormatSearchResults(query, resp), nil
	case "reindex":
		report, err := s.reindex(ctx)
		if err != nil {
			return "", err
		}
		return FormatReport(report), nil
	case "index_status":
		out, err := s.indexStatus(ctx)
		if err != nil {
			return "", err
		}
		return formatStatus(out), nil
	default:
		return "", NewMethodNotFoundError(name)
	}
}

// search runs one query. Short queries are answered by the engine with an
// empty response, not rejected.
func (s *Server) search(ctx context.Context, input SearchInput) (*search.Response, error) {
	if input.Limit < 0 {
		return nil, NewInvalidParamsError("limit must not be negative")
	}

	start := time.Now()
	requestID := generateRequestID()

	s.logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.Int("limit", input.Limit))

	resp, err := s.searcher.Search(ctx, input.Query, input.Limit)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", resp.Total))
	return resp, nil
}

func (s *Server) reindex(ctx context.Context) (*index.Report, error) {
	requestID := generateRequestID()
	s.logger.Info("mcp_reindex_started", slog.String("request_id", requestID))

	report, err := s.indexer.Reindex(ctx)
	if err != nil {
		s.logger.Error("mcp_reindex_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("mcp_reindex_completed",
		slog.String("request_id", requestID),
		slog.Int("indexed", report.Count()),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

func (s *Server) indexStatus(ctx context.Context) (*IndexStatusOutput, error) {
	st, err := s.indexer.Status(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	return &IndexStatusOutput{
		Root:       s.config.Root,
		Backend:    s.config.Store.Backend,
		Documents:  st.Documents,
		Indexing:   st.Indexing,
		Extensions: s.indexer.Extensions(),
		LastRun:    toLastRun(st.LastReport),
	}, nil
}

func formatStatus(out *IndexStatusOutput) string {
	msg := fmt.Sprintf("## Index Status\n\nRoot: %s\nBackend: %s\nDocuments: %d\n",
		out.Root, out.Backend, out.Documents)
	if out.Indexing {
		msg += "Reindex in progress.\n"
	}
	if out.LastRun == nil {
		return msg + "Never indexed.\n"
	}
	return msg + fmt.Sprintf("Last run: %s, indexed %d of %d scanned, %d failed\n",
		out.LastRun.StartedAt, out.LastRun.Indexed, out.LastRun.Scanned, out.LastRun.Failed)
}

// registerTools registers every tool with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpReindexHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpIndexStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	resp, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return textResult(FormatSearchResults(input.Query, resp)), ToSearchOutput(resp), nil
}

func (s *Server) mcpReindexHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ReindexInput) (
	*mcp.CallToolResult,
	ReindexOutput,
	error,
) {
	report, err := s.reindex(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	return textResult(FormatReport(report)), ToReindexOutput(report), nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	out, err := s.indexStatus(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve runs the server on the given transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
