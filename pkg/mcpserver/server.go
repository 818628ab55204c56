// Package mcpserver exposes result hovers, navigation, markers and code
// lenses as Model Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/githubnext/sqlresult/pkg/parser"
	"github.com/githubnext/sqlresult/pkg/provider"
)

// Tool names
const (
	ToolHover   = "sql_result_hover"
	ToolGoTo    = "sql_result_goto"
	ToolMarkers = "sql_result_markers"
	ToolLenses  = "sql_result_lenses"
)

// LineArgs addresses one line of a file
type LineArgs struct {
	File string `json:"file" jsonschema:"path to a SQL file or a result file"`
	Line int    `json:"line" jsonschema:"1-based line number"`
}

// FileArgs addresses a whole file
type FileArgs struct {
	File string `json:"file" jsonschema:"path to a SQL file or a result file"`
}

// HoverOutput is the hover content for a SQL line
type HoverOutput struct {
	Markdown string `json:"markdown" jsonschema:"hover markdown, empty when there is nothing to show"`
}

// GoToOutput is the counterpart location of a line
type GoToOutput struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// MarkersOutput lists the markers of a result file
type MarkersOutput struct {
	Markers []parser.Marker `json:"markers"`
}

// LensesOutput lists the code lenses of a file
type LensesOutput struct {
	Lenses []provider.CodeLens `json:"lenses"`
}

// Server answers tool calls with a shared provider
type Server struct {
	provider *provider.Provider
	log      *zap.Logger
	version  string
}

// New creates a server; log may be nil
func New(p *provider.Provider, log *zap.Logger, version string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{provider: p, log: log, version: version}
}

// MCPServer builds the protocol server with every tool registered
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sqlresult", Version: s.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolHover,
		Description: "Show the recorded result or error of the SQL statement on a line",
	}, s.hover)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGoTo,
		Description: "Find the counterpart location of a line: the result marker for a SQL file, the statement for a result file",
	}, s.goTo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolMarkers,
		Description: "List every #SQL marker of a result file",
	}, s.markers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolLenses,
		Description: "List the code lenses of a SQL file or a result file",
	}, s.lenses)

	return server
}

// Run serves tool calls over stdin/stdout until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server starting", zap.String("version", s.version))
	err := s.MCPServer().Run(ctx, &mcp.StdioTransport{})
	if err != nil && ctx.Err() == nil {
		s.log.Error("mcp server stopped", zap.Error(err))
		return fmt.Errorf("mcp server failed: %w", err)
	}
	s.log.Info("mcp server stopped")
	return nil
}

func (s *Server) hover(_ context.Context, _ *mcp.CallToolRequest, args LineArgs) (*mcp.CallToolResult, HoverOutput, error) {
	s.log.Debug("tool call", zap.String("tool", ToolHover), zap.String("file", args.File), zap.Int("line", args.Line))
	md, err := s.provider.Hover(args.File, args.Line)
	if err != nil {
		return nil, HoverOutput{}, err
	}
	return nil, HoverOutput{Markdown: md}, nil
}

func (s *Server) goTo(_ context.Context, _ *mcp.CallToolRequest, args LineArgs) (*mcp.CallToolResult, GoToOutput, error) {
	s.log.Debug("tool call", zap.String("tool", ToolGoTo), zap.String("file", args.File), zap.Int("line", args.Line))
	var (
		loc provider.Location
		err error
	)
	if s.provider.IsResultFile(args.File) {
		loc, err = s.provider.GoToSQL(args.File, args.Line)
	} else {
		loc, err = s.provider.GoToResult(args.File, args.Line)
	}
	if err != nil {
		return nil, GoToOutput{}, err
	}
	return nil, GoToOutput{Path: loc.Path, Line: loc.Line}, nil
}

func (s *Server) markers(_ context.Context, _ *mcp.CallToolRequest, args FileArgs) (*mcp.CallToolResult, MarkersOutput, error) {
	s.log.Debug("tool call", zap.String("tool", ToolMarkers), zap.String("file", args.File))
	content, err := os.ReadFile(args.File)
	if err != nil {
		return nil, MarkersOutput{}, fmt.Errorf("failed to read result file %s: %w", args.File, err)
	}
	markers := parser.ListMarkers(string(content))
	if markers == nil {
		markers = []parser.Marker{}
	}
	return nil, MarkersOutput{Markers: markers}, nil
}

func (s *Server) lenses(_ context.Context, _ *mcp.CallToolRequest, args FileArgs) (*mcp.CallToolResult, LensesOutput, error) {
	s.log.Debug("tool call", zap.String("tool", ToolLenses), zap.String("file", args.File))
	lenses, err := s.provider.CodeLenses(args.File)
	if err != nil {
		return nil, LensesOutput{}, err
	}
	if lenses == nil {
		lenses = []provider.CodeLens{}
	}
	return nil, LensesOutput{Lenses: lenses}, nil
}
