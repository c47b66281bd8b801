// Package mcp exposes candidate listing as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cuboulder-se-research/em-assist/application/service"
)

// Server identity reported during initialization.
const (
	ServerName    = "em-assist"
	ServerVersion = "0.1.0"
)

// ToolName is the name of the candidate listing tool.
const ToolName = "list_extract_function_candidates"

// Lister produces candidate listings for MCP tools.
type Lister interface {
	List(ctx context.Context, req service.ListRequest) service.ListResponse
	Cached(filePath string) service.ListResponse
}

// Server wraps the MCP server with the em-assist tools.
type Server struct {
	mcpServer *server.MCPServer
	lister    Lister
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by lister.
func NewServer(lister Lister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		lister: lister,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	listTool := mcp.NewTool(ToolName,
		mcp.WithDescription("Lists code fragments that can be extracted into a new function in a given file."),
		mcp.WithString("filePath",
			mcp.Required(),
			mcp.Description("Absolute path to the source file"),
		),
		mcp.WithNumber("line",
			mcp.Description("line number on which the host method lies."),
		),
	)

	mcpServer.AddTool(listTool, s.handleList)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	template := mcp.NewResourceTemplate(
		candidatesScheme+"{+path}",
		"Cached extract-function candidates",
		mcp.WithTemplateDescription("Candidates from the last completed listing of a file"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	mcpServer.AddResourceTemplate(template, s.handleCached)
}

// handleList runs one listing and returns the shared JSON payload.
func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := service.ListRequest{FilePath: request.GetString("filePath", "")}
	if _, ok := request.GetArguments()["line"]; ok {
		line := request.GetInt("line", service.DefaultLine)
		req.Line = &line
	}

	s.logger.Debug("mcp tool call", slog.String("tool", ToolName), slog.String("path", req.FilePath))
	resp := s.lister.List(ctx, req)

	body, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	result := mcp.NewToolResultText(string(body))
	result.IsError = resp.IsError()
	return result, nil
}

func (s *Server) handleCached(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParseCandidatesURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(s.lister.Cached(uri.Path()))
	if err != nil {
		return nil, fmt.Errorf("marshal cached candidates: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves newline-delimited JSON-RPC on in and out until ctx is done
// or in is closed. Protocol errors go to the server logger, never to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}
