package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cuboulder-se-research/em-assist/application/service"
)

// fakeLister records requests and returns canned responses.
type fakeLister struct {
	mu       sync.Mutex
	response service.ListResponse
	cached   map[string]service.ListResponse
	requests []service.ListRequest
}

func (f *fakeLister) List(_ context.Context, req service.ListRequest) service.ListResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response
}

func (f *fakeLister) Cached(filePath string) service.ListResponse {
	if resp, ok := f.cached[filePath]; ok {
		return resp
	}
	return service.NewErrorResponse("No candidates cached for " + filePath)
}

func (f *fakeLister) last() service.ListRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func successResponse() service.ListResponse {
	return service.ListResponse{Candidates: []service.CandidateView{{
		FunctionName: "bar",
		LineStart:    12,
		LineEnd:      15,
		OffsetStart:  120,
		OffsetEnd:    180,
		Type:         "AS_IS",
	}}}
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

// resultJSON re-marshals the Result field through JSON into dst.
func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal result into %T: %v", dst, err)
	}
}

func initializeParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "0.0.1",
		},
	}
}

func callList(t *testing.T, srv *Server, args map[string]any) (mcp.CallToolResult, service.ListResponse) {
	t.Helper()
	sendMessage(t, srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name":      ToolName,
		"arguments": args,
	})

	var result mcp.CallToolResult
	resultJSON(t, resp, &result)

	var payload service.ListResponse
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return result, payload
}

func TestServer_Initialize(t *testing.T) {
	srv := NewServer(&fakeLister{}, nil)
	resp := sendMessage(t, srv, "initialize", 1, initializeParams())

	var result mcp.InitializeResult
	resultJSON(t, resp, &result)

	if result.ServerInfo.Name != "em-assist" {
		t.Errorf("expected server name em-assist, got %s", result.ServerInfo.Name)
	}
	if result.ServerInfo.Version != "0.1.0" {
		t.Errorf("expected version 0.1.0, got %s", result.ServerInfo.Version)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability to be present")
	}
}

func TestServer_ListTools(t *testing.T) {
	srv := NewServer(&fakeLister{}, nil)
	sendMessage(t, srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, srv, "tools/list", 2, nil)

	var result mcp.ListToolsResult
	resultJSON(t, resp, &result)

	if len(result.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result.Tools))
	}
	tool := result.Tools[0]
	if tool.Name != ToolName {
		t.Errorf("expected tool %s, got %s", ToolName, tool.Name)
	}
	if tool.Description != "Lists code fragments that can be extracted into a new function in a given file." {
		t.Errorf("unexpected description: %s", tool.Description)
	}
	for _, param := range []string{"filePath", "line"} {
		if _, ok := tool.InputSchema.Properties[param]; !ok {
			t.Errorf("tool missing %s parameter", param)
		}
	}
	if !contains(tool.InputSchema.Required, "filePath") {
		t.Error("filePath should be required")
	}
	if contains(tool.InputSchema.Required, "line") {
		t.Error("line should be optional")
	}
}

func TestServer_ListCandidates(t *testing.T) {
	lister := &fakeLister{response: successResponse()}
	srv := NewServer(lister, nil)

	result, payload := callList(t, srv, map[string]any{"filePath": "/src/a.go", "line": 12})

	if result.IsError {
		t.Fatal("expected success")
	}
	if payload.Error != nil {
		t.Fatalf("expected null error, got %s", *payload.Error)
	}
	if len(payload.Candidates) != 1 || payload.Candidates[0] != successResponse().Candidates[0] {
		t.Errorf("unexpected candidates: %+v", payload.Candidates)
	}

	req := lister.last()
	if req.FilePath != "/src/a.go" {
		t.Errorf("expected path /src/a.go, got %s", req.FilePath)
	}
	if req.Line == nil || *req.Line != 12 {
		t.Errorf("expected line 12, got %v", req.Line)
	}
}

func TestServer_ListCandidatesWithoutLine(t *testing.T) {
	lister := &fakeLister{response: successResponse()}
	srv := NewServer(lister, nil)

	callList(t, srv, map[string]any{"filePath": "/src/a.go"})

	req := lister.last()
	if req.Line != nil {
		t.Errorf("expected no line, got %d", *req.Line)
	}
	if req.LineOrDefault() != service.DefaultLine {
		t.Errorf("expected default line, got %d", req.LineOrDefault())
	}
}

func TestServer_ListCandidatesError(t *testing.T) {
	lister := &fakeLister{response: service.NewErrorResponse("No function found at location")}
	srv := NewServer(lister, nil)

	result, payload := callList(t, srv, map[string]any{"filePath": "/src/a.go", "line": 1})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if payload.Error == nil || *payload.Error != "No function found at location" {
		t.Errorf("unexpected error payload: %+v", payload)
	}
	if payload.Candidates == nil || len(payload.Candidates) != 0 {
		t.Errorf("expected empty candidates, got %+v", payload.Candidates)
	}
}

func TestServer_ReadCachedResource(t *testing.T) {
	lister := &fakeLister{cached: map[string]service.ListResponse{"/src/a.go": successResponse()}}
	srv := NewServer(lister, nil)
	sendMessage(t, srv, "initialize", 1, initializeParams())

	uri := NewCandidatesURI("/src/a.go").String()
	resp := sendMessage(t, srv, "resources/read", 2, map[string]any{"uri": uri})

	var result struct {
		Contents []struct {
			URI      string `json:"uri"`
			MIMEType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"contents"`
	}
	resultJSON(t, resp, &result)

	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("unexpected mime type %s", result.Contents[0].MIMEType)
	}
	if !strings.Contains(result.Contents[0].Text, `"functionName":"bar"`) {
		t.Errorf("unexpected text %s", result.Contents[0].Text)
	}
}

func TestServer_ServeStdio(t *testing.T) {
	lister := &fakeLister{response: successResponse()}
	srv := NewServer(lister, nil)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStdio(ctx, inR, outW)
		_ = outW.Close()
	}()

	requests := []map[string]any{
		{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": initializeParams()},
		{"jsonrpc": "2.0", "method": "notifications/initialized"},
		{"jsonrpc": "2.0", "id": 2, "method": "tools/call", "params": map[string]any{
			"name":      ToolName,
			"arguments": map[string]any{"filePath": "/src/a.go", "line": 12},
		}},
	}
	go func() {
		enc := json.NewEncoder(inW)
		for _, r := range requests {
			if err := enc.Encode(r); err != nil {
				return
			}
		}
	}()

	var toolResponse string
	scanner := bufio.NewScanner(outR)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("stdout carried a non-JSON line: %s", scanner.Text())
		}
		if string(msg.ID) == "2" {
			toolResponse = scanner.Text()
			break
		}
	}

	cancel()
	_ = inW.Close()
	go func() {
		for scanner.Scan() {
		}
	}()
	<-done

	if !strings.Contains(toolResponse, `\"functionName\":\"bar\"`) {
		t.Errorf("missing tool payload in %s", toolResponse)
	}
}

func TestCandidatesURI(t *testing.T) {
	uri := NewCandidatesURI("/src/pkg/../a.go")
	if uri.String() != "candidates:///src/a.go" {
		t.Errorf("unexpected uri %s", uri.String())
	}

	parsed, err := ParseCandidatesURI("candidates:///src/my%20file.go")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Path() != "/src/my file.go" {
		t.Errorf("unexpected path %s", parsed.Path())
	}

	for _, bad := range []string{"file:///src/a.go", "candidates://", "candidates://%zz"} {
		if _, err := ParseCandidatesURI(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func textFromContent(t *testing.T, result mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	b, err := json.Marshal(result.Content[0])
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	var tc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &tc); err != nil {
		t.Fatalf("unmarshal text content: %v", err)
	}
	return tc.Text
}

func contains(items []string, target string) bool {
	for _, s := range items {
		if s == target {
			return true
		}
	}
	return false
}
