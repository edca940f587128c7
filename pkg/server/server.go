// Package server exposes the browser tools over the Model Context Protocol,
// on stdio or on a streamable HTTP endpoint.
package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/metrics"
)

// Name is the implementation name announced to clients.
const Name = "mcp-server-browserbase"

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m on /metrics in HTTP mode.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server is the protocol front of one dispatch.Context.
type Server struct {
	mcp     *mcp.Server
	dctx    *dispatch.Context
	logger  *logging.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	resources map[string]bool
}

// New builds a server offering tools. Screenshots taken through dctx are
// published as resources.
func New(dctx *dispatch.Context, tools []dispatch.Tool, version string, opts ...Option) *Server {
	s := &Server{
		dctx:      dctx,
		logger:    dctx.Logger().With("server"),
		resources: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)

	for _, tool := range tools {
		s.addTool(tool)
	}

	// The template keeps resources advertised before the first screenshot.
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: dispatch.ScreenshotScheme + "{name}",
		Name:        "screenshot",
		Description: "A screenshot taken with the browserbase_screenshot tool",
		MIMEType:    "image/png",
	}, s.readScreenshot)

	shots := dctx.Screenshots()
	shots.OnAdd(func(dispatch.Screenshot) { s.syncResources() })
	s.syncResources()

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

func (s *Server) addTool(tool dispatch.Tool) {
	schema := tool.Schema()
	input := schema.InputSchema
	if input == nil {
		input = dispatch.ObjectSchema(map[string]any{})
	}

	s.mcp.AddTool(&mcp.Tool{
		Name:        schema.Name,
		Description: schema.Description,
		InputSchema: input,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}
		return toCallToolResult(s.dctx.Run(ctx, tool, args)), nil
	})
}

func toCallToolResult(res *dispatch.CallResult) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: res.IsError}
	for _, c := range res.Content {
		switch c.Type {
		case dispatch.ContentImage:
			out.Content = append(out.Content, &mcp.ImageContent{Data: c.Data, MIMEType: c.MIMEType})
		default:
			out.Content = append(out.Content, &mcp.TextContent{Text: c.Text})
		}
	}
	if out.Content == nil {
		out.Content = []mcp.Content{}
	}
	return out
}

// syncResources publishes the screenshots currently held and withdraws the
// ones that have been dropped.
func (s *Server) syncResources() {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := map[string]bool{}
	for _, shot := range s.dctx.Screenshots().List() {
		uri := shot.URI()
		live[uri] = true
		if s.resources[uri] {
			continue
		}
		s.mcp.AddResource(&mcp.Resource{
			URI:      uri,
			Name:     shot.Name,
			MIMEType: shot.MIMEType,
		}, s.readScreenshot)
		s.resources[uri] = true
	}

	var stale []string
	for uri := range s.resources {
		if !live[uri] {
			stale = append(stale, uri)
			delete(s.resources, uri)
		}
	}
	if len(stale) > 0 {
		s.mcp.RemoveResources(stale...)
	}
}

func (s *Server) readScreenshot(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	shot, ok := s.dctx.Screenshots().Get(uri)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: shot.MIMEType,
			Blob:     shot.Data,
		}},
	}, nil
}

// ServeStdio serves one client on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Infof("Browserbase MCP server running on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
