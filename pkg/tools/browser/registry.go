package browser

import (
	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
)

// ToolRegistry builds the browser tool set.
type ToolRegistry struct {
	matcher *config.DomainMatcher
	tools   []dispatch.Tool
}

// NewToolRegistry creates a new browser tool registry. matcher restricts
// navigation; nil allows every URL.
func NewToolRegistry(matcher *config.DomainMatcher) *ToolRegistry {
	return &ToolRegistry{
		matcher: matcher,
		tools:   make([]dispatch.Tool, 0),
	}
}

// RegisterTools creates and returns all browser tools. Repeated calls return
// the same tools.
func (r *ToolRegistry) RegisterTools() []dispatch.Tool {
	if len(r.tools) > 0 {
		return r.tools
	}

	navigate := NewNavigateTool(r.matcher)
	act := NewActTool()
	extract := NewExtractTool()
	observe := NewObserveTool()

	// Single-session tools (default session)
	r.tools = append(r.tools,
		NewSessionCreateTool(),
		NewSessionCloseTool(),
		navigate,
		act,
		extract,
		observe,
		NewScreenshotTool(),
		NewGetURLTool(),
	)

	// Multi-session tools
	r.tools = append(r.tools,
		NewMultiSessionCreateTool(),
		NewMultiSessionListTool(),
		NewMultiSessionCloseTool(),
		dispatch.WithSessionID(navigate, MultiPrefix, MultiSuffix),
		dispatch.WithSessionID(act, MultiPrefix, MultiSuffix),
		dispatch.WithSessionID(extract, MultiPrefix, MultiSuffix),
		dispatch.WithSessionID(observe, MultiPrefix, MultiSuffix),
	)

	return r.tools
}

// GetTools returns the current set of registered tools.
func (r *ToolRegistry) GetTools() []dispatch.Tool {
	return r.tools
}

// Lookup returns the registered tool with the given name.
func (r *ToolRegistry) Lookup(name string) (dispatch.Tool, bool) {
	for _, t := range r.RegisterTools() {
		if t.Schema().Name == name {
			return t, true
		}
	}
	return nil, false
}
