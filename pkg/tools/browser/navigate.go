package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// errNoPage is returned when the session's page has been closed.
var errNoPage = errors.New("No active page available")

// activePage returns the page of the session env targets.
func activePage(ctx context.Context, env *dispatch.Env) (stagehand.Page, error) {
	page, err := env.ActivePage(ctx)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, errNoPage
	}
	return page, nil
}

// NavigateTool opens a URL in the current session.
type NavigateTool struct {
	matcher *config.DomainMatcher
}

// NewNavigateTool creates a new navigate tool. A nil matcher allows every
// URL.
func NewNavigateTool(matcher *config.DomainMatcher) *NavigateTool {
	return &NavigateTool{
		matcher: matcher,
	}
}

// Schema returns the tool's schema.
func (t *NavigateTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name:        "browserbase_stagehand_navigate",
		Description: "Navigate to a URL in the browser. Only use this tool with URLs you're confident will work and stay up to date.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to navigate to (must include protocol, e.g., https://example.com)",
			},
		}, "url"),
	}
}

// Capability returns the tool's capability group.
func (t *NavigateTool) Capability() string { return "core" }

// NavigateInput represents the parameters for navigation.
type NavigateInput struct {
	URL string `json:"url"`
}

// Handle validates the URL against the allow-list and returns the
// navigation action.
func (t *NavigateTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input NavigateInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.URL == "" {
		return nil, errors.New("URL is required")
	}

	allowed, err := t.matcher.Allows(input.URL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("navigation to %s is not allowed by the allowedDomains setting", input.URL)
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		page, err := activePage(ctx, env)
		if err != nil {
			return nil, err
		}
		if err := page.Goto(ctx, input.URL); err != nil {
			return nil, fmt.Errorf("Failed to navigate: %w", err)
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Navigated to: " + input.URL),
		}}, nil
	}}, nil
}

// GetURLTool reports the URL of the current page.
type GetURLTool struct{}

// NewGetURLTool creates a new get URL tool.
func NewGetURLTool() *GetURLTool {
	return &GetURLTool{}
}

// Schema returns the tool's schema.
func (t *GetURLTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name:        "browserbase_stagehand_get_url",
		Description: "Return the URL of the current page in the browser. Use this to check where you are after navigating or acting.",
		InputSchema: dispatch.ObjectSchema(map[string]any{}),
	}
}

// Capability returns the tool's capability group.
func (t *GetURLTool) Capability() string { return "core" }

// Handle returns the action reading the URL.
func (t *GetURLTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		page, err := activePage(ctx, env)
		if err != nil {
			return nil, err
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{dispatch.TextContent(page.URL())}}, nil
	}}, nil
}
