package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/session"
)

// Naming of the session-scoped variants of the core tools.
const (
	MultiPrefix = "multi_"
	MultiSuffix = "_session"
)

// MultiSessionCreateTool creates an additional, explicitly addressed session.
type MultiSessionCreateTool struct{}

// NewMultiSessionCreateTool creates a new multi-session create tool.
func NewMultiSessionCreateTool() *MultiSessionCreateTool {
	return &MultiSessionCreateTool{}
}

// Schema returns the tool's schema.
func (t *MultiSessionCreateTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "multi_browserbase_stagehand_session_create",
		Description: "Create a new browser session with full web automation capabilities. Each session is isolated " +
			"and managed independently; pass its id to the *_session tools. Use this when you need several " +
			"browser sessions in parallel.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Optional human-readable name to help track the session (e.g. 'login-flow', 'data-scraping')",
			},
			"browserbaseSessionID": map[string]any{
				"type":        "string",
				"description": "Resume an existing Browserbase session by providing its session ID.",
			},
			"browserbaseSessionCreateParams": map[string]any{
				"type":        "object",
				"description": "Advanced Browserbase session configuration (browserSettings, region, keepAlive, timeout). Leave empty for default settings.",
			},
		}),
	}
}

// Capability returns the tool's capability group.
func (t *MultiSessionCreateTool) Capability() string { return "create_session" }

// MultiSessionCreateInput represents the parameters for creating a session.
type MultiSessionCreateInput struct {
	Name                           string                            `json:"name,omitempty"`
	BrowserbaseSessionID           string                            `json:"browserbaseSessionID,omitempty"`
	BrowserbaseSessionCreateParams *browserbase.CreateSessionRequest `json:"browserbaseSessionCreateParams,omitempty"`
}

// Handle validates input and returns the creation action.
func (t *MultiSessionCreateTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input MultiSessionCreateInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	params := session.CreateParams{
		BrowserbaseSessionID: input.BrowserbaseSessionID,
		SessionCreateParams:  input.BrowserbaseSessionCreateParams,
	}
	if input.Name != "" {
		params.Meta = map[string]any{session.MetaName: input.Name}
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		rec, err := env.Store().Create(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("Failed to create browser session: %w. Please check your Browserbase credentials and try again.", err)
		}

		label := rec.ID
		if name := rec.Name(); name != "" {
			label += " (" + name + ")"
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{dispatch.TextContent(
			fmt.Sprintf("Created session %s\nBrowserbase session: %s", label, rec.BrowserbaseSessionID()),
		)}}, nil
	}}, nil
}

// MultiSessionListTool lists every live session.
type MultiSessionListTool struct{}

// NewMultiSessionListTool creates a new multi-session list tool.
func NewMultiSessionListTool() *MultiSessionListTool {
	return &MultiSessionListTool{}
}

// Schema returns the tool's schema.
func (t *MultiSessionListTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_stagehand_session_list",
		Description: "List all currently active browser sessions with their details. Use this to see which sessions " +
			"are available and to get session IDs for the other tools.",
		InputSchema: dispatch.ObjectSchema(map[string]any{}),
	}
}

// Capability returns the tool's capability group.
func (t *MultiSessionListTool) Capability() string { return "list_sessions" }

// Handle returns the listing action.
func (t *MultiSessionListTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent(formatSessions(env.Store().List())),
		}}, nil
	}}, nil
}

func formatSessions(recs []*session.Record) string {
	if len(recs) == 0 {
		return "No active sessions"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):", len(recs))
	for _, rec := range recs {
		b.WriteString("\n- " + rec.ID)
		if name := rec.Name(); name != "" {
			b.WriteString(" (" + name + ")")
		}
		fmt.Fprintf(&b, " - BB: %s - Age: %ds", rec.BrowserbaseSessionID(), int(rec.Age().Seconds()))
	}
	return b.String()
}

// MultiSessionCloseTool closes one session by id.
type MultiSessionCloseTool struct{}

// NewMultiSessionCloseTool creates a new multi-session close tool.
func NewMultiSessionCloseTool() *MultiSessionCloseTool {
	return &MultiSessionCloseTool{}
}

// Schema returns the tool's schema.
func (t *MultiSessionCloseTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "multi_browserbase_stagehand_session_close",
		Description: "Close and clean up a specific browser session. This terminates the browser, ends the " +
			"Browserbase session and frees its resources. Once closed, the session ID cannot be reused.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"sessionId": map[string]any{
				"type":        "string",
				"description": "The exact session ID to close, as returned by the session list tool.",
			},
		}, "sessionId"),
	}
}

// Capability returns the tool's capability group.
func (t *MultiSessionCloseTool) Capability() string { return "close_session" }

// MultiSessionCloseInput represents the parameters for closing a session.
type MultiSessionCloseInput struct {
	SessionID string `json:"sessionId"`
}

// Handle removes the session, failing if it does not exist.
func (t *MultiSessionCloseTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input MultiSessionCloseInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.SessionID == "" {
		return nil, errors.New("sessionId is required")
	}
	if _, ok := env.Store().Get(input.SessionID); !ok {
		return nil, &session.NotFoundError{ID: input.SessionID}
	}

	env.Store().Remove(ctx, input.SessionID)

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Closed session " + input.SessionID),
		}}, nil
	}}, nil
}
