package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/session"
)

// SessionCreateTool creates or resumes the default browser session.
type SessionCreateTool struct{}

// NewSessionCreateTool creates a new session create tool.
func NewSessionCreateTool() *SessionCreateTool {
	return &SessionCreateTool{}
}

// Schema returns the tool's schema.
func (t *SessionCreateTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_session_create",
		Description: "Create or reuse a single cloud browser session using Browserbase. " +
			"This tool is for single browser workflows only; use 'multi_browserbase_stagehand_session_create' " +
			"for several sessions running at once. The session uses every configured option (proxies, stealth, " +
			"viewport, cookies) and becomes the active session for the other tools.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"sessionId": map[string]any{
				"type":        "string",
				"description": "Optional Browserbase session ID to resume. If not provided, a new session is created.",
			},
		}),
	}
}

// Capability returns the tool's capability group.
func (t *SessionCreateTool) Capability() string { return "core" }

// SessionCreateInput represents the parameters for creating a session.
type SessionCreateInput struct {
	SessionID string `json:"sessionId"`
}

// Handle validates input and returns the creation action.
func (t *SessionCreateTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input SessionCreateInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		text, err := createDefault(ctx, env, input.SessionID)
		if err != nil {
			return nil, fmt.Errorf("Failed to create Browserbase session: %w", err)
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{dispatch.TextContent(text)}}, nil
	}}, nil
}

func createDefault(ctx context.Context, env *dispatch.Env, resumeID string) (string, error) {
	rec, err := env.Default().Replace(ctx, session.CreateParams{BrowserbaseSessionID: resumeID})
	if err != nil {
		return "", err
	}

	bbID := rec.BrowserbaseSessionID()
	if bbID == "" {
		return "", errors.New("No Browserbase session ID available")
	}

	debug, err := rec.Driver.Debug(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get debug URL: %w", err)
	}

	return fmt.Sprintf("Browserbase Live Session View URL: %s\nBrowserbase Live Debugger URL: %s",
		browserbase.SessionURL(bbID), debug.DebuggerFullscreenURL), nil
}

// SessionCloseTool closes the default session along with every other
// session this server holds.
type SessionCloseTool struct{}

// NewSessionCloseTool creates a new session close tool.
func NewSessionCloseTool() *SessionCloseTool {
	return &SessionCloseTool{}
}

// Schema returns the tool's schema.
func (t *SessionCloseTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_session_close",
		Description: "Closes the current Browserbase session by shutting down its browser driver, " +
			"which cleans up the browser and ends the session recording.",
		InputSchema: dispatch.ObjectSchema(map[string]any{}),
	}
}

// Capability returns the tool's capability group.
func (t *SessionCloseTool) Capability() string { return "core" }

// Handle returns the close action.
func (t *SessionCloseTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("Failed to close Browserbase session: %w", err)
		}
		env.Default().Close(ctx)
		env.Store().RemoveAll(ctx)
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Browserbase session closed successfully."),
		}}, nil
	}}, nil
}
