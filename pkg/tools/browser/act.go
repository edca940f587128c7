package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// ActTool performs a single natural-language action on the current page.
type ActTool struct{}

// NewActTool creates a new act tool.
func NewActTool() *ActTool {
	return &ActTool{}
}

// Schema returns the tool's schema.
func (t *ActTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_stagehand_act",
		Description: "Performs an action on a web page element. Act actions should be as atomic and specific as possible, " +
			"i.e. \"Click the sign in button\" or \"Type 'hello' into the search input\". AVOID actions that are more " +
			"than one step, i.e. \"Order me pizza\" or \"Send an email to Paul asking him to call me\".",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "The action to perform. Should be as atomic and specific as possible.",
			},
			"variables": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "string",
				},
				"description": "Variables used in the action template. ONLY use variables for sensitive data or " +
					"dynamic content; reference them in the action as %name%.",
			},
		}, "action"),
	}
}

// Capability returns the tool's capability group.
func (t *ActTool) Capability() string { return "core" }

// ActInput represents the parameters for an action.
type ActInput struct {
	Action    string            `json:"action"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Handle validates input and returns the act action.
func (t *ActTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input ActInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Action == "" {
		return nil, errors.New("action is required")
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		page, err := activePage(ctx, env)
		if err != nil {
			return nil, err
		}

		res, err := page.Act(ctx, stagehand.ActOptions{
			Action:    input.Action,
			Variables: input.Variables,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to perform action: %w", err)
		}
		if !res.Success {
			return nil, fmt.Errorf("Failed to perform action: %s", res.Message)
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Action performed successfully: " + input.Action),
		}}, nil
	}}, nil
}
