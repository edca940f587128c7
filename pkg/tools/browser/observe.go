package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// ObserveTool lists actionable elements on the current page.
type ObserveTool struct{}

// NewObserveTool creates a new observe tool.
func NewObserveTool() *ObserveTool {
	return &ObserveTool{}
}

// Schema returns the tool's schema.
func (t *ObserveTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_stagehand_observe",
		Description: "Observes elements on the web page. Use this tool to find actionable (interactable) elements " +
			"such as buttons, links and form fields before acting on them. Each result carries a selector and " +
			"a suggested method.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"instruction": map[string]any{
				"type": "string",
				"description": "Instruction for observation (e.g., 'find the login button'). Be specific about " +
					"the element you are looking for.",
			},
		}, "instruction"),
	}
}

// Capability returns the tool's capability group.
func (t *ObserveTool) Capability() string { return "core" }

// ObserveInput represents the parameters for an observation.
type ObserveInput struct {
	Instruction string `json:"instruction"`
}

// Handle validates input and returns the observe action.
func (t *ObserveTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input ObserveInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Instruction == "" {
		return nil, errors.New("instruction is required")
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		page, err := activePage(ctx, env)
		if err != nil {
			return nil, err
		}

		found, err := page.Observe(ctx, stagehand.ObserveOptions{Instruction: input.Instruction})
		if err != nil {
			return nil, fmt.Errorf("Failed to observe: %w", err)
		}
		if found == nil {
			found = []stagehand.ObserveResult{}
		}

		out, err := json.MarshalIndent(found, "", "  ")
		if err != nil {
			return nil, err
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Observations: " + string(out)),
		}}, nil
	}}, nil
}
