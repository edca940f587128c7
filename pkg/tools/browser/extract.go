package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// ExtractTool pulls structured data out of the current page.
type ExtractTool struct{}

// NewExtractTool creates a new extract tool.
func NewExtractTool() *ExtractTool {
	return &ExtractTool{}
}

// Schema returns the tool's schema.
func (t *ExtractTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_stagehand_extract",
		Description: "Extracts structured information and text content from the current web page based on specific " +
			"instructions and an optional JSON schema. Use this tool to get text, data or information from a page " +
			"rather than to interact with elements; for buttons, forms and other interactive elements use the " +
			"observe tool instead.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"instruction": map[string]any{
				"type": "string",
				"description": "The specific instruction for what information to extract from the current page, " +
					"e.g. 'Extract all product names and prices from the listing page'. Be explicit about the " +
					"exact elements, text or information you need.",
			},
			"schema": map[string]any{
				"type": "string",
				"description": "A JSON schema string describing the structure of the data to extract, e.g. " +
					"'{\"type\": \"object\", \"properties\": {\"title\": {\"type\": \"string\"}}}'.",
			},
		}, "instruction"),
	}
}

// Capability returns the tool's capability group.
func (t *ExtractTool) Capability() string { return "core" }

// ExtractInput represents the parameters for an extraction.
type ExtractInput struct {
	Instruction string `json:"instruction"`
	Schema      string `json:"schema,omitempty"`
}

// Handle returns the extraction action. The schema is checked when the
// action runs so a malformed one is reported like any extraction failure.
func (t *ExtractTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input ExtractInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		text, err := extract(ctx, env, input)
		if err != nil {
			return nil, fmt.Errorf("Failed to extract content: %w", err)
		}
		return &dispatch.ActionResult{Content: []dispatch.Content{dispatch.TextContent(text)}}, nil
	}}, nil
}

func extract(ctx context.Context, env *dispatch.Env, input ExtractInput) (string, error) {
	page, err := activePage(ctx, env)
	if err != nil {
		return "", err
	}

	var schema json.RawMessage
	if s := strings.TrimSpace(input.Schema); s != "" {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return "", fmt.Errorf("Invalid schema format: %w", err)
		}
		schema = json.RawMessage(s)
	}

	out, err := page.Extract(ctx, stagehand.ExtractOptions{
		Instruction: input.Instruction,
		Schema:      schema,
	})
	if err != nil {
		return "", err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		return "Extracted content:\n" + string(out), nil
	}
	return "Extracted content:\n" + pretty.String(), nil
}
