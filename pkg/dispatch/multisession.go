package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/entrhq/browserbase-mcp/pkg/session"
)

const sessionIDField = "sessionId"

// WithSessionID derives a variant of tool that runs against the session
// named by a required sessionId argument. The original tool is unchanged;
// its handler receives every other argument as sent.
func WithSessionID(tool Tool, prefix, suffix string) Tool {
	base := tool.Schema()

	input := maps.Clone(base.InputSchema)
	if input == nil {
		input = map[string]any{"type": "object"}
	}

	props := map[string]any{
		sessionIDField: map[string]any{
			"type":        "string",
			"description": "The session ID to use",
		},
	}
	if orig, ok := input["properties"].(map[string]any); ok {
		maps.Copy(props, orig)
	}
	input["properties"] = props

	required := []string{sessionIDField}
	if orig, ok := input["required"].([]string); ok {
		for _, r := range orig {
			if r != sessionIDField {
				required = append(required, r)
			}
		}
	}
	input["required"] = slices.Clip(required)

	return &sessionTool{
		base: tool,
		schema: Schema{
			Name:        prefix + base.Name + suffix,
			Description: base.Description + " (for a specific session)",
			InputSchema: input,
		},
	}
}

type sessionTool struct {
	base   Tool
	schema Schema
}

func (t *sessionTool) Schema() Schema     { return t.schema }
func (t *sessionTool) Capability() string { return t.base.Capability() }

func (t *sessionTool) Handle(ctx context.Context, env *Env, args json.RawMessage) (*Result, error) {
	fields := map[string]json.RawMessage{}
	if err := Decode(args, &fields); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var id string
	if raw, ok := fields[sessionIDField]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("invalid sessionId: %w", err)
		}
	}
	if id == "" {
		return nil, errors.New("sessionId is required")
	}
	delete(fields, sessionIDField)

	rec, ok := env.Store().Get(id)
	if !ok {
		return nil, &session.NotFoundError{ID: id}
	}

	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return t.base.Handle(ctx, env.WithSession(rec), rest)
}
