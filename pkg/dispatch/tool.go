// Package dispatch routes tool calls to browser sessions and turns their
// outcome into protocol results.
//
// A tool never holds a session itself. It asks the Env it is handed for the
// current session, which is either the lazily created default session or a
// session named explicitly by the caller (see WithSessionID).
package dispatch

import (
	"context"
	"encoding/json"
)

// Tool is one capability exposed to protocol clients.
type Tool interface {
	// Schema describes the tool to clients.
	Schema() Schema

	// Capability groups tools ("core", "create_session", ...).
	Capability() string

	// Handle validates args and returns the work to perform. Returning a
	// Result without an Action acknowledges the call with a default message.
	Handle(ctx context.Context, env *Env, args json.RawMessage) (*Result, error)
}

// Schema is the public description of a tool.
type Schema struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Result is what a handler returns; Action runs after the handler succeeds.
type Result struct {
	Action func(ctx context.Context) (*ActionResult, error)
}

// ActionResult carries the content produced by an action.
type ActionResult struct {
	Content []Content
}

// ContentType is the kind of a content block.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

// Content is one block of a tool result. Data holds raw image bytes.
type Content struct {
	Type     ContentType
	Text     string
	Data     []byte
	MIMEType string
}

// TextContent returns a text block.
func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ImageContent returns an image block.
func ImageContent(data []byte, mimeType string) Content {
	return Content{Type: ContentImage, Data: data, MIMEType: mimeType}
}

// CallResult is the outcome of Context.Run as seen by the protocol layer.
type CallResult struct {
	Content []Content
	IsError bool
}

// Text returns the concatenated text blocks.
func (r *CallResult) Text() string {
	var s string
	for _, c := range r.Content {
		if c.Type == ContentText {
			if s != "" {
				s += "\n"
			}
			s += c.Text
		}
	}
	return s
}

// ObjectSchema builds a JSON schema object with the given properties and
// required fields.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Decode unmarshals tool arguments, treating empty input as an empty object.
func Decode(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}
