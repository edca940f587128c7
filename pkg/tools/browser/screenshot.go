package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// ScreenshotTool captures the current page and publishes it as a
// screenshot:// resource.
type ScreenshotTool struct {
	now func() time.Time
}

// NewScreenshotTool creates a new screenshot tool.
func NewScreenshotTool() *ScreenshotTool {
	return &ScreenshotTool{now: time.Now}
}

// Schema returns the tool's schema.
func (t *ScreenshotTool) Schema() dispatch.Schema {
	return dispatch.Schema{
		Name: "browserbase_screenshot",
		Description: "Takes a screenshot of the current page. Use this tool to learn where you are on the page " +
			"when controlling the browser. The image is returned and kept as a readable resource.",
		InputSchema: dispatch.ObjectSchema(map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "The name of the screenshot; a timestamped name is used when empty",
			},
			"fullPage": map[string]any{
				"type":        "boolean",
				"description": "Capture the whole scrollable page instead of the viewport",
			},
		}),
	}
}

// Capability returns the tool's capability group.
func (t *ScreenshotTool) Capability() string { return "core" }

// ScreenshotInput represents the parameters for a screenshot.
type ScreenshotInput struct {
	Name     string `json:"name,omitempty"`
	FullPage bool   `json:"fullPage,omitempty"`
}

// Handle returns the capture action.
func (t *ScreenshotTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	var input ScreenshotInput
	if err := dispatch.Decode(args, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "screenshot-" + strings.ReplaceAll(t.now().UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	}

	return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
		page, err := activePage(ctx, env)
		if err != nil {
			return nil, err
		}

		data, err := page.Screenshot(ctx, stagehand.ScreenshotOptions{FullPage: input.FullPage})
		if err != nil {
			return nil, fmt.Errorf("Failed to take screenshot: %w", err)
		}
		if len(data) == 0 {
			return nil, errors.New("Failed to take screenshot: empty image")
		}

		mtype := mimetype.Detect(data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, fmt.Errorf("Failed to take screenshot: unexpected content type %s", mtype.String())
		}

		shot := env.Screenshots().Add(name, data, mtype.String())
		env.Logger().Infof("Screenshot saved: %s (%d bytes)", shot.URI(), len(data))

		return &dispatch.ActionResult{Content: []dispatch.Content{
			dispatch.TextContent("Screenshot taken with name: " + name),
			dispatch.ImageContent(data, shot.MIMEType),
		}}, nil
	}}, nil
}
