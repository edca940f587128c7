package stagehand

import (
	"context"
	"encoding/json"
	"time"
)

// Page is the active tab of a driver. Its browser handle always belongs to
// the same driver.
type Page interface {
	Goto(ctx context.Context, url string) error
	URL() string
	Title() (string, error)
	IsClosed() bool

	// Act performs one natural-language action on the page.
	Act(ctx context.Context, opts ActOptions) (*ActResult, error)
	// Extract returns page data shaped by the instruction and optional schema.
	Extract(ctx context.Context, opts ExtractOptions) (json.RawMessage, error)
	// Observe lists elements matching the instruction with suggested actions.
	Observe(ctx context.Context, opts ObserveOptions) ([]ObserveResult, error)

	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)
	Browser() Browser
}

// Browser is the remote browser connection behind a page.
type Browser interface {
	IsConnected() bool
	// OnDisconnected registers fn to run once when the connection drops.
	// The returned func unregisters it; fn will not be started after that
	// returns.
	OnDisconnected(fn func()) (unregister func())
}

// ActOptions describes one action. Either Action or Observed is set; an
// observed result is replayed without consulting the model.
type ActOptions struct {
	Action    string
	Variables map[string]string
	Observed  *ObserveResult
	Timeout   time.Duration
}

// ActResult reports the outcome of Act. A false Success with a nil error
// means the model found no element to act on.
type ActResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// ExtractOptions describes an extraction. Schema is a JSON schema document.
type ExtractOptions struct {
	Instruction string
	Schema      json.RawMessage
}

// ObserveOptions describes an observation.
type ObserveOptions struct {
	Instruction string
}

// ObserveResult is an element found by Observe, replayable through Act.
type ObserveResult struct {
	Selector    string   `json:"selector"`
	Description string   `json:"description"`
	Method      string   `json:"method,omitempty"`
	Arguments   []string `json:"arguments,omitempty"`
}

// ScreenshotOptions controls Screenshot.
type ScreenshotOptions struct {
	FullPage bool
}
