// Package anthropic provides an LLM provider backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/entrhq/browserbase-mcp/pkg/llm"
	"github.com/entrhq/browserbase-mcp/pkg/llm/parser"
	"github.com/entrhq/browserbase-mcp/pkg/types"
)

// DefaultModel is used when no model option is given.
const DefaultModel = "claude-3-5-sonnet-latest"

// Provider wraps the Anthropic client behind llm.Provider.
type Provider struct {
	client    *anthropic.Client
	modelInfo *types.ModelInfo
	model     string
	maxTokens int64
}

type options struct {
	httpClient *http.Client
	model      string
	baseURL    string
	maxTokens  int64
}

// Option configures a Provider.
type Option func(*options)

// WithModel sets the model id, e.g. "claude-3-5-sonnet-latest".
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient replaces the SDK's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int64) Option {
	return func(o *options) {
		o.maxTokens = n
	}
}

// NewProvider creates a provider authenticated with apiKey.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	o := options{model: DefaultModel, maxTokens: 4096}
	for _, fn := range opts {
		fn(&o)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{
		client:    &client,
		model:     o.model,
		maxTokens: o.maxTokens,
		modelInfo: &types.ModelInfo{
			Provider:  "anthropic",
			Name:      o.model,
			MaxTokens: int(o.maxTokens),
			Metadata:  make(map[string]interface{}),
		},
	}, nil
}

// Complete sends messages through the Messages API. System messages become
// the request's system blocks.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case types.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	// Models prompted to think aloud still tag their reasoning inline.
	tp := parser.NewThinkingParser()
	thinking, message := tp.Parse(text.String())
	ft, fm := tp.Flush()

	out := types.NewAssistantMessage(joinChunks(message, fm))
	if th := joinChunks(thinking, ft); th != "" {
		out.WithMetadata("thinking", th)
	}
	return out, nil
}

func joinChunks(chunks ...*llm.StreamChunk) string {
	var s string
	for _, c := range chunks {
		if c != nil {
			s += c.Content
		}
	}
	return s
}

// StreamCompletion delivers the completed response as a single chunk.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	out := make(chan *llm.StreamChunk, 2)
	go func() {
		defer close(out)
		msg, err := p.Complete(ctx, messages)
		if err != nil {
			out <- &llm.StreamChunk{Error: err}
			return
		}
		out <- &llm.StreamChunk{Role: string(msg.Role), Content: msg.Content, Type: llm.ContentTypeMessage}
		out <- &llm.StreamChunk{Finished: true}
	}()
	return out, nil
}

// GetModelInfo returns information about the model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}
