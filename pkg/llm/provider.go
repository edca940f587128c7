// Package llm provides abstractions for LLM provider integration.
//
// The browser driver prompts a Provider to plan actions, extract data and
// observe pages. Providers only speak chat completions; turning a completion
// into browser work is the driver's job.
//
// Example usage:
//
//	provider, err := openai.NewProvider(apiKey,
//	    openai.WithBaseURL("https://generativelanguage.googleapis.com/v1beta/openai"),
//	    openai.WithModel("gemini-2.0-flash"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage(systemPrompt),
//	    types.NewUserMessage(snapshot),
//	})
package llm

import (
	"context"

	"github.com/entrhq/browserbase-mcp/pkg/types"
)

// Provider defines the interface for LLM integrations.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response chunks.
	//
	// The returned channel emits StreamChunk instances:
	// - First chunk typically has Role set (e.g., "assistant")
	// - Subsequent chunks contain Content deltas
	// - Final chunk has Finished=true
	// - Error chunks have Error set
	//
	// The channel is closed when streaming completes or an error occurs.
	// Returns an error only if streaming cannot be initiated. Stream-time
	// errors are sent as StreamChunk instances with Error set.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response.
	//
	// Thinking content is kept out of the returned message's Content and
	// stored under Metadata["thinking"] instead.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}
