// Package router builds the llm.Provider for a resolved model selection.
package router

import (
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/llm"
	"github.com/entrhq/browserbase-mcp/pkg/llm/anthropic"
	"github.com/entrhq/browserbase-mcp/pkg/llm/openai"
)

// New returns a provider for settings. Anthropic models use the native
// client; every other provider goes through the OpenAI-compatible one.
func New(settings config.ModelSettings) (llm.Provider, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for model provider %q", settings.Provider)
	}

	switch settings.Provider {
	case "anthropic":
		return anthropic.NewProvider(settings.APIKey,
			anthropic.WithModel(settings.Model),
			anthropic.WithBaseURL(settings.BaseURL),
		)
	default:
		return openai.NewProvider(settings.APIKey,
			openai.WithModel(settings.Model),
			openai.WithBaseURL(settings.BaseURL),
			openai.WithTemperature(0),
			openai.WithJSONMode(),
		)
	}
}
