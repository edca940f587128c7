package config

import "strings"

// ModelSettings is the resolved model selection for a session's driver.
type ModelSettings struct {
	// Provider is the prefix of the model name ("google", "openai", ...).
	Provider string
	// Model is the name sent to the provider, without the prefix.
	Model   string
	APIKey  string
	BaseURL string
}

// Default endpoints for the providers a model name may be prefixed with.
// All are OpenAI-compatible except anthropic, which is called through its
// native Messages API.
var providerBaseURLs = map[string]string{
	"google":    "https://generativelanguage.googleapis.com/v1beta/openai",
	"openai":    "https://api.openai.com/v1",
	"anthropic": "https://api.anthropic.com",
	"groq":      "https://api.groq.com/openai/v1",
	"cerebras":  "https://api.cerebras.ai/v1",
}

// ResolveModel resolves modelName (or the configured model when empty) into
// provider, bare model name, key and endpoint. The configured model API key
// wins over provider keys from the environment; ModelBaseURL wins over the
// provider's default endpoint.
func (c *Config) ResolveModel(modelName string) ModelSettings {
	if modelName == "" {
		modelName = c.ModelName
	}
	if modelName == "" {
		modelName = DefaultModelName
	}

	settings := ModelSettings{Provider: "openai", Model: modelName}
	if provider, model, ok := strings.Cut(modelName, "/"); ok {
		if _, known := providerBaseURLs[provider]; known {
			settings.Provider = provider
			settings.Model = model
		}
	}

	settings.BaseURL = providerBaseURLs[settings.Provider]
	if c.ModelBaseURL != "" {
		settings.BaseURL = c.ModelBaseURL
	}

	settings.APIKey = c.ModelAPIKey
	if settings.APIKey == "" && c.ProviderKeys != nil {
		settings.APIKey = c.ProviderKeys[settings.Provider]
	}
	return settings
}

// MissingDefaultModelKey reports whether the default Gemini model is selected
// without any key to call it with.
func (c *Config) MissingDefaultModelKey() bool {
	m := c.ResolveModel("")
	return m.Provider == "google" && strings.HasPrefix(m.Model, "gemini") && m.APIKey == ""
}
