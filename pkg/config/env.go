package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envConfig lists the environment variables the server reads.
type envConfig struct {
	BrowserbaseAPIKey    string `envconfig:"BROWSERBASE_API_KEY"`
	BrowserbaseProjectID string `envconfig:"BROWSERBASE_PROJECT_ID"`

	ModelName    string `envconfig:"MODEL_NAME"`
	ModelAPIKey  string `envconfig:"MODEL_API_KEY"`
	ModelBaseURL string `envconfig:"MODEL_BASE_URL"`

	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	GroqAPIKey      string `envconfig:"GROQ_API_KEY"`
	CerebrasAPIKey  string `envconfig:"CEREBRAS_API_KEY"`

	Port     int    `envconfig:"PORT"`
	Host     string `envconfig:"HOST"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}

func (c *Config) applyEnv() error {
	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	setIfEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIfEmpty(&c.BrowserbaseAPIKey, env.BrowserbaseAPIKey)
	setIfEmpty(&c.BrowserbaseProjectID, env.BrowserbaseProjectID)
	setIfEmpty(&c.ModelName, env.ModelName)
	setIfEmpty(&c.ModelAPIKey, env.ModelAPIKey)
	setIfEmpty(&c.ModelBaseURL, env.ModelBaseURL)
	setIfEmpty(&c.Server.Host, env.Host)
	setIfEmpty(&c.LogLevel, env.LogLevel)
	if env.Port != 0 {
		c.Server.Port = env.Port
	}

	if c.ProviderKeys == nil {
		c.ProviderKeys = make(map[string]string)
	}
	for provider, key := range map[string]string{
		"google":    env.GeminiAPIKey,
		"openai":    env.OpenAIAPIKey,
		"anthropic": env.AnthropicAPIKey,
		"groq":      env.GroqAPIKey,
		"cerebras":  env.CerebrasAPIKey,
	} {
		if key != "" {
			c.ProviderKeys[provider] = key
		}
	}
	return nil
}
