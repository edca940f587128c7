// Package config holds the server configuration: Browserbase credentials,
// remote browser settings, model selection and transport options.
//
// Values are resolved with the precedence CLI flags > environment variables >
// config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultModelName is used when neither the call nor the configuration
	// selects a model.
	DefaultModelName = "google/gemini-2.0-flash"

	DefaultBrowserWidth  = 1024
	DefaultBrowserHeight = 768
	DefaultHost          = "localhost"
	DefaultLogLevel      = "info"
)

// Config is the read-only configuration shared by every session.
type Config struct {
	BrowserbaseAPIKey    string `yaml:"browserbaseApiKey" json:"browserbaseApiKey"`
	BrowserbaseProjectID string `yaml:"browserbaseProjectId" json:"browserbaseProjectId"`

	// Proxies enables Browserbase proxies for new sessions.
	Proxies bool `yaml:"proxies" json:"proxies"`

	// AdvancedStealth is only available on the Browserbase Scale plan.
	AdvancedStealth bool `yaml:"advancedStealth" json:"advancedStealth"`

	Context  ContextConfig  `yaml:"context" json:"context"`
	ViewPort ViewPortConfig `yaml:"viewPort" json:"viewPort"`

	// Cookies are injected into the remote browser context at creation.
	Cookies []Cookie `yaml:"cookies" json:"cookies"`

	Server ServerConfig `yaml:"server" json:"server"`

	ModelName    string `yaml:"modelName" json:"modelName"`
	ModelAPIKey  string `yaml:"modelApiKey" json:"modelApiKey"`
	ModelBaseURL string `yaml:"modelBaseUrl" json:"modelBaseUrl"`

	// AllowedDomains restricts navigation to hosts matching one of the glob
	// patterns (e.g. "*.example.com"). Empty allows every host.
	AllowedDomains []string `yaml:"allowedDomains" json:"allowedDomains"`

	// MaxSessions caps concurrently live sessions; 0 means unlimited.
	MaxSessions int `yaml:"maxSessions" json:"maxSessions"`

	LogLevel string `yaml:"logLevel" json:"logLevel"`

	// ProviderKeys holds model-provider API keys found in the environment,
	// keyed by provider prefix ("google", "openai", ...).
	ProviderKeys map[string]string `yaml:"-" json:"-"`
}

// ContextConfig selects a persisted Browserbase context.
type ContextConfig struct {
	ContextID string `yaml:"contextId" json:"contextId"`
	Persist   *bool  `yaml:"persist" json:"persist"`
}

// ShouldPersist reports whether context changes are saved; defaults to true.
func (c ContextConfig) ShouldPersist() bool {
	if c.Persist == nil {
		return true
	}
	return *c.Persist
}

// ViewPortConfig sets the remote browser viewport.
type ViewPortConfig struct {
	BrowserWidth  int `yaml:"browserWidth" json:"browserWidth"`
	BrowserHeight int `yaml:"browserHeight" json:"browserHeight"`
}

// ServerConfig configures the streamable HTTP transport. A zero port means
// the server speaks over stdio.
type ServerConfig struct {
	Port int    `yaml:"port" json:"port"`
	Host string `yaml:"host" json:"host"`
}

// Cookie is a browser cookie injected into new sessions.
type Cookie struct {
	Name     string  `yaml:"name" json:"name"`
	Value    string  `yaml:"value" json:"value"`
	Domain   string  `yaml:"domain" json:"domain"`
	Path     string  `yaml:"path" json:"path,omitempty"`
	Expires  float64 `yaml:"expires" json:"expires,omitempty"`
	HTTPOnly bool    `yaml:"httpOnly" json:"httpOnly,omitempty"`
	Secure   bool    `yaml:"secure" json:"secure,omitempty"`
	SameSite string  `yaml:"sameSite" json:"sameSite,omitempty"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		ViewPort: ViewPortConfig{
			BrowserWidth:  DefaultBrowserWidth,
			BrowserHeight: DefaultBrowserHeight,
		},
		Server: ServerConfig{
			Host: DefaultHost,
		},
		ModelName:    DefaultModelName,
		LogLevel:     DefaultLogLevel,
		ProviderKeys: make(map[string]string),
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment and CLI overrides, in that order, then validates it.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.ProviderKeys == nil {
		c.ProviderKeys = make(map[string]string)
	}
	return nil
}

// Validate checks ranges and patterns. Missing credentials are not an error
// here: they are reported when a session is created.
func (c *Config) Validate() error {
	var errs []error

	if w := c.ViewPort.BrowserWidth; w != 0 && (w < 100 || w > 5000) {
		errs = append(errs, fmt.Errorf("viewport width must be between 100 and 5000 pixels, got %d", w))
	}
	if h := c.ViewPort.BrowserHeight; h != 0 && (h < 100 || h > 5000) {
		errs = append(errs, fmt.Errorf("viewport height must be between 100 and 5000 pixels, got %d", h))
	}
	if p := c.Server.Port; p < 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", p))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("maxSessions must not be negative"))
	}
	for i, ck := range c.Cookies {
		if ck.Name == "" || ck.Domain == "" {
			errs = append(errs, fmt.Errorf("cookie %d: name and domain are required", i))
		}
	}
	if _, err := NewDomainMatcher(c.AllowedDomains); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// UsesHTTP reports whether the streamable HTTP transport is selected.
func (c *Config) UsesHTTP() bool {
	return c.Server.Port > 0
}
