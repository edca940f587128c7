package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BROWSERBASE_API_KEY", "BROWSERBASE_PROJECT_ID",
		"MODEL_NAME", "MODEL_API_KEY", "MODEL_BASE_URL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GROQ_API_KEY", "CEREBRAS_API_KEY",
		"PORT", "HOST", "LOG_LEVEL",
	} {
		// Setenv registers the restore; an empty PORT would fail int parsing.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1024, cfg.ViewPort.BrowserWidth)
	assert.Equal(t, 768, cfg.ViewPort.BrowserHeight)
	assert.Equal(t, DefaultModelName, cfg.ModelName)
	assert.True(t, cfg.Context.ShouldPersist())
	assert.False(t, cfg.UsesHTTP())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
browserbaseApiKey: file-key
browserbaseProjectId: file-project
proxies: true
context:
  contextId: ctx-1
  persist: false
viewPort:
  browserWidth: 1280
  browserHeight: 720
server:
  port: 8080
modelName: openai/gpt-4o
`)
	t.Setenv("BROWSERBASE_API_KEY", "env-key")
	t.Setenv("PORT", "9090")

	port := 7070
	cfg, err := Load(path, Overrides{Port: &port})
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.BrowserbaseAPIKey, "env beats file")
	assert.Equal(t, "file-project", cfg.BrowserbaseProjectID)
	assert.Equal(t, 7070, cfg.Server.Port, "flags beat env")
	assert.Equal(t, "localhost", cfg.Server.Host, "defaults survive")
	assert.True(t, cfg.Proxies)
	assert.Equal(t, "ctx-1", cfg.Context.ContextID)
	assert.False(t, cfg.Context.ShouldPersist())
	assert.Equal(t, 1280, cfg.ViewPort.BrowserWidth)
	assert.Equal(t, "openai/gpt-4o", cfg.ModelName)
	assert.True(t, cfg.UsesHTTP())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Overrides{})
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "viewPort: [nope"), Overrides{})
	assert.ErrorContains(t, err, "failed to parse config file")

	width := 50
	_, err = Load("", Overrides{BrowserWidth: &width})
	assert.ErrorContains(t, err, "viewport width")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "height too large",
			mutate:  func(c *Config) { c.ViewPort.BrowserHeight = 6000 },
			wantErr: "viewport height",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "server port out of range",
		},
		{
			name:    "negative max sessions",
			mutate:  func(c *Config) { c.MaxSessions = -2 },
			wantErr: "maxSessions",
		},
		{
			name:    "cookie without domain",
			mutate:  func(c *Config) { c.Cookies = []Cookie{{Name: "sid", Value: "1"}} },
			wantErr: "cookie 0",
		},
		{
			name:    "bad domain pattern",
			mutate:  func(c *Config) { c.AllowedDomains = []string{"[a-"} },
			wantErr: "invalid allowed domain pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOverrides_Apply(t *testing.T) {
	cfg := Default()
	persist := false
	stealth := true
	host := "0.0.0.0"
	Overrides{
		Persist:         &persist,
		AdvancedStealth: &stealth,
		Host:            &host,
		Cookies:         []Cookie{{Name: "a", Value: "b", Domain: ".example.com"}},
	}.Apply(cfg)

	assert.False(t, cfg.Context.ShouldPersist())
	assert.True(t, cfg.AdvancedStealth)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Len(t, cfg.Cookies, 1)
	assert.Equal(t, ".example.com", cfg.Cookies[0].Domain)
}

func TestResolveModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("OPENAI_API_KEY", "oai")

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)

	tests := []struct {
		name         string
		model        string
		wantProvider string
		wantModel    string
		wantKey      string
		wantURL      string
	}{
		{
			name:         "default gemini",
			wantProvider: "google",
			wantModel:    "gemini-2.0-flash",
			wantKey:      "gem",
			wantURL:      "https://generativelanguage.googleapis.com/v1beta/openai",
		},
		{
			name:         "openai prefix",
			model:        "openai/gpt-4o",
			wantProvider: "openai",
			wantModel:    "gpt-4o",
			wantKey:      "oai",
			wantURL:      "https://api.openai.com/v1",
		},
		{
			name:         "bare name treated as openai",
			model:        "gpt-4o-mini",
			wantProvider: "openai",
			wantModel:    "gpt-4o-mini",
			wantKey:      "oai",
			wantURL:      "https://api.openai.com/v1",
		},
		{
			name:         "unknown prefix kept whole",
			model:        "acme/model-x",
			wantProvider: "openai",
			wantModel:    "acme/model-x",
			wantKey:      "oai",
			wantURL:      "https://api.openai.com/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.ResolveModel(tt.model)
			assert.Equal(t, tt.wantProvider, got.Provider)
			assert.Equal(t, tt.wantModel, got.Model)
			assert.Equal(t, tt.wantKey, got.APIKey)
			assert.Equal(t, tt.wantURL, got.BaseURL)
		})
	}

	t.Run("explicit key and base url win", func(t *testing.T) {
		c := *cfg
		c.ModelAPIKey = "explicit"
		c.ModelBaseURL = "http://localhost:11434/v1"
		got := c.ResolveModel("google/gemini-2.0-flash")
		assert.Equal(t, "explicit", got.APIKey)
		assert.Equal(t, "http://localhost:11434/v1", got.BaseURL)
	})
}

func TestMissingDefaultModelKey(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.MissingDefaultModelKey())

	cfg.ProviderKeys["google"] = "gem"
	assert.False(t, cfg.MissingDefaultModelKey())

	cfg = Default()
	cfg.ModelName = "openai/gpt-4o"
	assert.False(t, cfg.MissingDefaultModelKey())
}

func TestDomainMatcher(t *testing.T) {
	m, err := NewDomainMatcher([]string{"example.com", "*.example.com", "docs.*.org"})
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/path", true},
		{"https://www.example.com", true},
		{"https://WWW.Example.com", true},
		{"https://a.b.example.com", false},
		{"https://docs.golang.org", true},
		{"https://evil.com", false},
		{"about:blank", true},
		{"file:///etc/passwd", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := m.Allows(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	open, err := NewDomainMatcher(nil)
	require.NoError(t, err)
	ok, err := open.Allows("https://anything.test")
	require.NoError(t, err)
	assert.True(t, ok)
}
