package session_test

import (
	"context"
	"testing"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_DriverOptions(t *testing.T) {
	persist := false
	cfg := testConfig()
	cfg.Proxies = true
	cfg.AdvancedStealth = true
	cfg.ViewPort = config.ViewPortConfig{BrowserWidth: 1280}
	cfg.Context = config.ContextConfig{ContextID: "ctx-1", Persist: &persist}
	cfg.Cookies = []config.Cookie{{Name: "sid", Value: "1", Domain: "example.com"}}
	cfg.ModelName = "openai/gpt-4o"
	cfg.ModelAPIKey = "sk-test"

	logger, _ := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}
	createParams := &browserbase.CreateSessionRequest{Region: "us-west-2"}

	rec, err := f.Adapter().Launch(context.Background(), cfg, session.CreateParams{
		BrowserbaseSessionID: "bb-existing",
		SessionCreateParams:  createParams,
		Meta:                 map[string]any{session.MetaName: "checkout"},
	}, "local-1", logger)
	require.NoError(t, err)

	opts := f.Last().Opts
	assert.Equal(t, "bb-key", opts.APIKey)
	assert.Equal(t, "proj", opts.ProjectID)
	assert.Equal(t, "bb-existing", opts.BrowserbaseSessionID)
	assert.Same(t, createParams, opts.SessionCreateParams)
	assert.True(t, opts.Proxies)
	assert.True(t, opts.AdvancedStealth)
	assert.Equal(t, &browserbase.Viewport{Width: 1280, Height: config.DefaultBrowserHeight}, opts.Viewport)
	assert.Equal(t, &browserbase.ContextSettings{ID: "ctx-1", Persist: false}, opts.Context)
	assert.Len(t, opts.Cookies, 1)
	assert.Equal(t, config.ModelSettings{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "sk-test",
		BaseURL:  "https://api.openai.com/v1",
	}, opts.Model)

	assert.Equal(t, "local-1", rec.ID)
	assert.Equal(t, "bb-existing", rec.BrowserbaseSessionID())
	assert.Equal(t, "checkout", rec.Name())
	assert.Same(t, f.Last().FakePage, rec.Page)
	assert.Same(t, f.Last().FakeBB, rec.Browser)
}

func TestAdapter_Defaults(t *testing.T) {
	cfg := testConfig()
	cfg.ViewPort = config.ViewPortConfig{}
	cfg.ProviderKeys = map[string]string{"google": "gemini-key"}

	logger, _ := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}

	_, err := f.Adapter().Launch(context.Background(), cfg, session.CreateParams{}, "local-1", logger)
	require.NoError(t, err)

	opts := f.Last().Opts
	assert.Equal(t, &browserbase.Viewport{Width: 1024, Height: 768}, opts.Viewport)
	assert.Nil(t, opts.Context)
	assert.Equal(t, "google", opts.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", opts.Model.Model)
	assert.Equal(t, "gemini-key", opts.Model.APIKey)
}

func TestAdapter_ModelOverride(t *testing.T) {
	cfg := testConfig()
	cfg.ModelName = "openai/gpt-4o"

	logger, _ := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}

	_, err := f.Adapter().Launch(context.Background(), cfg, session.CreateParams{ModelName: "anthropic/claude-3-5-sonnet-latest"}, "id", logger)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", f.Last().Opts.Model.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", f.Last().Opts.Model.Model)
}

func TestAdapter_PersistDefaultsTrue(t *testing.T) {
	cfg := testConfig()
	cfg.Context = config.ContextConfig{ContextID: "ctx-1"}

	logger, _ := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}

	_, err := f.Adapter().Launch(context.Background(), cfg, session.CreateParams{}, "id", logger)
	require.NoError(t, err)
	assert.True(t, f.Last().Opts.Context.Persist)
}

func TestNotFoundError(t *testing.T) {
	err := &session.NotFoundError{ID: "abc"}
	assert.EqualError(t, err, "Session abc not found")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
