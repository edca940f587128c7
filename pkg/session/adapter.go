package session

import (
	"context"
	"fmt"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// CreateParams are per-call overrides for a new session.
type CreateParams struct {
	APIKey    string
	ProjectID string
	ModelName string

	// BrowserbaseSessionID resumes a running remote session.
	BrowserbaseSessionID string
	SessionCreateParams  *browserbase.CreateSessionRequest

	// Meta is copied into the record's metadata.
	Meta map[string]any
}

// credentials resolves the API key and project id, params first.
func (p CreateParams) credentials(cfg *config.Config) (apiKey, projectID string) {
	apiKey, projectID = p.APIKey, p.ProjectID
	if apiKey == "" {
		apiKey = cfg.BrowserbaseAPIKey
	}
	if projectID == "" {
		projectID = cfg.BrowserbaseProjectID
	}
	return apiKey, projectID
}

// DriverFactory builds an uninitialized driver.
type DriverFactory func(opts stagehand.Options) Driver

// Launcher provisions one record. *Adapter implements it.
type Launcher interface {
	Launch(ctx context.Context, cfg *config.Config, params CreateParams, sessionID string, logger *logging.Logger) (*Record, error)
}

// Adapter launches drivers against Browserbase.
type Adapter struct {
	NewDriver DriverFactory
	// Runtime is shared by every driver; nil uses the process default.
	Runtime *stagehand.Runtime
}

// NewAdapter returns an adapter that launches stagehand drivers.
func NewAdapter() *Adapter {
	return &Adapter{
		NewDriver: func(opts stagehand.Options) Driver { return stagehand.New(opts) },
	}
}

// Launch provisions a browser and returns its record. Nothing is left running
// when it fails.
func (a *Adapter) Launch(ctx context.Context, cfg *config.Config, params CreateParams, sessionID string, logger *logging.Logger) (*Record, error) {
	apiKey, projectID := params.credentials(cfg)
	if apiKey == "" || projectID == "" {
		return nil, fmt.Errorf("%w: Browserbase API Key and Project ID are required", ErrConfiguration)
	}

	opts := a.driverOptions(cfg, params, apiKey, projectID)
	opts.Logger = func(line string) {
		logger.Infof("Stagehand[%s]: %s", sessionID, line)
	}

	driver := a.NewDriver(opts)
	if err := driver.Init(ctx); err != nil {
		closeQuietly(driver, logger, sessionID)
		return nil, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}

	page := driver.Page()
	if page == nil {
		closeQuietly(driver, logger, sessionID)
		return nil, fmt.Errorf("%w: no page after initialization", ErrLaunch)
	}
	browser := page.Browser()
	if browser == nil || !browser.IsConnected() {
		closeQuietly(driver, logger, sessionID)
		return nil, fmt.Errorf("%w: failed to get browser from page context", ErrLaunch)
	}

	rec := newRecord(sessionID, driver, page, browser, params.Meta)
	rec.SetMeta(MetaBrowserbaseSessionID, driver.BrowserbaseSessionID())
	return rec, nil
}

func (a *Adapter) driverOptions(cfg *config.Config, params CreateParams, apiKey, projectID string) stagehand.Options {
	width, height := cfg.ViewPort.BrowserWidth, cfg.ViewPort.BrowserHeight
	if width == 0 {
		width = config.DefaultBrowserWidth
	}
	if height == 0 {
		height = config.DefaultBrowserHeight
	}

	opts := stagehand.Options{
		APIKey:               apiKey,
		ProjectID:            projectID,
		BrowserbaseSessionID: params.BrowserbaseSessionID,
		SessionCreateParams:  params.SessionCreateParams,
		Viewport:             &browserbase.Viewport{Width: width, Height: height},
		Proxies:              cfg.Proxies,
		AdvancedStealth:      cfg.AdvancedStealth,
		Cookies:              cfg.Cookies,
		Model:                cfg.ResolveModel(params.ModelName),
		Runtime:              a.Runtime,
	}
	if cfg.Context.ContextID != "" {
		opts.Context = &browserbase.ContextSettings{
			ID:      cfg.Context.ContextID,
			Persist: cfg.Context.ShouldPersist(),
		}
	}
	return opts
}

func closeQuietly(d Driver, logger *logging.Logger, sessionID string) {
	if err := d.Close(context.Background()); err != nil {
		logger.Warnf("Failed to clean up session %s: %v", sessionID, err)
	}
}
