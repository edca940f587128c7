// Package stagehand drives a remote Browserbase browser over CDP and adds
// model-assisted actions (act, extract, observe) on top of playwright.
package stagehand

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/llm"
	"github.com/entrhq/browserbase-mcp/pkg/llm/router"
	"github.com/playwright-community/playwright-go"
)

// SessionAPI is the part of the Browserbase client the driver needs.
type SessionAPI interface {
	CreateSession(ctx context.Context, req browserbase.CreateSessionRequest) (*browserbase.Session, error)
	GetSession(ctx context.Context, id string) (*browserbase.Session, error)
	Debug(ctx context.Context, id string) (*browserbase.DebugURLs, error)
	ReleaseSession(ctx context.Context, projectID, id string) error
}

// Options configures a Stagehand.
type Options struct {
	APIKey    string
	ProjectID string

	// BrowserbaseSessionID resumes an existing session instead of creating one.
	BrowserbaseSessionID string
	// SessionCreateParams is used as the base of the create request.
	SessionCreateParams *browserbase.CreateSessionRequest

	Viewport        *browserbase.Viewport
	Context         *browserbase.ContextSettings
	Proxies         bool
	AdvancedStealth bool
	Cookies         []config.Cookie

	Model config.ModelSettings
	// LLM overrides the provider built from Model.
	LLM             llm.Provider
	ProviderFactory func(config.ModelSettings) (llm.Provider, error)

	// Logger receives one line per driver event.
	Logger func(line string)

	API               SessionAPI
	Runtime           *Runtime
	Counter           TokenCounter
	MaxSnapshotTokens int
}

// Stagehand is one remote browser session.
type Stagehand struct {
	opts Options

	mu        sync.Mutex
	api       SessionAPI
	projectID string
	sessionID string
	browser   playwright.Browser
	page      *page
	closed    bool
}

// New returns an uninitialized driver; call Init before Page.
func New(opts Options) *Stagehand {
	if opts.Runtime == nil {
		opts.Runtime = DefaultRuntime()
	}
	if opts.Counter == nil {
		opts.Counter = NewTokenCounter()
	}
	if opts.MaxSnapshotTokens == 0 {
		opts.MaxSnapshotTokens = DefaultSnapshotTokens
	}
	if opts.ProviderFactory == nil {
		opts.ProviderFactory = router.New
	}
	return &Stagehand{opts: opts}
}

func (s *Stagehand) logf(format string, args ...any) {
	if s.opts.Logger == nil {
		return
	}
	s.opts.Logger(fmt.Sprintf(format, args...))
}

// Init provisions (or resumes) the remote session and connects to it.
func (s *Stagehand) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		return nil
	}
	if s.closed {
		return errors.New("stagehand is closed")
	}

	api := s.opts.API
	if api == nil {
		client, err := browserbase.NewClient(s.opts.APIKey)
		if err != nil {
			return err
		}
		api = client
	}
	s.api = api

	sess, err := s.acquireSession(ctx)
	if err != nil {
		return err
	}
	s.sessionID = sess.ID
	s.projectID = s.opts.ProjectID
	if sess.ProjectID != "" {
		s.projectID = sess.ProjectID
	}

	connectURL := sess.ConnectURL
	if connectURL == "" {
		debug, err := api.Debug(ctx, sess.ID)
		if err != nil {
			return err
		}
		connectURL = debug.WsURL
	}
	if connectURL == "" {
		return fmt.Errorf("session %s has no connect URL", sess.ID)
	}

	pw, err := s.opts.Runtime.Start()
	if err != nil {
		return err
	}

	b, err := pw.Chromium.ConnectOverCDP(connectURL)
	if err != nil {
		return fmt.Errorf("failed to connect to session %s: %w", sess.ID, err)
	}
	s.logf("connected to browser for session %s", sess.ID)

	pg, err := firstPage(b)
	if err != nil {
		_ = b.Close()
		return err
	}

	if len(s.opts.Cookies) > 0 {
		if err := pg.Context().AddCookies(toPlaywrightCookies(s.opts.Cookies)); err != nil {
			_ = b.Close()
			return fmt.Errorf("failed to add cookies: %w", err)
		}
		s.logf("added %d cookies", len(s.opts.Cookies))
	}

	models := &modelSource{build: s.buildProvider}
	s.browser = b
	s.page = newPage(pg, newBrowser(b), models, s.opts.Counter, s.opts.MaxSnapshotTokens, s.logf)
	return nil
}

func (s *Stagehand) acquireSession(ctx context.Context) (*browserbase.Session, error) {
	if id := s.opts.BrowserbaseSessionID; id != "" {
		sess, err := s.api.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess.Status != browserbase.StatusRunning {
			return nil, fmt.Errorf("session %s is not running (status %s)", id, sess.Status)
		}
		s.logf("resuming session %s", id)
		return sess, nil
	}

	sess, err := s.api.CreateSession(ctx, s.createRequest())
	if err != nil {
		return nil, err
	}
	s.logf("created session %s", sess.ID)
	return sess, nil
}

// createRequest merges the driver options into SessionCreateParams.
func (s *Stagehand) createRequest() browserbase.CreateSessionRequest {
	var req browserbase.CreateSessionRequest
	if s.opts.SessionCreateParams != nil {
		req = *s.opts.SessionCreateParams
	}
	if req.ProjectID == "" {
		req.ProjectID = s.opts.ProjectID
	}
	req.Proxies = req.Proxies || s.opts.Proxies

	settings := browserbase.BrowserSettings{}
	if req.BrowserSettings != nil {
		settings = *req.BrowserSettings
	}
	if settings.Viewport == nil {
		settings.Viewport = s.opts.Viewport
	}
	if settings.Context == nil {
		settings.Context = s.opts.Context
	}
	settings.AdvancedStealth = settings.AdvancedStealth || s.opts.AdvancedStealth
	req.BrowserSettings = &settings
	return req
}

func (s *Stagehand) buildProvider() (llm.Provider, error) {
	if s.opts.LLM != nil {
		return s.opts.LLM, nil
	}
	p, err := s.opts.ProviderFactory(s.opts.Model)
	if err != nil {
		return nil, fmt.Errorf("model %s unavailable: %w", s.opts.Model.Model, err)
	}
	return p, nil
}

func firstPage(b playwright.Browser) (playwright.Page, error) {
	var bctx playwright.BrowserContext
	if contexts := b.Contexts(); len(contexts) > 0 {
		bctx = contexts[0]
	} else {
		c, err := b.NewContext()
		if err != nil {
			return nil, fmt.Errorf("failed to create browser context: %w", err)
		}
		bctx = c
	}

	if pages := bctx.Pages(); len(pages) > 0 {
		return pages[0], nil
	}
	pg, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return pg, nil
}

func toPlaywrightCookies(cookies []config.Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		oc.Path = playwright.String(path)
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			oc.SameSite = playwright.SameSiteAttributeStrict
		case "lax":
			oc.SameSite = playwright.SameSiteAttributeLax
		case "none":
			oc.SameSite = playwright.SameSiteAttributeNone
		}
		out = append(out, oc)
	}
	return out
}

// Page returns the active page, or nil before Init.
func (s *Stagehand) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	return s.page
}

// BrowserbaseSessionID returns the remote session id once initialized.
func (s *Stagehand) BrowserbaseSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Debug returns the live view URLs of the remote session.
func (s *Stagehand) Debug(ctx context.Context) (*browserbase.DebugURLs, error) {
	s.mu.Lock()
	api, id := s.api, s.sessionID
	s.mu.Unlock()

	if api == nil || id == "" {
		return nil, errors.New("stagehand is not initialized")
	}
	return api.Debug(ctx, id)
}

// Close disconnects and asks Browserbase to release the session. Calling it
// again is a no-op.
func (s *Stagehand) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.api != nil && s.sessionID != "" {
		if err := s.api.ReleaseSession(ctx, s.projectID, s.sessionID); err != nil {
			errs = append(errs, err)
		} else {
			s.logf("released session %s", s.sessionID)
		}
	}
	s.page = nil
	s.browser = nil
	return errors.Join(errs...)
}
