// Package sessiontest provides in-memory drivers, pages and browsers for
// tests that need sessions without Browserbase.
package sessiontest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
	"github.com/stretchr/testify/require"
)

// Browser is a remote connection that can be dropped on demand.
type Browser struct {
	mu           sync.Mutex
	connected    bool
	observers    map[int]func()
	next         int
	Unregistered int
	// IgnoreUnregister keeps observers registered, as if a disconnect event
	// were already in flight when unregister ran.
	IgnoreUnregister bool
}

func NewBrowser() *Browser {
	return &Browser{connected: true, observers: map[int]func(){}}
}

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Browser) OnDisconnected(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.observers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.IgnoreUnregister {
			return
		}
		if _, ok := b.observers[id]; ok {
			delete(b.observers, id)
			b.Unregistered++
		}
	}
}

// Observers returns the number of registered observers.
func (b *Browser) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

// Disconnect drops the connection and runs every observer once.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	b.connected = false
	fns := make([]func(), 0, len(b.observers))
	for id, fn := range b.observers {
		fns = append(fns, fn)
		delete(b.observers, id)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Page records navigation and answers actions from its hooks.
type Page struct {
	mu      sync.Mutex
	browser *Browser
	url     string
	closed  bool
	Gotos   []string

	GotoErr        error
	ActFunc        func(stagehand.ActOptions) (*stagehand.ActResult, error)
	ExtractFunc    func(stagehand.ExtractOptions) (json.RawMessage, error)
	ObserveFunc    func(stagehand.ObserveOptions) ([]stagehand.ObserveResult, error)
	ScreenshotData []byte
	ScreenshotErr  error
}

func NewPage(b *Browser) *Page {
	return &Page{browser: b, url: "about:blank"}
}

func (p *Page) Goto(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gotos = append(p.Gotos, url)
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.url = url
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title() (string, error) { return "Fake page", nil }

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// SetClosed marks the page closed.
func (p *Page) SetClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Page) Act(ctx context.Context, opts stagehand.ActOptions) (*stagehand.ActResult, error) {
	if p.ActFunc != nil {
		return p.ActFunc(opts)
	}
	return &stagehand.ActResult{Success: true, Message: "Action completed: " + opts.Action, Action: opts.Action}, nil
}

func (p *Page) Extract(ctx context.Context, opts stagehand.ExtractOptions) (json.RawMessage, error) {
	if p.ExtractFunc != nil {
		return p.ExtractFunc(opts)
	}
	return json.RawMessage(`{"extraction":"fake"}`), nil
}

func (p *Page) Observe(ctx context.Context, opts stagehand.ObserveOptions) ([]stagehand.ObserveResult, error) {
	if p.ObserveFunc != nil {
		return p.ObserveFunc(opts)
	}
	return nil, nil
}

func (p *Page) Screenshot(ctx context.Context, opts stagehand.ScreenshotOptions) ([]byte, error) {
	return p.ScreenshotData, p.ScreenshotErr
}

func (p *Page) Browser() stagehand.Browser { return p.browser }

// Driver is a session.Driver whose remote session is always bb-<n>.
type Driver struct {
	mu       sync.Mutex
	Opts     stagehand.Options
	FakePage *Page
	FakeBB   *Browser
	BBID     string
	inited   bool
	closes   int

	InitErr  error
	CloseErr error
	// NoPage makes Page return nil after Init.
	NoPage bool
}

func (d *Driver) Init(ctx context.Context) error {
	if d.Opts.Logger != nil {
		d.Opts.Logger("init " + d.BBID)
	}
	if d.InitErr != nil {
		return d.InitErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inited = true
	return nil
}

func (d *Driver) Page() stagehand.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.inited || d.NoPage {
		return nil
	}
	return d.FakePage
}

func (d *Driver) BrowserbaseSessionID() string { return d.BBID }

func (d *Driver) Debug(ctx context.Context) (*browserbase.DebugURLs, error) {
	return &browserbase.DebugURLs{DebuggerFullscreenURL: "https://debug.example/" + d.BBID}, nil
}

func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return d.CloseErr
}

// Closes returns how often Close was called.
func (d *Driver) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Factory builds Drivers and remembers them in creation order.
type Factory struct {
	mu      sync.Mutex
	Drivers []*Driver
	// Configure runs on each new driver before it is returned.
	Configure func(*Driver)
}

func (f *Factory) New(opts stagehand.Options) session.Driver {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := NewBrowser()
	d := &Driver{
		Opts:     opts,
		FakeBB:   b,
		FakePage: NewPage(b),
		BBID:     fmt.Sprintf("bb-%d", len(f.Drivers)+1),
	}
	if opts.BrowserbaseSessionID != "" {
		d.BBID = opts.BrowserbaseSessionID
	}
	if f.Configure != nil {
		f.Configure(d)
	}
	f.Drivers = append(f.Drivers, d)
	return d
}

// Last returns the most recently built driver.
func (f *Factory) Last() *Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Drivers) == 0 {
		return nil
	}
	return f.Drivers[len(f.Drivers)-1]
}

// Adapter returns a session adapter backed by f.
func (f *Factory) Adapter() *session.Adapter {
	return &session.Adapter{NewDriver: f.New}
}

// LogBuffer collects log output safely across goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *LogBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *LogBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// NewLogger returns a debug-level logger writing into a buffer.
func NewLogger(t testing.TB) (*logging.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	logger, err := logging.NewLogger("test", logging.WithOutput(buf), logging.WithLevel("debug"))
	require.NoError(t, err)
	return logger, buf
}
