package stagehand

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Runtime owns the playwright driver process shared by every session.
// Browsers are remote, so no local browser binaries are installed.
type Runtime struct {
	mu sync.Mutex
	pw *playwright.Playwright
}

var defaultRuntime = &Runtime{}

// DefaultRuntime returns the process-wide runtime.
func DefaultRuntime() *Runtime {
	return defaultRuntime
}

// Start installs (if needed) and launches the playwright driver once.
func (r *Runtime) Start() (*playwright.Playwright, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pw != nil {
		return r.pw, nil
	}

	// stdout belongs to the stdio transport, so the driver stays quiet.
	opts := &playwright.RunOptions{
		SkipInstallBrowsers: true,
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright driver: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	r.pw = pw
	return pw, nil
}

// Stop shuts the driver down. Sessions must be closed first.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pw == nil {
		return nil
	}
	err := r.pw.Stop()
	r.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
