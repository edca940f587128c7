package stagehand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultNavigationTimeout applies when the context carries no deadline.
const DefaultNavigationTimeout = 30 * time.Second

// pageBackend is the subset of playwright.Page the driver uses.
type pageBackend interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	URL() string
	Title() (string, error)
	IsClosed() bool
	Content() (string, error)
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
	WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error
}

type page struct {
	backend   pageBackend
	locate    func(selector string) actionTarget
	browser   Browser
	models    *modelSource
	counter   TokenCounter
	maxTokens int
	logf      func(format string, args ...any)
}

func newPage(pw playwright.Page, b Browser, models *modelSource, counter TokenCounter, maxTokens int, logf func(string, ...any)) *page {
	return &page{
		backend: pw,
		locate: func(selector string) actionTarget {
			return pw.Locator(selector).First()
		},
		browser:   b,
		models:    models,
		counter:   counter,
		maxTokens: maxTokens,
		logf:      logf,
	}
}

func (p *page) URL() string               { return p.backend.URL() }
func (p *page) Title() (string, error)    { return p.backend.Title() }
func (p *page) IsClosed() bool            { return p.backend.IsClosed() }
func (p *page) Browser() Browser          { return p.browser }
func (p *page) settleTimeout() *float64   { return playwright.Float(5000) }
func (p *page) log(f string, args ...any) { p.logf(f, args...) }

func (p *page) Goto(ctx context.Context, url string) error {
	timeout := DefaultNavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	_, err := p.backend.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	p.log("navigated to %s", p.backend.URL())
	return nil
}

// settle waits briefly for navigation triggered by an action.
func (p *page) settle() {
	_ = p.backend.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: p.settleTimeout(),
	})
}

func (p *page) snapshot() (*Snapshot, string, error) {
	content, err := p.backend.Content()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read page content: %w", err)
	}
	snap, err := BuildSnapshot(content)
	if err != nil {
		return nil, "", err
	}
	return snap, renderSnapshot(snap, p.backend.URL(), p.counter, p.maxTokens), nil
}

func (p *page) Act(ctx context.Context, opts ActOptions) (*ActResult, error) {
	if o := opts.Observed; o != nil {
		args := substituteVariables(o.Arguments, opts.Variables)
		if err := performAction(p.locate(o.Selector), o.Method, args, opts.Timeout); err != nil {
			return nil, fmt.Errorf("failed to %s %s: %w", o.Method, o.Selector, err)
		}
		p.settle()
		desc := describeAction(o.Method, o.Arguments, o.Description)
		p.log("act (observed) %s", desc)
		return &ActResult{Success: true, Message: "Action completed: " + desc, Action: o.Description}, nil
	}

	if strings.TrimSpace(opts.Action) == "" {
		return nil, errors.New("action is required")
	}

	provider, err := p.models.get()
	if err != nil {
		return nil, err
	}
	snap, rendered, err := p.snapshot()
	if err != nil {
		return nil, err
	}

	reply, err := complete(ctx, provider, actSystemPrompt, "Instruction: "+opts.Action+"\n\n"+rendered)
	if err != nil {
		return nil, err
	}

	var choice elementChoice
	if err := decodeModelJSON(reply, &choice); err != nil {
		return nil, err
	}

	if choice.Element == nil {
		return &ActResult{Success: false, Message: "No element selected for action: " + choice.Description, Action: opts.Action}, nil
	}
	el, ok := snap.Element(*choice.Element)
	if !ok {
		msg := "No element found for action"
		if choice.Description != "" {
			msg += ": " + choice.Description
		}
		return &ActResult{Success: false, Message: msg, Action: opts.Action}, nil
	}

	// Placeholders are only resolved here so variable values never reach
	// the model.
	args := substituteVariables(choice.Arguments, opts.Variables)
	if err := performAction(p.locate(el.Selector()), choice.Method, args, opts.Timeout); err != nil {
		return nil, fmt.Errorf("failed to %s element [%d]: %w", choice.Method, el.Index, err)
	}
	p.settle()

	desc := describeAction(choice.Method, choice.Arguments, choice.Description)
	p.log("act %q: %s (%s)", opts.Action, desc, el.XPath)
	return &ActResult{Success: true, Message: "Action completed: " + desc, Action: opts.Action}, nil
}

func (p *page) Extract(ctx context.Context, opts ExtractOptions) (json.RawMessage, error) {
	snap, rendered, err := p.snapshot()
	if err != nil {
		return nil, err
	}

	// Without an instruction the page text is returned as is.
	if strings.TrimSpace(opts.Instruction) == "" {
		texts := make([]string, 0, len(snap.Elements))
		for _, e := range snap.Elements {
			if e.Text != "" {
				texts = append(texts, e.Text)
			}
		}
		return json.Marshal(map[string]string{"pageText": strings.Join(texts, "\n")})
	}

	provider, err := p.models.get()
	if err != nil {
		return nil, err
	}

	var user strings.Builder
	user.WriteString("Instruction: " + opts.Instruction + "\n")
	if len(opts.Schema) > 0 {
		user.WriteString("JSON schema:\n" + string(opts.Schema) + "\n")
	}
	user.WriteString("\n" + rendered)

	reply, err := complete(ctx, provider, extractSystemPrompt, user.String())
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := decodeModelJSON(reply, &out); err != nil {
		return nil, err
	}
	p.log("extract %q: %d bytes", opts.Instruction, len(out))
	return out, nil
}

func (p *page) Observe(ctx context.Context, opts ObserveOptions) ([]ObserveResult, error) {
	provider, err := p.models.get()
	if err != nil {
		return nil, err
	}
	snap, rendered, err := p.snapshot()
	if err != nil {
		return nil, err
	}

	instruction := opts.Instruction
	if strings.TrimSpace(instruction) == "" {
		instruction = "(none)"
	}
	reply, err := complete(ctx, provider, observeSystemPrompt, "Instruction: "+instruction+"\n\n"+rendered)
	if err != nil {
		return nil, err
	}

	var obs observeReply
	if err := decodeModelJSON(reply, &obs); err != nil {
		return nil, err
	}

	results := make([]ObserveResult, 0, len(obs.Elements))
	for _, c := range obs.Elements {
		if c.Element == nil {
			continue
		}
		el, ok := snap.Element(*c.Element)
		if !ok {
			continue
		}
		desc := c.Description
		if desc == "" {
			desc = el.Line()
		}
		results = append(results, ObserveResult{
			Selector:    el.Selector(),
			Description: desc,
			Method:      c.Method,
			Arguments:   []string(c.Arguments),
		})
	}
	p.log("observe %q: %d elements", opts.Instruction, len(results))
	return results, nil
}

func (p *page) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.backend.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(opts.FullPage),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}
