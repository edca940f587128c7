package stagehand

import (
	"sync/atomic"

	"github.com/playwright-community/playwright-go"
)

// browserEvents is the part of playwright.Browser the wrapper needs.
type browserEvents interface {
	IsConnected() bool
	On(name string, handler interface{})
	RemoveListener(name string, handler interface{})
}

type browser struct {
	pw browserEvents
}

func newBrowser(b browserEvents) *browser {
	return &browser{pw: b}
}

func (b *browser) IsConnected() bool {
	return b.pw.IsConnected()
}

func (b *browser) OnDisconnected(fn func()) func() {
	var active atomic.Bool
	active.Store(true)

	handler := func(playwright.Browser) {
		if active.CompareAndSwap(true, false) {
			fn()
		}
	}
	b.pw.On("disconnected", handler)

	return func() {
		if active.CompareAndSwap(true, false) {
			b.pw.RemoveListener("disconnected", handler)
		}
	}
}
