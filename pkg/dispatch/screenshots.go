package dispatch

import (
	"strings"
	"sync"
	"time"
)

// ScreenshotScheme prefixes the resource URI of a screenshot.
const ScreenshotScheme = "screenshot://"

// Screenshot is an image kept for clients to read back as a resource.
type Screenshot struct {
	Name     string
	Data     []byte
	MIMEType string
	TakenAt  time.Time
}

// URI returns the resource URI of the screenshot.
func (s Screenshot) URI() string {
	return ScreenshotScheme + s.Name
}

// Screenshots holds the screenshots taken during this process.
type Screenshots struct {
	mu     sync.RWMutex
	items  map[string]Screenshot
	order  []string
	onAdd  []func(Screenshot)
	maxLen int
}

// NewScreenshots returns a registry keeping at most limit screenshots; the
// oldest are dropped first. limit <= 0 keeps everything.
func NewScreenshots(limit int) *Screenshots {
	return &Screenshots{items: map[string]Screenshot{}, maxLen: limit}
}

// Add stores a screenshot, replacing one with the same name.
func (s *Screenshots) Add(name string, data []byte, mimeType string) Screenshot {
	shot := Screenshot{Name: name, Data: data, MIMEType: mimeType, TakenAt: time.Now()}

	s.mu.Lock()
	if _, ok := s.items[name]; !ok {
		s.order = append(s.order, name)
	}
	s.items[name] = shot
	for s.maxLen > 0 && len(s.order) > s.maxLen {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	hooks := append([]func(Screenshot){}, s.onAdd...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(shot)
	}
	return shot
}

// Get looks a screenshot up by name or by its screenshot:// URI.
func (s *Screenshots) Get(nameOrURI string) (Screenshot, bool) {
	name := strings.TrimPrefix(nameOrURI, ScreenshotScheme)
	s.mu.RLock()
	defer s.mu.RUnlock()
	shot, ok := s.items[name]
	return shot, ok
}

// List returns screenshots oldest first.
func (s *Screenshots) List() []Screenshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Screenshot, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.items[name])
	}
	return out
}

// OnAdd registers fn to run after each Add.
func (s *Screenshots) OnAdd(fn func(Screenshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdd = append(s.onAdd, fn)
}
