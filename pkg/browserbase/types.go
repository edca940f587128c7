package browserbase

import (
	"fmt"
	"time"
)

// SessionStatus is the remote lifecycle state of a Browserbase session.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "RUNNING"
	StatusError     SessionStatus = "ERROR"
	StatusTimedOut  SessionStatus = "TIMED_OUT"
	StatusCompleted SessionStatus = "COMPLETED"
)

// Session is a remote browser as reported by the API.
type Session struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"projectId"`
	Status      SessionStatus `json:"status"`
	Region      string        `json:"region,omitempty"`
	ContextID   string        `json:"contextId,omitempty"`
	ConnectURL  string        `json:"connectUrl,omitempty"`
	KeepAlive   bool          `json:"keepAlive,omitempty"`
	ProxyBytes  int64         `json:"proxyBytes,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   time.Time     `json:"startedAt"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`
	SigningKey  string        `json:"signingKey,omitempty"`
	SeleniumURL string        `json:"seleniumRemoteUrl,omitempty"`
}

// Viewport is the browser window size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ContextSettings attaches a persisted browser context to the session.
type ContextSettings struct {
	ID      string `json:"id"`
	Persist bool   `json:"persist"`
}

// BrowserSettings configures the remote browser at creation.
type BrowserSettings struct {
	Context         *ContextSettings `json:"context,omitempty"`
	Viewport        *Viewport        `json:"viewport,omitempty"`
	BlockAds        bool             `json:"blockAds,omitempty"`
	SolveCaptchas   *bool            `json:"solveCaptchas,omitempty"`
	RecordSession   *bool            `json:"recordSession,omitempty"`
	LogSession      *bool            `json:"logSession,omitempty"`
	AdvancedStealth bool             `json:"advancedStealth,omitempty"`
}

// CreateSessionRequest is the payload of POST /sessions. ProjectID is filled
// by the caller when empty.
type CreateSessionRequest struct {
	ProjectID       string           `json:"projectId"`
	ExtensionID     string           `json:"extensionId,omitempty"`
	BrowserSettings *BrowserSettings `json:"browserSettings,omitempty"`
	Timeout         int              `json:"timeout,omitempty"`
	KeepAlive       bool             `json:"keepAlive,omitempty"`
	Proxies         bool             `json:"proxies,omitempty"`
	Region          string           `json:"region,omitempty"`
	UserMetadata    map[string]any   `json:"userMetadata,omitempty"`
}

// DebugURLs are the live-view and CDP endpoints of a running session.
type DebugURLs struct {
	DebuggerFullscreenURL string      `json:"debuggerFullscreenUrl"`
	DebuggerURL           string      `json:"debuggerUrl"`
	WsURL                 string      `json:"wsUrl"`
	Pages                 []DebugPage `json:"pages,omitempty"`
}

// DebugPage is one open tab of a running session.
type DebugPage struct {
	ID                    string `json:"id"`
	URL                   string `json:"url"`
	Title                 string `json:"title"`
	DebuggerFullscreenURL string `json:"debuggerFullscreenUrl"`
}

type releaseRequest struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("browserbase API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("browserbase API error: status %d: %s", e.StatusCode, e.Message)
}

// SessionURL is the dashboard live view of a session.
func SessionURL(sessionID string) string {
	return "https://www.browserbase.com/sessions/" + sessionID
}
