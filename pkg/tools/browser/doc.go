// Package browser provides the tools clients call to drive Browserbase
// browser sessions.
//
// # Single-session tools
//
// Most clients work with one browser at a time. These tools run against the
// default session, which is created on first use and reused until it is
// closed or its remote browser disconnects:
//
//   - browserbase_session_create: create (or resume) the default session
//   - browserbase_session_close: close the default session and all others
//   - browserbase_stagehand_navigate, browserbase_stagehand_act,
//     browserbase_stagehand_extract, browserbase_stagehand_observe
//   - browserbase_screenshot, browserbase_stagehand_get_url
//
// # Multi-session tools
//
// Parallel workflows create named sessions explicitly and pass their id to
// every call:
//
//   - multi_browserbase_stagehand_session_create
//   - browserbase_stagehand_session_list
//   - multi_browserbase_stagehand_session_close
//   - multi_browserbase_stagehand_navigate_session (and the act, extract and
//     observe variants), built with dispatch.WithSessionID
//
// A session-scoped call never touches the default session.
//
// # Example Usage
//
//	registry := browser.NewToolRegistry(matcher)
//	for _, tool := range registry.RegisterTools() {
//	    srv.Register(tool)
//	}
package browser
