package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/entrhq/browserbase-mcp/pkg/config"
)

// cliFlags holds the command line. Only flags the user set explicitly
// override the config file and environment.
type cliFlags struct {
	configPath string

	apiKey          string
	projectID       string
	proxies         bool
	advancedStealth bool
	contextID       string
	persist         bool
	port            int
	host            string
	browserWidth    int
	browserHeight   int
	cookies         string
	modelName       string
	modelAPIKey     string
	logLevel        string
}

func (f *cliFlags) list() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to a YAML config file",
			Sources:     cli.EnvVars("BROWSERBASE_MCP_CONFIG"),
			Destination: &f.configPath,
		},
		&cli.StringFlag{
			Name:        "browserbaseApiKey",
			Usage:       "the Browserbase API key to use",
			Destination: &f.apiKey,
		},
		&cli.StringFlag{
			Name:        "browserbaseProjectId",
			Usage:       "the Browserbase project ID to use",
			Destination: &f.projectID,
		},
		&cli.BoolFlag{
			Name:        "proxies",
			Usage:       "use Browserbase proxies",
			Destination: &f.proxies,
		},
		&cli.BoolFlag{
			Name:        "advancedStealth",
			Usage:       "use advanced stealth mode (Scale plan only)",
			Destination: &f.advancedStealth,
		},
		&cli.StringFlag{
			Name:        "contextId",
			Usage:       "Browserbase context ID to use",
			Destination: &f.contextID,
		},
		&cli.BoolFlag{
			Name:        "persist",
			Usage:       "whether to persist the Browserbase context",
			Value:       true,
			Destination: &f.persist,
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "port to listen on for streamable HTTP; stdio is used when unset",
			Destination: &f.port,
		},
		&cli.StringFlag{
			Name:        "host",
			Usage:       "host to bind the HTTP server to; use 0.0.0.0 to bind all interfaces",
			Destination: &f.host,
		},
		&cli.IntFlag{
			Name:        "browserWidth",
			Usage:       "browser viewport width",
			Destination: &f.browserWidth,
		},
		&cli.IntFlag{
			Name:        "browserHeight",
			Usage:       "browser viewport height",
			Destination: &f.browserHeight,
		},
		&cli.StringFlag{
			Name:        "cookies",
			Usage:       "JSON array of cookies to inject into the browser",
			Destination: &f.cookies,
		},
		&cli.StringFlag{
			Name:        "modelName",
			Usage:       "model used by act, extract and observe (e.g. google/gemini-2.0-flash)",
			Destination: &f.modelName,
		},
		&cli.StringFlag{
			Name:        "modelApiKey",
			Usage:       "API key for the custom model provider",
			Destination: &f.modelAPIKey,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Destination: &f.logLevel,
		},
	}
}

// overrides collects the flags set on the command line.
func (f *cliFlags) overrides(c *cli.Command) (config.Overrides, error) {
	var o config.Overrides

	setString := func(name string, dst **string, v string) {
		if c.IsSet(name) {
			*dst = &v
		}
	}
	setBool := func(name string, dst **bool, v bool) {
		if c.IsSet(name) {
			*dst = &v
		}
	}
	setInt := func(name string, dst **int, v int) {
		if c.IsSet(name) {
			*dst = &v
		}
	}

	setString("browserbaseApiKey", &o.BrowserbaseAPIKey, f.apiKey)
	setString("browserbaseProjectId", &o.BrowserbaseProjectID, f.projectID)
	setBool("proxies", &o.Proxies, f.proxies)
	setBool("advancedStealth", &o.AdvancedStealth, f.advancedStealth)
	setString("contextId", &o.ContextID, f.contextID)
	setBool("persist", &o.Persist, f.persist)
	setInt("port", &o.Port, f.port)
	setString("host", &o.Host, f.host)
	setInt("browserWidth", &o.BrowserWidth, f.browserWidth)
	setInt("browserHeight", &o.BrowserHeight, f.browserHeight)
	setString("modelName", &o.ModelName, f.modelName)
	setString("modelApiKey", &o.ModelAPIKey, f.modelAPIKey)
	setString("log-level", &o.LogLevel, f.logLevel)

	if c.IsSet("cookies") {
		cookies, err := parseCookies(f.cookies)
		if err != nil {
			return o, err
		}
		o.Cookies = cookies
	}
	return o, nil
}

func parseCookies(raw string) ([]config.Cookie, error) {
	var cookies []config.Cookie
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		return nil, fmt.Errorf("invalid --cookies value: %w", err)
	}
	return cookies, nil
}
