package config

// Overrides carries values set explicitly on the command line. Nil fields
// leave the configuration untouched.
type Overrides struct {
	BrowserbaseAPIKey    *string
	BrowserbaseProjectID *string
	Proxies              *bool
	AdvancedStealth      *bool
	ContextID            *string
	Persist              *bool
	Port                 *int
	Host                 *string
	BrowserWidth         *int
	BrowserHeight        *int
	Cookies              []Cookie
	ModelName            *string
	ModelAPIKey          *string
	LogLevel             *string
}

// Apply writes every non-nil override into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.BrowserbaseAPIKey != nil {
		cfg.BrowserbaseAPIKey = *o.BrowserbaseAPIKey
	}
	if o.BrowserbaseProjectID != nil {
		cfg.BrowserbaseProjectID = *o.BrowserbaseProjectID
	}
	if o.Proxies != nil {
		cfg.Proxies = *o.Proxies
	}
	if o.AdvancedStealth != nil {
		cfg.AdvancedStealth = *o.AdvancedStealth
	}
	if o.ContextID != nil {
		cfg.Context.ContextID = *o.ContextID
	}
	if o.Persist != nil {
		persist := *o.Persist
		cfg.Context.Persist = &persist
	}
	if o.Port != nil {
		cfg.Server.Port = *o.Port
	}
	if o.Host != nil {
		cfg.Server.Host = *o.Host
	}
	if o.BrowserWidth != nil {
		cfg.ViewPort.BrowserWidth = *o.BrowserWidth
	}
	if o.BrowserHeight != nil {
		cfg.ViewPort.BrowserHeight = *o.BrowserHeight
	}
	if len(o.Cookies) > 0 {
		cfg.Cookies = append(cfg.Cookies, o.Cookies...)
	}
	if o.ModelName != nil {
		cfg.ModelName = *o.ModelName
	}
	if o.ModelAPIKey != nil {
		cfg.ModelAPIKey = *o.ModelAPIKey
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
}
