package webmode

import (
	"slices"
	"strings"
)

// Config is the configured form of a web mode.
type Config struct {
	Name        string `mapstructure:"name" yaml:"name" json:"name"`
	Pattern     string `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
	Template    string `mapstructure:"template" yaml:"template" json:"template"`
	Description string `mapstructure:"description" yaml:"description" json:"description"`
	Cookie      string `mapstructure:"cookie" yaml:"cookie" json:"cookie"`
}

// WebMode is a compiled, immutable web mode.
type WebMode struct {
	cfg     Config
	matcher Matcher
	cookies Cookies
	dropped []string
	err     error
}

// NewWebMode compiles cfg. A pattern that does not compile never fails the
// call: the mode is returned disabled and Err reports why.
func NewWebMode(cfg Config) *WebMode {
	if strings.TrimSpace(cfg.Template) == "" {
		cfg.Template = DefaultTemplate
	}

	cookies, dropped := ParseCookiesReport(cfg.Cookie)
	mode := &WebMode{
		cfg:     cfg,
		cookies: cookies,
		dropped: dropped,
	}

	matcher, err := NewRegexMatcher(cfg.Pattern)
	if err != nil {
		mode.err = &InvalidPatternError{Rule: cfg.Name, Pattern: cfg.Pattern, Err: err}
		return mode
	}
	mode.matcher = matcher
	return mode
}

// NewWebModes compiles every config, keeping the configured order.
func NewWebModes(cfgs []Config) []*WebMode {
	modes := make([]*WebMode, 0, len(cfgs))
	for _, cfg := range cfgs {
		modes = append(modes, NewWebMode(cfg))
	}
	return modes
}

func (m *WebMode) Name() string        { return m.cfg.Name }
func (m *WebMode) Pattern() string     { return m.cfg.Pattern }
func (m *WebMode) Template() string    { return m.cfg.Template }
func (m *WebMode) Description() string { return m.cfg.Description }
func (m *WebMode) Cookie() string      { return m.cfg.Cookie }

// Config returns the configuration the mode was built from.
func (m *WebMode) Config() Config { return m.cfg }

// Cookies returns a copy of the parsed cookie set.
func (m *WebMode) Cookies() Cookies { return slices.Clone(m.cookies) }

// DroppedCookies returns the cookie segments that were not name=value pairs.
func (m *WebMode) DroppedCookies() []string { return slices.Clone(m.dropped) }

// Valid reports whether the mode can take part in resolution.
func (m *WebMode) Valid() bool { return m.err == nil && m.matcher != nil }

// Err returns the *InvalidPatternError of a disabled mode.
func (m *WebMode) Err() error { return m.err }

// UnboundPlaceholders lists template placeholders that neither {value} nor a
// named group of the pattern can bind. Such a template fails at resolution
// time; the list is only advisory.
func (m *WebMode) UnboundPlaceholders() []string {
	rm, ok := m.matcher.(*RegexMatcher)
	if !ok {
		return nil
	}
	groups := rm.GroupNames()

	var unbound []string
	for _, ident := range Placeholders(m.cfg.Template) {
		if ident == "value" || slices.Contains(groups, ident) {
			continue
		}
		unbound = append(unbound, ident)
	}
	return unbound
}

// resolve reports whether the mode matched text and, if so, the expanded
// result. Matching and expansion form one step: a template failure is
// returned as the outcome of this mode.
func (m *WebMode) resolve(text string) (*Resolution, bool, error) {
	match, ok := m.matcher.Match(text)
	if !ok {
		return nil, false, nil
	}

	target, err := Expand(m.cfg.Template, match.Bindings())
	if err != nil {
		if te, ok := err.(*TemplateError); ok {
			te.Rule = m.cfg.Name
		}
		return nil, true, err
	}

	return &Resolution{
		URL:     target,
		Cookies: m.Cookies(),
		Rule:    m.cfg.Name,
	}, true, nil
}
