package webmode

import "regexp"

// Match is the part of a comment a web mode pattern found.
type Match struct {
	// Value is the full matched text.
	Value string
	// Groups holds the named groups that took part in the match.
	Groups map[string]string
}

// Bindings returns the template bindings for the match. The reserved
// "value" binding always holds the full match, even if the pattern declares
// a group with the same name.
func (m Match) Bindings() map[string]string {
	bindings := make(map[string]string, len(m.Groups)+1)
	for name, text := range m.Groups {
		bindings[name] = text
	}
	bindings["value"] = m.Value
	return bindings
}

// Matcher searches a comment for a web mode pattern.
type Matcher interface {
	Match(text string) (Match, bool)
}

// RegexMatcher is the Matcher backed by a compiled regular expression.
type RegexMatcher struct {
	re    *regexp.Regexp
	names []string
}

// NewRegexMatcher compiles pattern. Named groups use the (?P<name>...) or
// (?<name>...) syntax.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{re: re, names: re.SubexpNames()}, nil
}

// Match reports the leftmost occurrence of the pattern anywhere in text.
func (m *RegexMatcher) Match(text string) (Match, bool) {
	loc := m.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Match{}, false
	}

	match := Match{
		Value:  text[loc[0]:loc[1]],
		Groups: make(map[string]string),
	}
	for i, name := range m.names {
		if i == 0 || name == "" {
			continue
		}
		// -1 means the group did not participate
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		match.Groups[name] = text[start:end]
	}
	return match, true
}

// GroupNames returns the named groups declared by the pattern.
func (m *RegexMatcher) GroupNames() []string {
	var names []string
	for _, name := range m.names {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// String returns the source pattern.
func (m *RegexMatcher) String() string {
	return m.re.String()
}
