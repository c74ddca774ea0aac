package webmode

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned when no web mode pattern occurs in the comment.
var ErrNoMatch = errors.New("no usable web mode found for this comment")

type (
	// InvalidPatternError marks a web mode whose pattern does not compile.
	// The mode is skipped by every resolution.
	InvalidPatternError struct {
		Rule    string
		Pattern string
		Err     error
	}

	// TemplateError is returned when the template of the matching web mode
	// cannot be expanded.
	TemplateError struct {
		Rule       string
		Template   string
		Identifier string // empty when the template itself is malformed
		Reason     string
	}
)

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("web mode '%s': invalid pattern %q: %v", e.Rule, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

func (e *TemplateError) Error() string {
	prefix := "template error"
	if e.Rule != "" {
		prefix = fmt.Sprintf("template error in web mode '%s'", e.Rule)
	}
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s {%s}", prefix, e.Reason, e.Identifier)
	}
	return fmt.Sprintf("%s: %s in %q", prefix, e.Reason, e.Template)
}
