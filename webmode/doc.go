// Package webmode turns free-text torrent comments into detail page URLs.
//
// A web mode is one ordered rule made of a regular expression, a URL template
// and an optional cookie string. The Resolver walks the configured modes in
// order and the first mode whose pattern occurs in the comment decides the
// result: its template is expanded with the match and its cookies are parsed
// for the page load.
//
// # Templates
//
// Templates use {identifier} placeholders. {value} is bound to the full
// matched text and every named group of the pattern is bound by its name:
//
//	pattern:  (?P<tid>\d{3,})
//	template: https://kp.m-team.cc/detail/{tid}
//
// {{ and }} produce literal braces. A placeholder without a binding is a
// TemplateError for the rule that matched; the resolver does not try the
// remaining modes in that case.
//
// # Usage
//
//	modes := webmode.NewWebModes(cfg.WebModes)
//	resolver := webmode.NewResolver(modes, logger, webmode.WithPreferred(cfg.ActiveWebMode))
//
//	res, err := resolver.Resolve(torrent.Comment)
//	switch {
//	case errors.Is(err, webmode.ErrNoMatch):
//	    // no usable mode for this comment
//	case err != nil:
//	    // *TemplateError, the rule needs fixing
//	default:
//	    jar, _ := res.Cookies.Jar(res.URL)
//	    // load res.URL with jar
//	}
//
// Resolve is safe for concurrent use. Reload and SetPreferred publish a new
// snapshot of the rule list; a resolution in progress keeps the snapshot it
// started with.
package webmode
