package filter

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru"

	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	resolver   CommentResolver
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size <= 0 {
			return
		}
		if cache, err := lru.New(size); err == nil {
			c.cache = cache
		}
	}
}

// CommentResolver resolves a torrent comment. *webmode.Resolver implements it.
type CommentResolver interface {
	Resolve(comment string) (*webmode.Resolution, error)
}

// WithResolver enables the resolvable() and mode() helpers
func WithResolver(resolver CommentResolver) ExprCompilerOption {
	return func(c *exprCompiler) {
		c.resolver = resolver
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{}
	for _, opt := range opts {
		opt(c)
	}
	// The compile environment has the same names and types as the runtime one.
	c.env = createEnvironment(&qbittorrent.TorrentInfo{}, nil)
	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	env      map[string]any
	cache    *lru.Cache
	resolver CommentResolver
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached.(CompiledFilter), nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		resolver:   c.resolver,
	}

	if c.cache != nil {
		c.cache.Add(expression, filter)
	}

	return filter, nil
}

// Evaluate evaluates the filter against a torrent. Torrents that make the
// expression fail at runtime do not match.
func (f *exprFilter) Evaluate(torrent *qbittorrent.TorrentInfo) bool {
	ok, err := f.EvaluateErr(torrent)
	return err == nil && ok
}

// EvaluateErr is Evaluate with the runtime error reported
func (f *exprFilter) EvaluateErr(torrent *qbittorrent.TorrentInfo) (bool, error) {
	if torrent == nil {
		return false, &EvaluationError{Expression: f.expression, Err: errors.New("nil torrent")}
	}

	result, err := expr.Run(f.program, createEnvironment(torrent, f.resolver))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, Hash: torrent.Hash, Name: torrent.Name, Err: err}
	}

	// AsBool guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createEnvironment builds the expression environment for one torrent
func createEnvironment(t *qbittorrent.TorrentInfo, resolver CommentResolver) map[string]any {
	env := make(map[string]any, 32)

	// Date helpers
	env["daysSince"] = func(at time.Time) int {
		return int(time.Since(at).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["now"] = time.Now

	// String helpers
	// contains is an expr operator, so the case-insensitive helper is icontains
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper

	// Torrent helpers
	env["hasTag"] = createHasTagFunc(t.Tags)
	env["hasComment"] = func() bool { return t.HasComment() }
	env["seeding"] = func() bool { return t.IsActivelySeeding() }

	// resolved on first use, most expressions never ask
	var (
		res      *webmode.Resolution
		resErr   error
		resolved bool
	)
	resolve := func() *webmode.Resolution {
		if !resolved {
			res, resErr = resolveComment(resolver, t.Comment)
			resolved = true
		}
		if resErr != nil {
			return nil
		}
		return res
	}
	env["resolvable"] = func() bool { return resolve() != nil }
	env["mode"] = func() string {
		if r := resolve(); r != nil {
			return r.Rule
		}
		return ""
	}

	// Torrent properties
	env["Hash"] = t.Hash
	env["Name"] = t.Name
	env["Category"] = t.Category
	env["State"] = t.State
	env["Comment"] = t.Comment
	env["Progress"] = t.Progress
	env["Ratio"] = t.Ratio
	env["Size"] = t.Size
	env["Seeds"] = t.Seeds
	env["Leechs"] = t.Leechs
	env["AddedOn"] = t.AddedOn
	env["Tags"] = t.Tags
	env["SavePath"] = t.SavePath

	return env
}

func resolveComment(resolver CommentResolver, comment string) (*webmode.Resolution, error) {
	if resolver == nil {
		return nil, webmode.ErrNoMatch
	}
	return resolver.Resolve(comment)
}

func createHasTagFunc(tags []string) func(string) bool {
	lowerTags := make([]string, len(tags))
	for i, tag := range tags {
		lowerTags[i] = strings.ToLower(tag)
	}
	return func(tag string) bool {
		return slices.Contains(lowerTags, strings.ToLower(tag))
	}
}
