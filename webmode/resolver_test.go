package webmode

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panicMatcher fails the test if a resolution ever reaches it.
type panicMatcher struct{}

func (panicMatcher) Match(string) (Match, bool) {
	panic("matcher evaluated after an earlier mode matched")
}

func defaultModes() []*WebMode {
	return NewWebModes([]Config{
		{
			Name:     "KamePT",
			Pattern:  `https?://kamept\.com/details\.php\?id=\d+`,
			Template: "{value}",
		},
		{
			Name:     "M-Team",
			Pattern:  `(?P<tid>\d{3,})`,
			Template: "https://kp.m-team.cc/detail/{tid}",
			Cookie:   "uid=42; passkey=abc",
		},
	})
}

func TestResolve(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop())

	tests := []struct {
		name    string
		comment string
		wantURL string
		wantErr error
		rule    string
	}{
		{
			name:    "full link binds value",
			comment: "source: https://kamept.com/details.php?id=981 thanks",
			wantURL: "https://kamept.com/details.php?id=981",
			rule:    "KamePT",
		},
		{
			name:    "named group binding",
			comment: "id 1234",
			wantURL: "https://kp.m-team.cc/detail/1234",
			rule:    "M-Team",
		},
		{
			name:    "surrounding whitespace",
			comment: "  56789\n",
			wantURL: "https://kp.m-team.cc/detail/56789",
			rule:    "M-Team",
		},
		{
			name:    "no match",
			comment: "no ids here, only 12",
			wantErr: ErrNoMatch,
		},
		{
			name:    "empty comment",
			comment: "",
			wantErr: ErrNoMatch,
		},
		{
			name:    "blank comment",
			comment: " \t ",
			wantErr: ErrNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.Resolve(tt.comment)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, res.URL)
			assert.Equal(t, tt.rule, res.Rule)
		})
	}
}

func TestResolveCookies(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop())

	res, err := resolver.Resolve("1234")
	require.NoError(t, err)
	assert.Equal(t, Cookies{{Name: "uid", Value: "42"}, {Name: "passkey", Value: "abc"}}, res.Cookies)

	res, err = resolver.Resolve("https://kamept.com/details.php?id=1")
	require.NoError(t, err)
	assert.Empty(t, res.Cookies)
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop())
	comment := "https://kamept.com/details.php?id=4242 and 5555"

	first, err := resolver.Resolve(comment)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := resolver.Resolve(comment)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	modes := []*WebMode{
		NewWebMode(Config{Name: "first", Pattern: `\d+`, Template: "https://a/{value}"}),
		{cfg: Config{Name: "never", Template: "{value}"}, matcher: panicMatcher{}},
	}
	resolver := NewResolver(modes, zerolog.Nop())

	var res *Resolution
	var err error
	require.NotPanics(t, func() {
		res, err = resolver.Resolve("torrent 77")
	})
	require.NoError(t, err)
	assert.Equal(t, "https://a/77", res.URL)
	assert.Equal(t, "first", res.Rule)
}

func TestResolveTemplateErrorDoesNotFallThrough(t *testing.T) {
	modes := NewWebModes([]Config{
		{Name: "broken", Pattern: `(?P<tid>\d+)`, Template: "https://x/{id}"},
		{Name: "working", Pattern: `\d+`, Template: "https://y/{value}"},
	})
	resolver := NewResolver(modes, zerolog.Nop())

	res, err := resolver.Resolve("id 1234")
	assert.Nil(t, res)

	var te *TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "broken", te.Rule)
	assert.Equal(t, "id", te.Identifier)
	assert.False(t, errors.Is(err, ErrNoMatch))
	assert.Contains(t, err.Error(), "broken")
}

func TestResolveSkipsInvalidPattern(t *testing.T) {
	modes := NewWebModes([]Config{
		{Name: "invalid", Pattern: `(unclosed`, Template: "https://bad/{value}"},
		{Name: "valid", Pattern: `\d{3,}`, Template: "https://good/{value}"},
	})
	require.False(t, modes[0].Valid())

	var pe *InvalidPatternError
	require.ErrorAs(t, modes[0].Err(), &pe)
	assert.Equal(t, "invalid", pe.Rule)

	resolver := NewResolver(modes, zerolog.Nop())
	res, err := resolver.Resolve("(unclosed 1234")
	require.NoError(t, err)
	assert.Equal(t, "https://good/1234", res.URL)
	assert.Len(t, resolver.Invalid(), 1)
}

func TestResolveEmptyRuleList(t *testing.T) {
	resolver := NewResolver(nil, zerolog.Nop())
	_, err := resolver.Resolve("1234")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestPreferredModeOrder(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop(), WithPreferred("M-Team"))

	// Both modes match; the preferred one is tried first.
	res, err := resolver.Resolve("https://kamept.com/details.php?id=981")
	require.NoError(t, err)
	assert.Equal(t, "M-Team", res.Rule)
	assert.Equal(t, "https://kp.m-team.cc/detail/981", res.URL)

	order := resolver.Order()
	require.Len(t, order, 2)
	assert.Equal(t, "M-Team", order[0].Name())
	assert.Equal(t, "KamePT", resolver.Modes()[0].Name())

	resolver.SetPreferred("")
	res, err = resolver.Resolve("https://kamept.com/details.php?id=981")
	require.NoError(t, err)
	assert.Equal(t, "KamePT", res.Rule)
	assert.Empty(t, resolver.Preferred())
}

func TestPreferredModeUnknown(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop(), WithPreferred("nope"))
	assert.Equal(t, "KamePT", resolver.Order()[0].Name())
	assert.Equal(t, "nope", resolver.Preferred())
}

func TestMalformedCookieSegmentsLogged(t *testing.T) {
	var buf bytes.Buffer
	modes := NewWebModes([]Config{
		{Name: "site", Pattern: `\d+`, Cookie: "a=1; bad; =x; b=2"},
	})

	NewResolver(modes, zerolog.New(&buf))

	assert.Equal(t, []string{"bad", "=x"}, modes[0].DroppedCookies())
	assert.Equal(t, Cookies{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}, modes[0].Cookies())
	assert.Contains(t, buf.String(), "Ignoring malformed cookie segments")
	assert.Contains(t, buf.String(), `"mode":"site"`)
	assert.Contains(t, buf.String(), `"bad"`)
}

func TestReload(t *testing.T) {
	resolver := NewResolver(defaultModes(), zerolog.Nop())

	resolver.Reload(NewWebModes([]Config{
		{Name: "other", Pattern: `#(?P<n>\d+)`, Template: "https://other/{n}"},
	}), "")

	res, err := resolver.Resolve("see #12")
	require.NoError(t, err)
	assert.Equal(t, "https://other/12", res.URL)

	_, err = resolver.Resolve("https://kamept.com/details.php?id=1")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestReloadDuringResolve(t *testing.T) {
	listA := NewWebModes([]Config{
		{Name: "a1", Pattern: `\d+`, Template: "a:{value}"},
		{Name: "a2", Pattern: `x`, Template: "a:{value}"},
	})
	listB := NewWebModes([]Config{
		{Name: "b1", Pattern: `\d+`, Template: "b:{value}"},
		{Name: "b2", Pattern: `x`, Template: "b:{value}"},
	})
	resolver := NewResolver(listA, zerolog.Nop())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 8)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res, err := resolver.Resolve("1")
				if err != nil {
					errs <- err
					return
				}
				// rule and url must come from the same list
				if (res.Rule == "a1") != (res.URL == "a:1") {
					errs <- fmt.Errorf("mixed snapshot: %+v", res)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			resolver.Reload(listB, "")
		} else {
			resolver.Reload(listA, "")
		}
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
