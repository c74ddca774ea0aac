package webmode

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Cookie is one name/value pair of a web mode cookie string.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Cookies keeps cookies in the order they were configured. Some renderers
// are sensitive to the order of the Cookie header.
type Cookies []Cookie

// ParseCookies parses a "k1=v1; k2=v2" cookie string. Segments without '='
// or with an empty name are dropped. A repeated name keeps its first
// position and takes the last value.
func ParseCookies(raw string) Cookies {
	cookies, _ := ParseCookiesReport(raw)
	return cookies
}

// ParseCookiesReport is ParseCookies that also returns the dropped segments.
func ParseCookiesReport(raw string) (Cookies, []string) {
	var (
		cookies Cookies
		dropped []string
	)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			dropped = append(dropped, part)
			continue
		}
		cookies = cookies.set(name, strings.TrimSpace(value))
	}
	return cookies, dropped
}

func (c Cookies) set(name, value string) Cookies {
	for i := range c {
		if c[i].Name == name {
			c[i].Value = value
			return c
		}
	}
	return append(c, Cookie{Name: name, Value: value})
}

// Get returns the value of the named cookie.
func (c Cookies) Get(name string) (string, bool) {
	for _, cookie := range c {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

// Map returns the cookies as a plain map.
func (c Cookies) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, cookie := range c {
		m[cookie.Name] = cookie.Value
	}
	return m
}

// String serialises the cookies back to "k1=v1; k2=v2".
func (c Cookies) String() string {
	parts := make([]string, 0, len(c))
	for _, cookie := range c {
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

// HTTPCookies scopes the cookies to the host of target.
func (c Cookies) HTTPCookies(target string) ([]*http.Cookie, error) {
	u, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	out := make([]*http.Cookie, 0, len(c))
	for _, cookie := range c {
		out = append(out, &http.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: u.Hostname(),
			Path:   "/",
		})
	}
	return out, nil
}

// Jar returns a cookie jar holding the cookies for target.
func (c Cookies) Jar(target string) (http.CookieJar, error) {
	u, err := parseTarget(target)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	cookies, err := c.HTTPCookies(target)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(u, cookies)
	return jar, nil
}

func parseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}
	return u, nil
}
