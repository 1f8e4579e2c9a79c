package domain

import (
	"net/url"
	"strings"
)

// NavigationPolicy is the decision taken for one attempted navigation.
type NavigationPolicy int

const (
	// PolicyAllow lets the surface load the target.
	PolicyAllow NavigationPolicy = iota
	// PolicyCancel stops the surface from loading the target.
	PolicyCancel
)

func (p NavigationPolicy) String() string {
	if p == PolicyCancel {
		return "cancel"
	}
	return "allow"
}

// NavigationEvent is a candidate URL offered by a web surface for a policy
// decision. It lives only for the duration of that decision.
type NavigationEvent struct {
	URL   string
	Path  string
	Query url.Values

	// ParseErr is set when URL could not be decomposed. Such events never match.
	ParseErr error
}

// NewNavigationEvent parses raw into path and query. Query values keep the
// order in which they appear in the URL; pairs that fail to unescape are
// skipped.
func NewNavigationEvent(raw string) NavigationEvent {
	ev := NavigationEvent{URL: raw}
	u, err := url.Parse(raw)
	if err != nil {
		ev.ParseErr = err
		return ev
	}
	ev.Path = u.Path
	ev.Query = parseQuery(u.RawQuery)
	return ev
}

// parseQuery splits only on '&'. url.ParseQuery rejects pairs containing
// ';', which would let a native redirect like ?code=abc;x=1 through.
func parseQuery(raw string) url.Values {
	values := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			continue
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}
		values[name] = append(values[name], value)
	}
	return values
}

// AuthorizationCode returns the code carried by a native redirect. The first
// code parameter wins, even when its value is empty.
func (e NavigationEvent) AuthorizationCode() (string, bool) {
	if e.ParseErr != nil || e.Path != NativeRedirectPath {
		return "", false
	}
	vals, ok := e.Query[CodeParam]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// MatchAuthorizationCode is the single matcher for native redirects. It
// reports the code when rawURL has exactly the native redirect path and a
// code parameter. URLs that cannot be parsed never match.
func MatchAuthorizationCode(rawURL string) (string, bool) {
	return NewNavigationEvent(rawURL).AuthorizationCode()
}
