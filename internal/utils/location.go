package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// Location is a parsed resource address.
type Location struct {
	Scheme string
	Host   string
	Port   string // empty when the address does not name one
	Target string // path, query and fragment as sent on the request line
}

func ParseLocation(raw string) (Location, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, fmt.Errorf("invalid URL: %v", err)
	}
	if parsed.Scheme == "" || parsed.Hostname() == "" {
		return Location{}, fmt.Errorf("invalid URL %q: scheme and host are required", raw)
	}
	target := parsed.EscapedPath()
	if target == "" {
		target = "/"
	}
	if parsed.RawQuery != "" || parsed.ForceQuery {
		target += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		target += "#" + parsed.EscapedFragment()
	}
	return Location{
		Scheme: strings.ToLower(parsed.Scheme),
		Host:   parsed.Hostname(),
		Port:   parsed.Port(),
		Target: target,
	}, nil
}

func (l Location) String() string {
	host := l.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if l.Port != "" {
		host += ":" + l.Port
	}
	return l.Scheme + "://" + host + l.Target
}
