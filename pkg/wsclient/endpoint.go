package wsclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidEndpoint is returned for URIs that are not absolute ws:// or wss:// URIs
var ErrInvalidEndpoint = errors.New("invalid websocket endpoint")

// ParseEndpoint parses raw and checks that it can be dialed
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}

	if u.Host == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidEndpoint, raw)
	}

	if u.Fragment != "" || strings.HasSuffix(raw, "#") {
		return nil, fmt.Errorf("%w: fragment not allowed in %q", ErrInvalidEndpoint, raw)
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u, nil
}

// IsSecure reports whether the endpoint uses TLS
func IsSecure(u *url.URL) bool {
	return u.Scheme == "wss"
}
