// Package urlenc validates and rewrites URLs handed to Response.EncodeURL.
package urlenc

import (
	"net/url"
	"strings"

	"github.com/aretw0/portlet/pkg/domain"
)

// SessionParam is the path parameter used to carry the session id.
const SessionParam = "jsessionid"

// Rewriter transforms an already validated URL.
type Rewriter func(u string) string

// Validate accepts an absolute URL (scheme and host) or a path starting with "/".
// A network-path reference such as "//host/x" is neither.
func Validate(path string) error {
	if strings.HasPrefix(path, "//") {
		return domain.NewInvalidArgument("network-path reference is not an absolute path: " + path)
	}
	if strings.HasPrefix(path, "/") {
		return nil
	}
	if path == "" {
		return domain.NewInvalidArgument("url must not be empty")
	}
	u, err := url.Parse(path)
	if err != nil {
		return domain.NewInvalidArgument("malformed url " + path)
	}
	if u.Scheme == "" || u.Host == "" {
		return domain.NewInvalidArgument("url must be absolute or start with \"/\": " + path)
	}
	return nil
}

// Encode validates path and applies every rewriter in order.
func Encode(path string, rewriters ...Rewriter) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}
	for _, rw := range rewriters {
		if rw != nil {
			path = rw(path)
		}
	}
	return path, nil
}

// WithSessionID embeds id as a path parameter ahead of the query and fragment.
// An empty id leaves URLs untouched.
func WithSessionID(id string) Rewriter {
	return func(u string) string {
		if id == "" || strings.Contains(u, ";"+SessionParam+"=") {
			return u
		}
		authority, rest := splitAuthority(u)
		cut := len(rest)
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			cut = i
		}
		return authority + rest[:cut] + ";" + SessionParam + "=" + id + rest[cut:]
	}
}

// splitAuthority separates "scheme://host" from the rest of an absolute URL.
// The rest always starts with "/" so path parameters never touch the host.
func splitAuthority(u string) (string, string) {
	if strings.HasPrefix(u, "/") {
		return "", u
	}
	i := strings.Index(u, "://")
	if i < 0 {
		return "", u
	}
	end := len(u)
	if j := strings.IndexAny(u[i+3:], "/?#"); j >= 0 {
		end = i + 3 + j
	}
	rest := u[end:]
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return u[:end], rest
}
