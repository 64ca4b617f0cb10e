package auth

import (
	"encoding/base64"
	"net"
	"net/http"
	"strings"
)

// DefaultSavedRequestCookie names the cookie carrying the interrupted
// request URL while the user authenticates.
const DefaultSavedRequestCookie = "savedrequest"

// SavedRequestCache is a stateless cookie codec for the URL a user was
// trying to reach before being redirected to authenticate. Nothing is
// stored server-side: the cookie value is the base64 of the rebuilt
// absolute URL, matched by exact string equality on the way back.
type SavedRequestCache struct {
	cookieName string
	logger     Logger
}

func NewSavedRequestCache(cookieName string) *SavedRequestCache {
	if cookieName == "" {
		cookieName = DefaultSavedRequestCookie
	}
	return &SavedRequestCache{
		cookieName: cookieName,
		logger:     defLogger{},
	}
}

func (c *SavedRequestCache) WithLogger(logger Logger) *SavedRequestCache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *SavedRequestCache) CookieName() string {
	return c.cookieName
}

// Save encodes the request's absolute URL as a cookie value.
func (c *SavedRequestCache) Save(r *http.Request) string {
	return base64.StdEncoding.EncodeToString([]byte(BuildRequestURL(r)))
}

// Match decodes a previously saved value and compares it against the
// rebuilt URL of the current request. Whatever the outcome, the caller
// must clear the cookie: a saved request is read at most once. A value
// that fails to decode simply never matches.
func (c *SavedRequestCache) Match(cookieValue string, r *http.Request) bool {
	decoded, err := base64.StdEncoding.DecodeString(cookieValue)
	if err != nil {
		c.logger.Debug("saved request: undecodable cookie value, ignoring")
		return false
	}
	return string(decoded) == BuildRequestURL(r)
}

// Cookie builds the saved-request cookie for a response: path /,
// HttpOnly, session lifetime, Secure when the original request was.
func (c *SavedRequestCache) Cookie(r *http.Request, value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
	}
}

// ClearCookie builds the expired cookie that consumes a saved request.
func (c *SavedRequestCache) ClearCookie(r *http.Request) *http.Cookie {
	cookie := c.Cookie(r, "")
	cookie.MaxAge = -1
	return cookie
}

// BuildRequestURL rebuilds the fully-qualified URL of a request:
// scheme, host with default ports omitted, path, query.
func BuildRequestURL(r *http.Request) string {
	scheme := requestScheme(r)
	host := canonicalHost(r.Host, scheme)

	var sb strings.Builder
	sb.WriteString(scheme)
	sb.WriteString("://")
	sb.WriteString(host)
	sb.WriteString(r.URL.EscapedPath())
	if r.URL.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(r.URL.RawQuery)
	}
	return sb.String()
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return "https"
	}
	return "http"
}

// canonicalHost strips the default port for the scheme so the same
// request always rebuilds to the same string.
func canonicalHost(host, scheme string) string {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return h
	}
	return host
}
