package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {
	// No authentication applied
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}

// PathAuth substitutes the key for a placeholder in the URL path, the way
// exchangerate-api style endpoints expect it.
type PathAuth struct {
	Placeholder string
}

// Apply implements the Authenticator interface for PathAuth.
func (a *PathAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil || a.Placeholder == "" {
		return
	}
	req.URL.Path = replaceSegment(req.URL.Path, a.Placeholder, apiKey)
	req.URL.RawPath = ""
}

func replaceSegment(path, placeholder, value string) string {
	segments := splitPath(path)
	for i, s := range segments {
		if s == placeholder {
			segments[i] = value
		}
	}
	return "/" + joinPath(segments)
}
