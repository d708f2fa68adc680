package enhancer

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/venuemap/pkg/venues"
)

// DefaultSearchURL is the query endpoint used when a venue has no usable website.
const DefaultSearchURL = "https://www.google.com/search"

// InferMenuURL derives a probable menu link for v. The result is a heuristic
// guess, not a verified menu: an absolute http(s) website gets a "menu" path
// segment, anything else becomes a search for the venue name plus "menu pdf".
func InferMenuURL(v venues.Venue) string {
	return inferMenuURL(v, DefaultSearchURL)
}

func inferMenuURL(v venues.Venue, searchURL string) string {
	if u, ok := absoluteWebsite(v.Website); ok {
		return u.JoinPath("menu").String()
	}
	query := strings.TrimSpace(v.Name + " menu pdf")
	return searchURL + "?q=" + url.QueryEscape(query)
}

func absoluteWebsite(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	// queries and fragments belong to the landing page, not the menu
	u.RawQuery = ""
	u.Fragment = ""
	return u, true
}

// MenuLinkEnhancer fills MenuURL for venues that lack one.
type MenuLinkEnhancer struct {
	searchURL string
	priority  int
}

// NewMenuLinkEnhancer creates a MenuLinkEnhancer. An empty searchURL selects
// DefaultSearchURL.
func NewMenuLinkEnhancer(searchURL string) *MenuLinkEnhancer {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &MenuLinkEnhancer{searchURL: searchURL, priority: 50}
}

// Name implements Enhancer.
func (e *MenuLinkEnhancer) Name() string { return "menu-link" }

// Priority implements Enhancer.
func (e *MenuLinkEnhancer) Priority() int { return e.priority }

// CanEnhance implements Enhancer.
func (e *MenuLinkEnhancer) CanEnhance(v venues.Venue) bool {
	return strings.TrimSpace(v.MenuURL) == ""
}

// Enhance implements Enhancer.
func (e *MenuLinkEnhancer) Enhance(_ context.Context, v venues.Venue) (venues.Venue, error) {
	out := v.Clone()
	out.MenuURL = inferMenuURL(v, e.searchURL)
	return out, nil
}
