// Package erapi implements the exchange-rate feed over open.er-api.com.
package erapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/venuemap/internal/transport"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/sources"
)

// Compile-time interface check.
var _ sources.Rates = (*Source)(nil)

// Source fetches the latest rates for a base currency.
type Source struct {
	client  *transport.Client
	baseURL string
}

// Option configures a Source.
type Option func(*Source)

// WithURL overrides the endpoint. The base currency is appended as the last
// path segment.
func WithURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey targets the keyed v6 API, where the key is a path segment
// named KEY in the URL.
func WithAPIKey(key string) Option {
	return func(s *Source) {
		s.client = transport.New(sources.ERAPIID.String(),
			transport.WithAuth(&transport.PathAuth{Placeholder: "KEY"}, key))
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		s.client = transport.New(sources.ERAPIID.String(), transport.WithHTTPClient(hc))
	}
}

// New creates a rate source.
func New(opts ...Option) *Source {
	s := &Source{
		client:  transport.New(sources.ERAPIID.String()),
		baseURL: constants.RatesURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Rates.
func (s *Source) ID() sources.ID {
	return sources.ERAPIID
}

type response struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	BaseCode  string             `json:"base_code"`
	UpdatedAt int64              `json:"time_last_update_unix"`
	Rates     map[string]float64 `json:"rates"`
}

// Rates implements sources.Rates.
func (s *Source) Rates(ctx context.Context, base currency.Code) (*currency.Table, error) {
	if !base.Valid() {
		return nil, errors.NewValidationError("base", base, "must be a three-letter code")
	}

	var body response
	if err := s.client.GetJSON(ctx, s.baseURL+"/"+base.String(), &body); err != nil {
		return nil, err
	}
	if body.Result != "success" {
		msg := body.ErrorType
		if msg == "" {
			msg = "unexpected result " + body.Result
		}
		return nil, &errors.APIError{Source: sources.ERAPIID.String(), StatusCode: http.StatusBadGateway, Message: msg}
	}

	rates := make(map[currency.Code]float64, len(body.Rates))
	for code, rate := range body.Rates {
		rates[currency.Normalize(code)] = rate
	}
	tableBase := base
	if b := currency.Normalize(body.BaseCode); b.Valid() {
		tableBase = b
	}
	at := time.Now().UTC()
	if body.UpdatedAt > 0 {
		at = time.Unix(body.UpdatedAt, 0).UTC()
	}
	return currency.NewTable(tableBase, rates, sources.ERAPIID.String(), at)
}
