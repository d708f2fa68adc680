package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/internal/cmd/cmdutil"
	"github.com/agentstation/venuemap/internal/server/response"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/filter"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/venues"
)

// VenueView is a venue with its cheapest item in the display currency.
type VenueView struct {
	venues.Venue
	From     *decimal.Decimal `json:"from,omitempty"`
	Currency currency.Code    `json:"currency"`
}

// VenueList is the body of the venue listing.
type VenueList struct {
	Venues   []VenueView   `json:"venues"`
	Count    int           `json:"count"`
	Currency currency.Code `json:"currency"`
	Stale    bool          `json:"stale"`
	Loading  bool          `json:"loading"`
}

// PriceRequest is the body of a price submission.
type PriceRequest struct {
	Item     string          `json:"item"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// HandleListVenues handles GET /api/v1/venues.
// Query parameters mirror the CLI flags: q, min_price, max_price, min_rating,
// sort, desc, currency, limit.
func (h *Handlers) HandleListVenues(w http.ResponseWriter, r *http.Request) {
	criteria, err := CriteriaFromQuery(r.URL.Query())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cached(w, "venues:"+r.URL.RawQuery, func() (any, error) {
		snap := h.vm.Snapshot()
		display := criteria.Currency
		if display == "" {
			display = snap.Preferences.Currency
		}
		vs := h.vm.Venues(criteria)
		list := VenueList{
			Venues:   make([]VenueView, 0, len(vs)),
			Currency: display,
			Stale:    snap.Stale,
			Loading:  snap.Loading,
		}
		for _, v := range vs {
			list.Venues = append(list.Venues, view(v, display, snap.Rates))
		}
		list.Count = len(list.Venues)
		return list, nil
	})
}

// HandleGetVenue handles GET /api/v1/venues/{id}.
func (h *Handlers) HandleGetVenue(w http.ResponseWriter, _ *http.Request, id string) {
	h.cached(w, "venue:"+id, func() (any, error) {
		v, err := h.vm.Venue(id)
		if err != nil {
			return nil, err
		}
		display := h.vm.Preferences().Currency
		return view(v, display, h.vm.Rates()), nil
	})
}

// HandleFocusVenue handles POST /api/v1/venues/{id}/focus.
func (h *Handlers) HandleFocusVenue(w http.ResponseWriter, r *http.Request, id string) {
	v, err := h.vm.FocusVenue(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, view(v, h.vm.Preferences().Currency, h.vm.Rates()))
}

// HandleSubmitPrice handles POST /api/v1/venues/{id}/prices.
func (h *Handlers) HandleSubmitPrice(w http.ResponseWriter, r *http.Request, id string) {
	var req PriceRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if req.Currency == "" {
		req.Currency = h.vm.Preferences().Currency.String()
	}

	v, err := h.vm.SubmitPrice(r.Context(), id, req.Item, req.Price, req.Currency)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	logging.FromContext(r.Context()).Info().
		Str("venue", id).
		Str("item", req.Item).
		Msg("Price submitted over HTTP")
	response.Created(w, view(v, h.vm.Preferences().Currency, h.vm.Rates()))
}

func view(v venues.Venue, display currency.Code, rates *currency.Table) VenueView {
	out := VenueView{Venue: v, Currency: display}
	if p, ok := filter.CheapestPrice(v, display, rates); ok {
		out.From = &p
	}
	return out
}

// CriteriaFromQuery builds a projection from query parameters, with the
// same validation as the CLI flags.
func CriteriaFromQuery(q url.Values) (filter.Criteria, error) {
	flags := cmdutil.FilterFlags{
		Search:   q.Get("q"),
		MinPrice: q.Get("min_price"),
		MaxPrice: q.Get("max_price"),
		Sort:     q.Get("sort"),
		Currency: q.Get("currency"),
	}
	if raw := q.Get("min_rating"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 {
			return filter.Criteria{}, errors.NewValidationError("min_rating", raw, "must be a non-negative number")
		}
		flags.MinRating = r
	}
	if raw := q.Get("desc"); raw != "" {
		d, err := strconv.ParseBool(raw)
		if err != nil {
			return filter.Criteria{}, errors.NewValidationError("desc", raw, "must be a boolean")
		}
		flags.Desc = d
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter.Criteria{}, errors.NewValidationError("limit", raw, "must be a non-negative integer")
		}
		flags.Limit = n
	}
	return flags.Criteria()
}
