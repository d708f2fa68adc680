package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/server/response"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
)

// RefreshRequest is the optional body of POST /api/v1/refresh. Without
// coordinates the current view center is refreshed.
type RefreshRequest struct {
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
	Radius    int      `json:"radius,omitempty"`
}

// RefreshResponse reports a completed refresh.
type RefreshResponse struct {
	*venuemap.RefreshResult
	Degraded bool     `json:"degraded"`
	Errors   []string `json:"errors,omitempty"`
}

// ConvertResponse is the body of GET /api/v1/convert.
type ConvertResponse struct {
	Amount decimal.Decimal `json:"amount"`
	From   currency.Code   `json:"from"`
	To     currency.Code   `json:"to"`
	Result decimal.Decimal `json:"result"`
	Source string          `json:"source"`
}

// HandleRefresh handles POST /api/v1/refresh.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		response.ErrorFromType(w, errors.NewValidationError("center", req, "lat and lng must be given together"))
		return
	}

	center := h.vm.Center()
	if req.Latitude != nil {
		center.Latitude, center.Longitude = *req.Latitude, *req.Longitude
	}

	opts := []venuemap.RefreshOption{venuemap.WithReason("api")}
	if req.Radius > 0 {
		opts = append(opts, venuemap.WithRadius(req.Radius))
	}
	res, err := h.vm.RefreshVenues(r.Context(), center.Latitude, center.Longitude, opts...)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	out := RefreshResponse{RefreshResult: res, Degraded: res.Degraded()}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	response.OK(w, out)
}

// HandleRates handles GET /api/v1/rates.
func (h *Handlers) HandleRates(w http.ResponseWriter, _ *http.Request) {
	h.cached(w, "rates", func() (any, error) {
		return h.vm.Rates(), nil
	})
}

// HandleRefreshRates handles POST /api/v1/rates/refresh.
func (h *Handlers) HandleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := h.vm.RefreshRates(r.Context()); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, h.vm.Rates())
}

// HandleConvert handles GET /api/v1/convert?amount=&from=&to=&strict=.
// Conversion is fail-open unless strict is set; the rate source is reported
// so callers can tell a fallback table apart.
func (h *Handlers) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		response.ErrorFromType(w, errors.NewValidationError("amount", q.Get("amount"), "must be a number"))
		return
	}
	from, to := currency.Normalize(q.Get("from")), currency.Normalize(q.Get("to"))
	if !to.Valid() {
		to = h.vm.Preferences().Currency
	}
	if !from.Valid() {
		response.ErrorFromType(w, errors.NewValidationError("from", q.Get("from"), "must be a three-letter code"))
		return
	}

	rates := h.vm.Rates()
	if strict, _ := strconv.ParseBool(q.Get("strict")); strict {
		if _, err := rates.Exchange(amount, from, to); err != nil {
			response.ErrorFromType(w, err)
			return
		}
	}
	response.OK(w, ConvertResponse{
		Amount: amount,
		From:   from,
		To:     to,
		Result: currency.Convert(amount, from, to, rates).Round(2),
		Source: rates.Source,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit,omitempty"`
	Venues      int       `json:"venues"`
	Loading     bool      `json:"loading"`
	Rates       string    `json:"rates"`
	Clients     int       `json:"ws_clients"`
	Auth        string    `json:"auth"`
	RefreshedAt time.Time `json:"refreshed_at,omitzero"`
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := h.vm.Snapshot()
	response.OK(w, HealthResponse{
		Status:      "ok",
		Version:     h.info.Version,
		Commit:      h.info.Commit,
		Venues:      len(snap.Venues),
		Loading:     snap.Loading,
		Rates:       snap.Rates.Source,
		Clients:     h.wsHub.ClientCount(),
		Auth:        h.checker.Status().State.String(),
		RefreshedAt: snap.LastRefresh,
	})
}
