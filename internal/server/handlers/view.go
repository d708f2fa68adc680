package handlers

import (
	"net/http"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/server/response"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// ViewResponse reports the view center after a write.
type ViewResponse struct {
	Changed bool              `json:"changed"`
	Center  venues.Coordinate `json:"center"`
	Command *viewsync.Command `json:"command,omitempty"`
}

// CenterRequest is the body of PUT /api/v1/view/center.
type CenterRequest struct {
	venues.Coordinate
	Reason string `json:"reason,omitempty"`
}

// HandleGetCenter handles GET /api/v1/view/center.
func (h *Handlers) HandleGetCenter(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, ViewResponse{Center: h.vm.Center()})
}

// HandleSetCenter handles PUT /api/v1/view/center, a programmatic recenter.
func (h *Handlers) HandleSetCenter(w http.ResponseWriter, r *http.Request) {
	var req CenterRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if !req.Valid() {
		response.ErrorFromType(w, errors.NewValidationError("center", req.String(), "latitude must be in [-90, 90] and longitude in [-180, 180]"))
		return
	}
	if req.Reason == "" {
		req.Reason = "api"
	}
	response.OK(w, viewResponse(h.vm.ProposeCenter(req.Coordinate, req.Reason)))
}

// HandlePan handles POST /api/v1/view/pan, the map reporting a user pan.
// Pans never produce a recenter command.
func (h *Handlers) HandlePan(w http.ResponseWriter, r *http.Request) {
	var req venues.Coordinate
	if err := decodeBody(w, r, &req, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if !req.Valid() {
		response.ErrorFromType(w, errors.NewValidationError("center", req.String(), "latitude must be in [-90, 90] and longitude in [-180, 180]"))
		return
	}
	response.OK(w, viewResponse(h.vm.ReportPan(req)))
}

// HandleGetPreferences handles GET /api/v1/preferences.
func (h *Handlers) HandleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, h.vm.Preferences())
}

// HandlePatchPreferences handles PATCH /api/v1/preferences.
func (h *Handlers) HandlePatchPreferences(w http.ResponseWriter, r *http.Request) {
	var patch venuemap.PreferencesPatch
	if err := decodeBody(w, r, &patch, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	prefs, err := h.vm.UpdatePreferences(patch)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	// the display currency feeds cached listings
	h.cache.Clear()
	response.OK(w, prefs)
}

func viewResponse(o viewsync.Outcome) ViewResponse {
	return ViewResponse{Changed: o.Changed, Center: o.Center, Command: o.Command}
}
