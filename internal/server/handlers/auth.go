package handlers

import (
	"net/http"

	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/internal/server/response"
	"github.com/agentstation/venuemap/pkg/logging"
)

// HandleLogin handles POST /api/v1/login. The returned token authorizes
// price submissions.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeBody(w, r, &creds, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	session, err := h.checker.Login(creds)
	if err != nil {
		logging.FromContext(r.Context()).Warn().
			Str("user", creds.Username).
			Msg("Operator login rejected")
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, session)
}
