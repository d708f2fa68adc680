package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentstation/venuemap/pkg/errors"
)

// TestFail tests the Fail helper function.
func TestFail(t *testing.T) {
	resp := Fail("TEST_ERROR", "Test error message", "Additional details")

	if resp.Data != nil {
		t.Error("expected Data to be nil")
	}
	if resp.Error == nil {
		t.Fatal("expected Error to be set")
	}
	if resp.Error.Code != "TEST_ERROR" {
		t.Errorf("expected Code=TEST_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Details != "Additional details" {
		t.Errorf("expected Details=Additional details, got %s", resp.Error.Details)
	}
}

// TestOK tests the envelope written by OK.
func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]int{"count": 42})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}

	var decoded struct {
		Data  map[string]int `json:"data"`
		Error *Error         `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Data["count"] != 42 {
		t.Errorf("expected count=42, got %d", decoded.Data["count"])
	}
	if decoded.Error != nil {
		t.Error("expected decoded Error to be nil")
	}
}

// TestErrorFromType tests the mapping of typed errors to status codes.
func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &errors.NotFoundError{Resource: "venue", ID: "c9"}, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", errors.WrapResource("upsert", "price", "c9", &errors.NotFoundError{Resource: "venue", ID: "c9"}), http.StatusNotFound, "NOT_FOUND"},
		{"validation", errors.NewValidationError("price", "-1", "must be positive"), http.StatusBadRequest, "BAD_REQUEST"},
		{"unauthorized", &errors.AuthenticationError{Method: "token", Message: "expired"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"config", &errors.ConfigError{Component: "curated", Message: "no curated source configured"}, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"fetch", errors.WrapFetch("erapi", fmt.Errorf("boom")), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"timeout", fmt.Errorf("%w: deadline", errors.ErrTimeout), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"rate limited", errors.NewAPIError("overpass", http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			var decoded Response
			if err := json.NewDecoder(w.Body).Decode(&decoded); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if decoded.Error == nil || decoded.Error.Code != tt.code {
				t.Errorf("expected code %s, got %+v", tt.code, decoded.Error)
			}
		})
	}
}

// TestInternalErrorHidesDetails tests that internal errors are not exposed.
func TestInternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, fmt.Errorf("password=hunter2"))

	var decoded Response
	if err := json.NewDecoder(w.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Error.Details != "An unexpected error occurred" {
		t.Errorf("unexpected details %q", decoded.Error.Details)
	}
}
