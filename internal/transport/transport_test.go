package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://v6.example/v6/KEY/latest/USD", nil)

	(&NoAuth{}).Apply(req, "k")
	assert.Empty(t, req.Header.Get("Authorization"))

	(&BearerAuth{}).Apply(req, "k")
	assert.Equal(t, "Bearer k", req.Header.Get("Authorization"))

	(&HeaderAuth{Header: "X-Api-Key"}).Apply(req, "k")
	assert.Equal(t, "k", req.Header.Get("X-Api-Key"))

	(&PathAuth{Placeholder: "KEY"}).Apply(req, "secret")
	assert.Equal(t, "/v6/secret/latest/USD", req.URL.Path)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	c := New("test", WithAuth(&BearerAuth{}, "tok"))
	var out struct {
		Result string `json:"result"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "success", out.Result)
}

func TestDecodeResponseStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
		limited     bool
	}{
		{"server error", http.StatusBadGateway, true, false},
		{"rate limited", http.StatusTooManyRequests, false, true},
		{"client error", http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			err := New("overpass").GetJSON(context.Background(), srv.URL+"/api?key=secret", &struct{}{})
			var apiErr *errors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "overpass", apiErr.Source)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
			assert.NotContains(t, apiErr.Endpoint, "secret")
			assert.Equal(t, tt.unavailable, errors.IsSourceUnavailable(err))
			assert.Equal(t, tt.limited, errors.IsRateLimited(err))
		})
	}
}

func TestDecodeResponseBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer srv.Close()

	err := New("erapi").GetJSON(context.Background(), srv.URL, &struct{}{})
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "[out:json];", r.PostForm.Get("data"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("overpass")
	resp, err := c.PostForm(context.Background(), srv.URL, url.Values{"data": {"[out:json];"}})
	require.NoError(t, err)
	require.NoError(t, c.Decode(resp, &struct{}{}))
}

func TestDoHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := New("slow").Get(ctx, srv.URL)
	assert.ErrorIs(t, err, errors.ErrTimeout)
}
