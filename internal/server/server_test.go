package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/internal/sources/memory"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

const signingKey = "0123456789abcdef0123"

func feed() sources.FeedFunc {
	return func(context.Context, float64, float64, int) ([]venues.Venue, error) {
		return []venues.Venue{
			{ID: "osm:node/2", Name: "Kadıköy Kahve", Latitude: 40.9900, Longitude: 29.0300},
		}, nil
	}
}

type fixture struct {
	srv *Server
	vm  venuemap.Client
	ts  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logging.DisableLoggingForTest(t)

	vm, err := venuemap.New(
		venuemap.WithCurated(memory.New(memory.WithDemoVenues())),
		venuemap.WithFeed(feed()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vm.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	checker := auth.NewChecker(signingKey, map[string]string{"ops": string(hash)})

	app := &appcontext.Mock{
		VenueMapFunc: func() (venuemap.Client, error) { return vm, nil },
		AuthFunc:     func() *auth.Checker { return checker },
	}

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	srv, err := New(app, cfg)
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &fixture{srv: srv, vm: vm, ts: ts}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (f *fixture) refresh(t *testing.T) {
	t.Helper()
	resp, env := f.do(t, http.MethodPost, "/api/v1/refresh", "", map[string]float64{"lat": 41.0082, "lng": 28.9784})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%s", env.Data)
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	resp, env := f.do(t, http.MethodPost, "/api/v1/login", "", auth.Credentials{Username: "ops", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

// TestServerInitialization tests that New and Shutdown complete without blocking.
func TestServerInitialization(t *testing.T) {
	logging.DisableLoggingForTest(t)
	vm, err := venuemap.New()
	require.NoError(t, err)
	app := &appcontext.Mock{VenueMapFunc: func() (venuemap.Client, error) { return vm, nil }}

	done := make(chan struct{})
	var srv *Server
	go func() {
		srv, err = New(app, Config{})
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, err)
		require.NotNil(t, srv)
	case <-time.After(5 * time.Second):
		t.Fatal("server.New() deadlocked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, env := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
		Auth   string `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, auth.StateConfigured.String(), health.Auth)
}

func TestListAndGetVenues(t *testing.T) {
	f := newFixture(t)
	f.refresh(t)

	resp, env := f.do(t, http.MethodGet, "/api/v1/venues?sort=name", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Venues []struct {
			ID   string `json:"id"`
			From string `json:"from"`
		} `json:"venues"`
		Count    int    `json:"count"`
		Currency string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "TRY", list.Currency)
	got := []string{}
	for _, v := range list.Venues {
		got = append(got, v.ID)
	}
	assert.ElementsMatch(t, []string{"mock-1", "osm:node/2"}, got)

	// ids carry slashes
	resp, env = f.do(t, http.MethodGet, "/api/v1/venues/osm:node/2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "osm:node/2", v.ID)

	resp, env = f.do(t, http.MethodGet, "/api/v1/venues/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestListVenuesRejectsBadQuery(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"sort=distance", "min_price=abc", "limit=-1", "currency=dollars", "min_rating=x"} {
		resp, env := f.do(t, http.MethodGet, "/api/v1/venues?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		require.NotNil(t, env.Error, q)
	}
}

func TestReadCacheInvalidatedByChanges(t *testing.T) {
	f := newFixture(t)
	f.refresh(t)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/venues", "", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	resp, _ = f.do(t, http.MethodGet, "/api/v1/venues", "", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	token := f.login(t)
	resp, _ = f.do(t, http.MethodPost, "/api/v1/venues/mock-1/prices", token,
		map[string]any{"item": "Mocha", "price": "95", "currency": "TRY"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/venues", "", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}

func TestSubmitPriceRequiresToken(t *testing.T) {
	f := newFixture(t)
	f.refresh(t)

	body := map[string]any{"item": "Latte", "price": "90", "currency": "TRY"}
	resp, env := f.do(t, http.MethodPost, "/api/v1/venues/mock-1/prices", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/venues/mock-1/prices", "garbage", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := f.login(t)
	resp, env = f.do(t, http.MethodPost, "/api/v1/venues/osm:node/2/prices", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	v, err := f.vm.Venue("osm:node/2")
	require.NoError(t, err)
	require.Len(t, v.Prices, 1)
	assert.True(t, v.Prices[0].Price.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, venues.OriginCurated, v.Origin)

	resp, env = f.do(t, http.MethodPost, "/api/v1/venues/mock-1/prices", token,
		map[string]any{"item": "", "price": "90", "currency": "TRY"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	resp, env := f.do(t, http.MethodPost, "/api/v1/login", "", auth.Credentials{Username: "ops", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
}

func TestFocusVenue(t *testing.T) {
	f := newFixture(t)
	f.refresh(t)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/venues/mock-1/focus", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	focused, ok := f.vm.Focused()
	require.True(t, ok)
	assert.Equal(t, "mock-1", focused.ID)
	assert.True(t, f.vm.Center().Within(focused.Coordinate(), 1e-9))

	resp, _ = f.do(t, http.MethodGet, "/api/v1/venues/mock-1/focus", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestViewCenterAndPan(t *testing.T) {
	f := newFixture(t)

	type view struct {
		Changed bool              `json:"changed"`
		Center  venues.Coordinate `json:"center"`
		Command *struct {
			Seq uint64 `json:"seq"`
		} `json:"command"`
	}

	resp, env := f.do(t, http.MethodPut, "/api/v1/view/center", "", map[string]float64{"lat": 40.99, "lng": 29.03})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v view
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.True(t, v.Changed)
	require.NotNil(t, v.Command)

	resp, env = f.do(t, http.MethodPost, "/api/v1/view/pan", "", map[string]float64{"lat": 41.05, "lng": 29.00})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = view{}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.True(t, v.Changed)
	assert.Nil(t, v.Command)

	resp, env = f.do(t, http.MethodGet, "/api/v1/view/center", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = view{}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.InDelta(t, 41.05, v.Center.Latitude, 1e-9)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/view/center", "", map[string]float64{"lat": 91, "lng": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)

	resp, env := f.do(t, http.MethodPatch, "/api/v1/preferences", "", map[string]string{"currency": "usd"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prefs struct {
		Currency string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.Equal(t, "USD", prefs.Currency)

	resp, _ = f.do(t, http.MethodPatch, "/api/v1/preferences", "", map[string]string{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/api/v1/preferences", "", map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRatesAndConvert(t *testing.T) {
	f := newFixture(t)

	resp, env := f.do(t, http.MethodGet, "/api/v1/rates", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var table struct {
		Base string `json:"base"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &table))
	assert.Equal(t, "USD", table.Base)

	resp, env = f.do(t, http.MethodGet, "/api/v1/convert?amount=10&from=usd&to=TRY", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conv struct {
		Result decimal.Decimal `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.True(t, conv.Result.Equal(decimal.NewFromInt(312)), conv.Result.String())

	resp, _ = f.do(t, http.MethodGet, "/api/v1/convert?amount=ten&from=USD&to=TRY", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown codes fail open unless strict
	resp, env = f.do(t, http.MethodGet, "/api/v1/convert?amount=10&from=XYZ&to=TRY", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.True(t, conv.Result.Equal(decimal.NewFromInt(10)), conv.Result.String())

	resp, _ = f.do(t, http.MethodGet, "/api/v1/convert?amount=10&from=XYZ&to=TRY&strict=true", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// no rate source configured
	resp, _ = f.do(t, http.MethodPost, "/api/v1/rates/refresh", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/rates", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketReceivesRecenter(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/api/v1/updates/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration is asynchronous; keep proposing until a command arrives
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	msgs := make(chan map[string]any, 16)
	go func() {
		for {
			var m map[string]any
			if err := conn.ReadJSON(&m); err != nil {
				close(msgs)
				return
			}
			msgs <- m
		}
	}()

	lat := 40.90
	deadline := time.After(3 * time.Second)
	for {
		f.vm.ProposeCenter(venues.Coordinate{Latitude: lat, Longitude: 29.1}, "test")
		lat -= 0.01
		select {
		case m, ok := <-msgs:
			require.True(t, ok, "connection closed")
			if m["type"] == "view.recenter" {
				data := m["data"].(map[string]any)
				assert.Equal(t, "test", data["reason"])
				return
			}
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no recenter event received")
		}
	}
}
