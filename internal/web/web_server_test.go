package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestPingAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	tc := env.newClient()

	r := tc.get("/ping")
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "pong", r.Body)

	tc.get("/campgrounds")
	r = tc.get("/metrics")
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, r.Body, `yelpcamp_http_requests_total{code="200",method="GET",route="/campgrounds"}`)
	assert.Contains(t, r.Body, "yelpcamp_flash_sessions_pending")
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t)

	r := env.newClient().get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Contains(t, r.Body, "Page Not Found")
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t)
	env.createCampground(env.createUser("alice"), "Only One")

	r := env.newClient().get("/")
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, r.Body, "explore our 1 campgrounds")
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	tc := env.newClient()

	r := tc.get("/static/app.css")
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, r.Body, ".navbar")

	r = tc.get("/static/")
	assert.Equal(t, http.StatusNotFound, r.Status)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.http.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "6f1c2a8e-3b7d-4c1e-9a55-0d2b7e4f8c11")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "6f1c2a8e-3b7d-4c1e-9a55-0d2b7e4f8c11", resp.Header.Get(requestIDHeader))
}

func TestMethodOverride(t *testing.T) {
	var seen string
	h := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method
	}))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   string
	}{
		{"query put", http.MethodPost, "/x?_method=PUT", "", http.MethodPut},
		{"query delete lower case", http.MethodPost, "/x?_method=delete", "", http.MethodDelete},
		{"form field", http.MethodPost, "/x", "_method=PATCH&a=b", http.MethodPatch},
		{"unsupported override", http.MethodPost, "/x?_method=GET", "", http.MethodPost},
		{"only POST is overridden", http.MethodGet, "/x?_method=DELETE", "", http.MethodGet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestFlashStore(t *testing.T) {
	f := NewFlashStore()
	f.Add("a", FlashSuccess, "one")
	f.Add("a", FlashError, "two")
	f.Add("a", FlashSuccess, "three")

	success, errs := f.GetAndClear("a")
	assert.Equal(t, []string{"one", "three"}, success)
	assert.Equal(t, []string{"two"}, errs)
	success, errs = f.GetAndClear("a")
	assert.Empty(t, success)
	assert.Empty(t, errs)
	assert.Zero(t, f.Len())

	f.SetReturnTo("a", "/campgrounds/new")
	f.Add("a", FlashError, "sign in")
	f.Move("a", "b")
	assert.Equal(t, "", f.TakeReturnTo("a"))
	assert.Equal(t, "/campgrounds/new", f.TakeReturnTo("b"))
	_, errs = f.GetAndClear("b")
	assert.Equal(t, []string{"sign in"}, errs)

	f.Add("c", FlashSuccess, "stale")
	assert.Zero(t, f.Expire(time.Hour))
	assert.Equal(t, 1, f.Expire(-time.Second))
	assert.Zero(t, f.Len())

	f.Add("d", FlashSuccess, "gone")
	f.Drop("d")
	assert.Zero(t, f.Len())
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, "$24.99", formatPrice(decimal.RequireFromString("24.99")))
	assert.Equal(t, "$1,250.00", formatPrice(decimal.NewFromInt(1250)))
	assert.Equal(t, "$0.10", formatPrice(decimal.RequireFromString("0.1")))

	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "☆☆☆☆☆", stars(-1))
	assert.Equal(t, "★★★★★", stars(9))

	id := primitive.NewObjectID()
	assert.False(t, authored(nil, id))
}

func TestLoadTemplates(t *testing.T) {
	pages, err := loadTemplates(EmbeddedTemplatesFS)
	require.NoError(t, err)
	for _, name := range []string{"home", "error", "campgrounds/index", "campgrounds/new", "campgrounds/show", "campgrounds/edit", "users/login", "users/register"} {
		assert.Contains(t, pages, name)
	}
}

func TestSessionCleanupStops(t *testing.T) {
	env := newTestEnv(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	done := env.server.StartSessionCleanup(ctx, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session cleanup did not stop")
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, env.server.Shutdown(ctx))
}
