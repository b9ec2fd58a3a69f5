package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/config"
	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

const testPassword = "hunter22"

type testEnv struct {
	t      *testing.T
	server *WebServer
	db     *database.Database
	http   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewDefaultConfig()
	cfg.Database.DataDir = t.TempDir()

	db, err := database.OpenDatabase(database.DBConfigFrom(cfg), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Shutdown() })

	server, err := NewServer(db, cfg, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{t: t, server: server, db: db, http: ts}
}

// testClient is a browser: it keeps cookies and does not follow redirects
type testClient struct {
	env    *testEnv
	client *http.Client
}

func (e *testEnv) newClient() *testClient {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &testClient{
		env: e,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type testResponse struct {
	Status   int
	Location string
	Body     string
}

func (tc *testClient) do(req *http.Request) testResponse {
	tc.env.t.Helper()
	resp, err := tc.client.Do(req)
	require.NoError(tc.env.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(tc.env.t, err)
	return testResponse{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Body: string(body)}
}

func (tc *testClient) get(path string) testResponse {
	tc.env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, tc.env.http.URL+path, nil)
	require.NoError(tc.env.t, err)
	return tc.do(req)
}

func (tc *testClient) postForm(path string, form url.Values) testResponse {
	tc.env.t.Helper()
	req, err := http.NewRequest(http.MethodPost, tc.env.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(tc.env.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req)
}

// follow GETs the Location of a redirect response
func (tc *testClient) follow(r testResponse) testResponse {
	tc.env.t.Helper()
	require.Equal(tc.env.t, http.StatusSeeOther, r.Status, r.Body)
	return tc.get(r.Location)
}

func (e *testEnv) createUser(username string) *models.User {
	e.t.Helper()
	hash, err := hashPassword(testPassword)
	require.NoError(e.t, err)
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: hash}
	require.NoError(e.t, e.db.InsertUser(u))
	return u
}

// loginAs returns a client signed in as a new user
func (e *testEnv) loginAs(username string) (*testClient, *models.User) {
	e.t.Helper()
	user := e.createUser(username)
	tc := e.newClient()
	r := tc.postForm("/login", url.Values{"username": {username}, "password": {testPassword}})
	require.Equal(e.t, http.StatusSeeOther, r.Status)
	require.Equal(e.t, "/campgrounds", r.Location)
	return tc, user
}

func (e *testEnv) createCampground(author *models.User, title string) *models.Campground {
	e.t.Helper()
	c := &models.Campground{
		Title:       title,
		Location:    "Tampa, Florida",
		Image:       "https://example.com/" + strings.ReplaceAll(title, " ", "-") + ".jpg",
		Price:       decimal.NewFromInt(20),
		Description: "A place to camp",
		AuthorID:    author.ID,
	}
	require.NoError(e.t, e.db.InsertCampground(c))
	return c
}

func (e *testEnv) count() int64 {
	e.t.Helper()
	n, err := e.db.CountCampgrounds()
	require.NoError(e.t, err)
	return n
}

func validCampgroundForm() url.Values {
	return url.Values{
		"campground[title]":       {"Silent Creek"},
		"campground[location]":    {"Denver, Colorado"},
		"campground[image]":       {"https://example.com/creek.jpg"},
		"campground[price]":       {"24.99"},
		"campground[description]": {"Nice and quiet"},
	}
}

// idFromLocation extracts the id of /campgrounds/<id>
func idFromLocation(location string) string {
	return strings.TrimPrefix(location, "/campgrounds/")
}
