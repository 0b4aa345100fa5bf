package site

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ghaggin/estate/internal/auth"
	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/metrics"
	"github.com/ghaggin/estate/internal/middleware"
	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/internal/repository"
	"github.com/ghaggin/estate/internal/template"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testUsername = "admin"
	testPassword = "correct horse battery staple"
)

// flakyRepo fails admin lookups while down is set.
type flakyRepo struct {
	repository.Repository
	down atomic.Bool
}

func (f *flakyRepo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	if f.down.Load() {
		return nil, errors.New("connection refused")
	}
	return f.Repository.GetAdminByUsername(ctx, username)
}

type testApp struct {
	handler http.Handler
	metricz http.Handler
	repo    *flakyRepo
	metrics *metrics.Manager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Default()
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	log := zap.NewNop()
	repo := &flakyRepo{Repository: repository.NewMemory()}

	creds, err := auth.New(repo, bcrypt.MinCost, log)
	require.NoError(t, err)
	created, err := creds.Bootstrap(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, created)

	sessions, err := middleware.NewSessionManager(cfg, log)
	require.NoError(t, err)
	renderer, err := template.NewRenderer()
	require.NoError(t, err)
	m := metrics.NewTestManager()

	ctrl, err := NewController(ControllerParams{
		Creds:   creds,
		Leads:   repo,
		Images:  repo,
		Log:     log,
		Metrics: m,
	})
	require.NoError(t, err)

	s, err := New(Params{
		Log:        log,
		Config:     cfg,
		Controller: ctrl,
		Sessions:   sessions,
		Flash:      middleware.NewFlash(cfg, middleware.NewFlashStore(repo, log)),
		Renderer:   renderer,
		Metrics:    m,
	})
	require.NoError(t, err)

	return &testApp{handler: s.Handler(), metricz: s.MetricsHandler(), repo: repo, metrics: m}
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t   *testing.T
	h   http.Handler
	jar map[string]*http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, h: a.handler, jar: map[string]*http.Cookie{}}
}

func (b *browser) get(target string) *http.Response {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) *http.Response {
	return b.do(http.MethodPost, target, form)
}

func (b *browser) do(method, target string, form url.Values) *http.Response {
	b.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	r := httptest.NewRequest(method, target, body)
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.jar {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rr := httptest.NewRecorder()
	b.h.ServeHTTP(rr, r)

	res := rr.Result()
	for _, c := range res.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c
	}
	return res
}

func (b *browser) login(username, password string, remember bool, next string) *http.Response {
	form := url.Values{
		"username": {username},
		"password": {password},
		"next":     {next},
	}
	if remember {
		form.Set("remember", "1")
	}
	return b.post(middleware.LoginPath, form)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func TestSubmitEmail(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	res := b.post("/submit_email", url.Values{"email": {"  Buyer@Example.com "}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))
	assert.Contains(t, readBody(t, b.get("/")), "Thank you for your interest!")

	res = b.post("/submit_email", url.Values{"email": {"buyer@example.com"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	page := readBody(t, b.get("/"))
	assert.Contains(t, page, "already subscribed!")
	assert.NotContains(t, page, "Thank you for your interest!")

	leads, err := app.repo.GetLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "buyer@example.com", leads[0].Email)

	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CounterLeads.WithLabelValues(metrics.LeadCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CounterLeads.WithLabelValues(metrics.LeadDuplicate)))
}

func TestSubmitEmailRejected(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		flashed string
	}{
		{name: "empty", email: "   "},
		{name: "no at sign", email: "buyer.example.com", flashed: "valid email address"},
		{name: "display name", email: "Buyer <buyer@example.com>", flashed: "valid email address"},
		{name: "too long", email: strings.Repeat("a", 120) + "@example.com", flashed: "valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			b := app.browser(t)

			res := b.post("/submit_email", url.Values{"email": {tt.email}})
			assert.Equal(t, http.StatusSeeOther, res.StatusCode)

			page := readBody(t, b.get("/"))
			if tt.flashed != "" {
				assert.Contains(t, page, tt.flashed)
			}
			assert.NotContains(t, page, "Thank you")

			leads, err := app.repo.GetLeads(context.Background())
			require.NoError(t, err)
			assert.Empty(t, leads)
		})
	}
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	res := b.get("/admin")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login?next=/admin", res.Header.Get("Location"))

	page := readBody(t, b.get("/admin/login?next=/admin"))
	assert.Contains(t, page, `name="next" value="/admin"`)

	res = b.login(testUsername, testPassword, false, "/admin")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin", res.Header.Get("Location"))
	assert.Contains(t, b.jar, "session")
	assert.NotContains(t, b.jar, "remember_token")

	res = b.get("/admin")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	page = readBody(t, res)
	assert.Contains(t, page, "admin")
	assert.NotContains(t, page, "remembered login")

	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CounterLogins.WithLabelValues(metrics.LoginSuccess)))
}

func TestLoginNextTarget(t *testing.T) {
	tests := []struct {
		name     string
		next     string
		location string
	}{
		{name: "empty", next: "", location: "/admin"},
		{name: "local path with query", next: "/admin?tab=leads", location: "/admin?tab=leads"},
		{name: "absolute url", next: "https://evil.example/admin", location: "/admin"},
		{name: "scheme relative", next: "//evil.example", location: "/admin"},
		{name: "backslash", next: "/\\evil.example", location: "/admin"},
		{name: "javascript", next: "javascript:alert(1)", location: "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestApp(t).browser(t)
			res := b.login(testUsername, testPassword, false, tt.next)
			assert.Equal(t, http.StatusSeeOther, res.StatusCode)
			assert.Equal(t, tt.location, res.Header.Get("Location"))
		})
	}
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	app := newTestApp(t)

	wrongPassword := app.browser(t).login(testUsername, "wrong", false, "/admin")
	unknownUser := app.browser(t).login("nobody", "wrong", false, "/admin")

	assert.Equal(t, http.StatusOK, wrongPassword.StatusCode)
	assert.Equal(t, wrongPassword.StatusCode, unknownUser.StatusCode)
	assert.Empty(t, wrongPassword.Cookies())
	assert.Empty(t, unknownUser.Cookies())

	wrongBody := readBody(t, wrongPassword)
	assert.Contains(t, wrongBody, "Invalid username or password")
	assert.Equal(t, wrongBody, readBody(t, unknownUser))

	assert.Equal(t, 2.0, testutil.ToFloat64(app.metrics.CounterLogins.WithLabelValues(metrics.LoginInvalid)))
}

func TestLoginStorageFailure(t *testing.T) {
	app := newTestApp(t)
	app.repo.down.Store(true)

	b := app.browser(t)
	res := b.login(testUsername, testPassword, false, "/admin")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	page := readBody(t, res)
	assert.Contains(t, page, "An error occurred during login")
	assert.NotContains(t, page, "connection refused")
	assert.NotContains(t, b.jar, "session")

	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CounterLogins.WithLabelValues(metrics.LoginError)))
}

func TestLoginPageRedirectsAuthenticated(t *testing.T) {
	b := newTestApp(t).browser(t)
	b.login(testUsername, testPassword, false, "")

	res := b.get(middleware.LoginPath)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin", res.Header.Get("Location"))

	res = b.login(testUsername, "wrong", false, "")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Contains(t, b.jar, "session")
}

func TestRememberRestoresSession(t *testing.T) {
	b := newTestApp(t).browser(t)
	res := b.login(testUsername, testPassword, true, "/admin")
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Contains(t, b.jar, "remember_token")

	// browser closed
	delete(b.jar, "session")

	res = b.get("/admin")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "remembered login")
	assert.Contains(t, b.jar, "session")
}

func TestLogout(t *testing.T) {
	b := newTestApp(t).browser(t)
	b.login(testUsername, testPassword, true, "")
	require.Contains(t, b.jar, "session")
	require.Contains(t, b.jar, "remember_token")

	res := b.get("/logout")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, middleware.LoginPath, res.Header.Get("Location"))
	assert.NotContains(t, b.jar, "session")
	assert.NotContains(t, b.jar, "remember_token")

	assert.Contains(t, readBody(t, b.get(middleware.LoginPath)), "You have been logged out.")

	res = b.get("/admin")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login?next=/admin", res.Header.Get("Location"))
}

func TestLogoutRequiresAuth(t *testing.T) {
	b := newTestApp(t).browser(t)
	res := b.get("/logout")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login?next=/admin", res.Header.Get("Location"))

	// a crafted next=/logout must not end the new session either
	res = b.login(testUsername, testPassword, false, "/logout")
	assert.Equal(t, "/admin", res.Header.Get("Location"))
	assert.Equal(t, http.StatusOK, b.get("/admin").StatusCode)
}

func TestAddImage(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.login(testUsername, testPassword, false, "")

	res := b.post("/admin/add_image", url.Values{
		"image_url": {"https://cdn.example.com/front.jpg"},
		"caption":   {"Front porch"},
	})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin", res.Header.Get("Location"))

	page := readBody(t, b.get("/admin"))
	assert.Contains(t, page, "Image added successfully!")
	assert.Contains(t, page, "https://cdn.example.com/front.jpg")

	page = readBody(t, app.browser(t).get("/"))
	assert.Contains(t, page, "https://cdn.example.com/front.jpg")
	assert.Contains(t, page, "Front porch")
}

func TestAddImageRejected(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.login(testUsername, testPassword, false, "")

	for _, raw := range []string{"", "javascript:alert(1)", "ftp://example.com/a.jpg", "/relative.jpg"} {
		res := b.post("/admin/add_image", url.Values{"image_url": {raw}})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Contains(t, readBody(t, b.get("/admin")), "valid http or https image URL")
	}

	images, err := app.repo.GetImages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestAddImageRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	res := app.browser(t).post("/admin/add_image", url.Values{"image_url": {"https://cdn.example.com/a.jpg"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login?next=/admin", res.Header.Get("Location"))

	images, err := app.repo.GetImages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	b := newTestApp(t).browser(t)
	b.login(testUsername, testPassword, false, "")
	require.Contains(t, b.jar, "session")

	b.jar["session"].Value += "x"
	res := b.get("/admin")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login?next=/admin", res.Header.Get("Location"))
}

func TestStaticAndMetrics(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	res := b.get("/static/css/style.css")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = b.get("/static/missing.css")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	b.login(testUsername, "wrong", false, "")

	// never on the public router
	res = b.get("/metrics")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	require.NotNil(t, app.metricz)
	rr := httptest.NewRecorder()
	app.metricz.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `estate_test_login{result="invalid"} 1`)
}
