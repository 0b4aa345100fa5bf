package template

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghaggin/estate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = r.Render(rr, http.StatusOK, PageIndex, &Data{
		PageTitle: "home",
		Flashes:   []model.Flash{{Category: model.FlashSuccess, Message: "Thanks!"}},
		Images: []model.Image{
			{URL: "https://img.example/1.jpg", Caption: "<b>porch</b>"},
			{URL: "javascript:alert(1)"},
		},
	})
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, "<title>home</title>")
	assert.Contains(t, body, `class="alert alert-success"`)
	assert.Contains(t, body, "https://img.example/1.jpg")
	assert.Contains(t, body, "&lt;b&gt;porch&lt;/b&gt;")
	assert.NotContains(t, body, "javascript:alert")
	assert.NotContains(t, body, "Dashboard")
}

func TestRender_LoginKeepsNext(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, r.Render(rr, http.StatusOK, PageLogin, &Data{PageTitle: "login", Next: "/admin?tab=leads"}))
	assert.Contains(t, rr.Body.String(), `name="next" value="/admin?tab=leads"`)
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	assert.Error(t, r.Render(rr, http.StatusOK, "nope.html", &Data{}))
	assert.Empty(t, rr.Body.String())
}
