package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	m := NewTestManager()

	m.CounterLogins.WithLabelValues(LoginSuccess).Inc()
	m.CounterLogins.WithLabelValues(LoginInvalid).Inc()
	m.CounterLogins.WithLabelValues(LoginInvalid).Inc()
	m.CounterHandleRequestPanic.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterLogins.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterLogins.WithLabelValues(LoginInvalid)))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `estate_test_login{result="invalid"} 2`)
	assert.Contains(t, rr.Body.String(), "estate_test_handle_request_panic 1")
}

func TestNew_Independent(t *testing.T) {
	// two apps in one process must not collide on registration
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
