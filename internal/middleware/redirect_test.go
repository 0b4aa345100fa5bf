package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedirectTargetIsSafe(t *testing.T) {
	safe := []string{
		"/",
		"/admin",
		"/admin?tab=leads",
		"/admin/login?next=/admin",
		"/a/b#frag",
	}
	unsafe := []string{
		"",
		"admin",
		"https://evil.example/x",
		"http:/evil.example",
		"//evil.example",
		"///evil.example",
		"/\\evil.example",
		"\\\\evil.example",
		"javascript:alert(1)",
		"/admin\r\nSet-Cookie: x=y",
		"/\tadmin",
		" /admin",
	}

	for _, next := range safe {
		assert.True(t, RedirectTargetIsSafe(next), next)
	}
	for _, next := range unsafe {
		assert.False(t, RedirectTargetIsSafe(next), next)
		assert.ErrorIs(t, CheckRedirectTarget(next), ErrUnsafeRedirectTarget, next)
	}
}

func TestRedirectTarget(t *testing.T) {
	assert.Equal(t, "/admin?x=1", RedirectTarget("/admin?x=1", "/"))
	assert.Equal(t, "/admin", RedirectTarget("https://evil.example/x", "/admin"))
	assert.Equal(t, "/admin", RedirectTarget("", "/admin"))
	assert.Equal(t, "/admin", RedirectTarget("/logout", "/admin"))
	assert.Equal(t, "/admin", RedirectTarget("/logout?again=1", "/admin"))
}
