package middleware

import (
	"errors"
	"net/url"
	"strings"
)

var ErrUnsafeRedirectTarget = errors.New("unsafe redirect target")

// RedirectTargetIsSafe accepts only same-origin relative paths: a single
// leading slash, no scheme or host, no backslashes or control characters.
func RedirectTargetIsSafe(next string) bool {
	return CheckRedirectTarget(next) == nil
}

func CheckRedirectTarget(next string) error {
	if next == "" || next[0] != '/' {
		return ErrUnsafeRedirectTarget
	}
	if strings.HasPrefix(next, "//") || strings.ContainsRune(next, '\\') {
		return ErrUnsafeRedirectTarget
	}
	for _, r := range next {
		if r < 0x20 || r == 0x7f {
			return ErrUnsafeRedirectTarget
		}
	}

	u, err := url.Parse(next)
	if err != nil {
		return ErrUnsafeRedirectTarget
	}
	if u.Scheme != "" || u.Host != "" || u.User != nil || u.Opaque != "" {
		return ErrUnsafeRedirectTarget
	}

	return nil
}

// RedirectTarget returns next when it is safe, fallback otherwise. The
// logout route is never a post-login destination.
func RedirectTarget(next, fallback string) string {
	if !RedirectTargetIsSafe(next) {
		return fallback
	}
	if u, _ := url.Parse(next); u.Path == LogoutPath {
		return fallback
	}
	return next
}
