package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	LoginPath     = "/admin/login"
	DashboardPath = "/admin"
	LogoutPath    = "/logout"
)

// RequireAuth redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Session(r.Context()).Authenticated() {
			target := DashboardPath
			// a POST cannot be replayed by a redirect after login, and
			// returning to /logout would end the new session at once
			if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path != LogoutPath {
				target = r.URL.RequestURI()
			}
			http.Redirect(w, r, LoginURL(target), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RedirectAuthenticated sends already-authenticated visitors to the
// dashboard instead of showing them the login form again.
func RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Session(r.Context()).Authenticated() {
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoginURL is the login page with next attached. Slashes stay readable
// since they are legal in a query.
func LoginURL(next string) string {
	if !RedirectTargetIsSafe(next) {
		return LoginPath
	}
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}
