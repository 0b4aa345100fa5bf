package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	audienceSession  = "session"
	audienceRemember = "remember"
)

var (
	ErrExpiredSession = errors.New("session expired")
	ErrMalformedToken = errors.New("malformed token")
)

type claims struct {
	AdminID int64 `json:"aid"`
	Fresh   bool  `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// Cookies is what a login or logout writes. Remember is nil unless
// requested at login.
type Cookies struct {
	Session  *http.Cookie
	Remember *http.Cookie
}

// SessionManager issues and validates HS256-signed session and remember
// tokens. It keeps no server-side state.
type SessionManager struct {
	secret           []byte
	lifetime         time.Duration
	rememberLifetime time.Duration
	cookieName       string
	rememberName     string
	secure           bool
	log              *zap.Logger
	now              func() time.Time
}

func NewSessionManager(cfg *config.Config, log *zap.Logger) (*SessionManager, error) {
	if cfg.Session.Secret == "" {
		return nil, config.ErrMissingSecret
	}
	if cfg.WeakSecret() {
		log.Warn("SECRET_KEY is shorter than 32 bytes")
	}

	return &SessionManager{
		secret:           []byte(cfg.Session.Secret),
		lifetime:         cfg.Session.Lifetime,
		rememberLifetime: cfg.Session.RememberLifetime,
		cookieName:       cfg.Session.CookieName,
		rememberName:     cfg.Session.RememberCookieName,
		secure:           cfg.Session.Secure,
		log:              log,
		now:              time.Now,
	}, nil
}

// Issue starts a fresh session for adminID and, when remember is set, a
// long-lived remember token.
func (s *SessionManager) Issue(adminID int64, remember bool) (Cookies, error) {
	now := s.now()

	session, err := s.sessionCookie(model.Session{
		AdminID:  adminID,
		IssuedAt: now,
		Fresh:    true,
	})
	if err != nil {
		return Cookies{}, err
	}

	out := Cookies{Session: session}
	if !remember {
		return out, nil
	}

	expires := now.Add(s.rememberLifetime)
	token, err := s.sign(claims{
		AdminID:          adminID,
		RegisteredClaims: s.registered(adminID, audienceRemember, now, expires),
	})
	if err != nil {
		return Cookies{}, err
	}
	out.Remember = s.cookie(s.rememberName, token, now, expires)

	return out, nil
}

// Validate decodes a session cookie value. Any failure yields the anonymous
// session.
func (s *SessionManager) Validate(value string) model.Session {
	sess, err := s.parse(value, audienceSession)
	if err != nil {
		s.log.Debug("session cookie rejected", zap.Error(err))
		return model.Session{}
	}
	return sess
}

// ValidateRemember decodes a remember cookie value into a non-fresh session.
func (s *SessionManager) ValidateRemember(value string) model.Session {
	sess, err := s.parse(value, audienceRemember)
	if err != nil {
		s.log.Debug("remember cookie rejected", zap.Error(err))
		return model.Session{}
	}
	return model.Session{
		AdminID:  sess.AdminID,
		IssuedAt: s.now(),
	}
}

// Refresh reissues the session cookie with a renewed expiry.
func (s *SessionManager) Refresh(sess model.Session) (*http.Cookie, error) {
	if !sess.Authenticated() {
		return nil, ErrMalformedToken
	}
	return s.sessionCookie(sess)
}

// Revoke returns cookies that clear both the session and the remember token.
func (s *SessionManager) Revoke() Cookies {
	return Cookies{
		Session:  s.clearCookie(s.cookieName),
		Remember: s.clearCookie(s.rememberName),
	}
}

// Identify resolves the request's identity from the session cookie, falling
// back to the remember cookie.
func (s *SessionManager) Identify(r *http.Request) model.Session {
	if c, err := r.Cookie(s.cookieName); err == nil {
		if sess := s.Validate(c.Value); sess.Authenticated() {
			return sess
		}
	}

	if c, err := r.Cookie(s.rememberName); err == nil {
		if sess := s.ValidateRemember(c.Value); sess.Authenticated() {
			s.log.Debug("session restored from remember token", zap.Int64("admin_id", sess.AdminID))
			return sess
		}
	}

	return model.Session{}
}

// Wrap puts the request's session in the context and slides the expiry of
// authenticated sessions.
func (s *SessionManager) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.Identify(r)

		if sess.Authenticated() {
			c, err := s.Refresh(sess)
			if err != nil {
				s.log.Error("error refreshing session", zap.Error(err))
				sess = model.Session{}
			} else {
				SetCookie(w, c)
				sess.ExpiresAt = c.Expires
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// Write sets every non-nil cookie in c on the response.
func (s *SessionManager) Write(w http.ResponseWriter, c Cookies) {
	if c.Session != nil {
		SetCookie(w, c.Session)
	}
	if c.Remember != nil {
		SetCookie(w, c.Remember)
	}
}

func (s *SessionManager) parse(value, audience string) (model.Session, error) {
	if value == "" {
		return model.Session{}, ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	var c claims
	_, err := parser.ParseWithClaims(value, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Session{}, ErrExpiredSession
		}
		return model.Session{}, errors.Join(ErrMalformedToken, err)
	}

	if c.AdminID <= 0 || c.Subject != strconv.FormatInt(c.AdminID, 10) {
		return model.Session{}, ErrMalformedToken
	}

	return model.Session{
		AdminID:   c.AdminID,
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
		Fresh:     c.Fresh,
	}, nil
}

func (s *SessionManager) sessionCookie(sess model.Session) (*http.Cookie, error) {
	now := s.now()
	expires := now.Add(s.lifetime)
	token, err := s.sign(claims{
		AdminID:          sess.AdminID,
		Fresh:            sess.Fresh,
		RegisteredClaims: s.registered(sess.AdminID, audienceSession, sess.IssuedAt, expires),
	})
	if err != nil {
		return nil, err
	}
	return s.cookie(s.cookieName, token, now, expires), nil
}

func (s *SessionManager) registered(adminID int64, audience string, issuedAt, expires time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(adminID, 10),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
}

func (s *SessionManager) sign(c claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *SessionManager) cookie(name, value string, now, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(now).Seconds()),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *SessionManager) clearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetCookie replaces any Set-Cookie header already queued for c.Name.
func SetCookie(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	prefix := c.Name + "="

	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}

	http.SetCookie(w, c)
}

type sessionKey struct{}

func WithSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// Session returns the identity stored by Wrap, or the anonymous session.
func Session(ctx context.Context) model.Session {
	sess, _ := ctx.Value(sessionKey{}).(model.Session)
	return sess
}
