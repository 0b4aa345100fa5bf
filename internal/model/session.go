package model

import "time"

// Session is the identity decoded from a session or remember cookie.
// The zero value is the anonymous session.
type Session struct {
	AdminID   int64
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Fresh is set only when the session came from a password submission.
	Fresh bool
}

func (s Session) Authenticated() bool {
	return s.AdminID != 0
}
