package middleware

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/model"
)

const (
	flashKey = "flashes"
)

// Flash carries one-shot notices across a redirect.
type Flash struct {
	impl *scs.SessionManager
}

func NewFlash(cfg *config.Config, store *FlashStore) *Flash {
	gob.Register([]model.Flash{})

	impl := scs.New()
	// scs.New starts a memstore sweeper that would otherwise run forever
	if ms, ok := impl.Store.(*memstore.MemStore); ok {
		ms.StopCleanup()
	}
	impl.Store = store
	impl.Lifetime = cfg.Session.Lifetime
	impl.Cookie.Name = cfg.Session.FlashCookieName
	impl.Cookie.HttpOnly = true
	impl.Cookie.Secure = cfg.Session.Secure
	impl.Cookie.SameSite = http.SameSiteLaxMode
	impl.Cookie.Persist = false

	return &Flash{impl: impl}
}

func (f *Flash) Wrap(next http.Handler) http.Handler {
	return f.impl.LoadAndSave(next)
}

func (f *Flash) Add(ctx context.Context, category, message string) {
	flashes, _ := f.impl.Get(ctx, flashKey).([]model.Flash)
	flashes = append(flashes, model.Flash{Category: category, Message: message})
	f.impl.Put(ctx, flashKey, flashes)
}

// Pop returns and clears the pending notices.
func (f *Flash) Pop(ctx context.Context) []model.Flash {
	flashes, _ := f.impl.Pop(ctx, flashKey).([]model.Flash)
	return flashes
}

// Renew rotates the flash cookie token. Called on privilege change.
func (f *Flash) Renew(ctx context.Context) error {
	return f.impl.RenewToken(ctx)
}
