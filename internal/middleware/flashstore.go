package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var _ scs.CtxStore = (*FlashStore)(nil)

// FlashStore is the scs store behind flash notices. Rows live in the
// database so every instance sharing it sees the same notices.
type FlashStore struct {
	repo repository.FlashSessionRepository
	log  *zap.Logger
	now  func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewFlashStore(repo repository.FlashSessionRepository, log *zap.Logger) *FlashStore {
	return &FlashStore{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// RegisterFlashCleanup should be invoked by fx
func RegisterFlashCleanup(lc fx.Lifecycle, s *FlashStore, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.StartCleanup(cfg.Session.FlashCleanupInterval)
			return nil
		},
		OnStop: func(context.Context) error {
			s.StopCleanup()
			return nil
		},
	})
}

func (s *FlashStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	sess, err := s.repo.GetFlashSession(ctx, token, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return sess.Data, true, nil
}

func (s *FlashStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	return s.repo.SaveFlashSession(ctx, &model.FlashSession{
		Token:  token,
		Data:   b,
		Expiry: expiry,
	})
}

func (s *FlashStore) DeleteCtx(ctx context.Context, token string) error {
	return s.repo.DeleteFlashSession(ctx, token)
}

func (s *FlashStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *FlashStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *FlashStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

// StartCleanup purges expired rows every interval until StopCleanup.
// Calling it while cleanup is running does nothing.
func (s *FlashStore) StartCleanup(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.purge(context.Background())
			case <-stop:
				return
			}
		}
	}(s.stop, s.done)
}

// StopCleanup stops the cleanup goroutine and waits for it to exit.
func (s *FlashStore) StopCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
}

func (s *FlashStore) purge(ctx context.Context) {
	n, err := s.repo.DeleteExpiredFlashSessions(ctx, s.now())
	if err != nil {
		s.log.Error("error purging flash sessions", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Debug("purged flash sessions", zap.Int64("count", n))
	}
}
