package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ghaggin/estate/internal/model"
)

// memoryRepo keeps everything in process memory. Used for the "memory" DSN
// and in tests.
type memoryRepo struct {
	mu     sync.RWMutex
	now    func() time.Time
	admins []model.Admin
	leads  []model.Lead
	images []model.Image
	flash  map[string]model.FlashSession
}

func NewMemory() Repository {
	return &memoryRepo{
		now:   time.Now,
		flash: map[string]model.FlashSession{},
	}
}

func (r *memoryRepo) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.Username == username {
			return &a, nil
		}
	}

	return nil, ErrNotFound
}

func (r *memoryRepo) GetAdminByID(_ context.Context, id int64) (*model.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.ID == id {
			return &a, nil
		}
	}

	return nil, ErrNotFound
}

func (r *memoryRepo) AddAdmin(_ context.Context, admin *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.admins {
		if a.Username == admin.Username {
			return ErrDuplicate
		}
	}

	admin.ID = int64(len(r.admins)) + 1
	r.admins = append(r.admins, *admin)
	return nil
}

func (r *memoryRepo) CountAdmins(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.admins)), nil
}

func (r *memoryRepo) GetLeadByEmail(_ context.Context, email string) (*model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.leads {
		if l.Email == email {
			return &l, nil
		}
	}

	return nil, ErrNotFound
}

func (r *memoryRepo) AddLead(_ context.Context, lead *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.leads {
		if l.Email == lead.Email {
			return ErrDuplicate
		}
	}

	lead.ID = int64(len(r.leads)) + 1
	lead.CreatedAt = r.now()
	r.leads = append(r.leads, *lead)
	return nil
}

func (r *memoryRepo) GetLeads(_ context.Context) ([]model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leads := make([]model.Lead, 0, len(r.leads))
	for i := len(r.leads) - 1; i >= 0; i-- {
		leads = append(leads, r.leads[i])
	}
	return leads, nil
}

func (r *memoryRepo) AddImage(_ context.Context, image *model.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image.ID = int64(len(r.images)) + 1
	image.CreatedAt = r.now()
	r.images = append(r.images, *image)
	return nil
}

func (r *memoryRepo) GetImages(_ context.Context) ([]model.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	images := make([]model.Image, len(r.images))
	copy(images, r.images)
	return images, nil
}

func (r *memoryRepo) GetFlashSession(_ context.Context, token string, now time.Time) (*model.FlashSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.flash[token]
	if !ok || !sess.Expiry.After(now) {
		return nil, ErrNotFound
	}
	sess.Data = slices.Clone(sess.Data)
	return &sess, nil
}

func (r *memoryRepo) SaveFlashSession(_ context.Context, sess *model.FlashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *sess
	stored.Data = slices.Clone(sess.Data)
	r.flash[sess.Token] = stored
	return nil
}

func (r *memoryRepo) DeleteFlashSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flash, token)
	return nil
}

func (r *memoryRepo) DeleteExpiredFlashSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, sess := range r.flash {
		if !sess.Expiry.After(now) {
			delete(r.flash, token)
			n++
		}
	}
	return n, nil
}
