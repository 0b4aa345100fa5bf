package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ghaggin/estate/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
)

// AdminRepository does single-row reads and inserts only.
type AdminRepository interface {
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*model.Admin, error)
	AddAdmin(ctx context.Context, admin *model.Admin) error
	CountAdmins(ctx context.Context) (int64, error)
}

type LeadRepository interface {
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	AddLead(ctx context.Context, lead *model.Lead) error
	// GetLeads returns the newest leads first.
	GetLeads(ctx context.Context) ([]model.Lead, error)
}

type ImageRepository interface {
	AddImage(ctx context.Context, image *model.Image) error
	// GetImages returns images in insertion order.
	GetImages(ctx context.Context) ([]model.Image, error)
}

// FlashSessionRepository stores flash notices between requests so any
// instance sharing the database can show them.
type FlashSessionRepository interface {
	// GetFlashSession returns ErrNotFound for unknown or expired tokens.
	GetFlashSession(ctx context.Context, token string, now time.Time) (*model.FlashSession, error)
	SaveFlashSession(ctx context.Context, sess *model.FlashSession) error
	DeleteFlashSession(ctx context.Context, token string) error
	DeleteExpiredFlashSessions(ctx context.Context, now time.Time) (int64, error)
}

type Repository interface {
	AdminRepository
	LeadRepository
	ImageRepository
	FlashSessionRepository
}
