package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ghaggin/estate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepo struct {
	db *gorm.DB
}

// NewGorm returns a Repository over a migrated gorm connection.
func NewGorm(db *gorm.DB) Repository {
	return &gormRepo{db: db}
}

func (r *gormRepo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *gormRepo) GetAdminByID(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).First(&admin, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *gormRepo) AddAdmin(ctx context.Context, admin *model.Admin) error {
	admin.ID = 0
	return translate(r.db.WithContext(ctx).Create(admin).Error)
}

func (r *gormRepo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Admin{}).Count(&n).Error
	return n, translate(err)
}

func (r *gormRepo) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	var lead model.Lead
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&lead).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *gormRepo) AddLead(ctx context.Context, lead *model.Lead) error {
	lead.ID = 0
	return translate(r.db.WithContext(ctx).Create(lead).Error)
}

func (r *gormRepo) GetLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&leads).Error
	return leads, translate(err)
}

func (r *gormRepo) AddImage(ctx context.Context, image *model.Image) error {
	image.ID = 0
	return translate(r.db.WithContext(ctx).Create(image).Error)
}

func (r *gormRepo) GetImages(ctx context.Context) ([]model.Image, error) {
	var images []model.Image
	err := r.db.WithContext(ctx).Order("id ASC").Find(&images).Error
	return images, translate(err)
}

func (r *gormRepo) GetFlashSession(ctx context.Context, token string, now time.Time) (*model.FlashSession, error) {
	var sess model.FlashSession
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&sess).Error
	if err != nil {
		return nil, translate(err)
	}
	if !sess.Expiry.After(now) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// SaveFlashSession inserts or overwrites the row for sess.Token.
func (r *gormRepo) SaveFlashSession(ctx context.Context, sess *model.FlashSession) error {
	sess.Expiry = sess.Expiry.UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expiry"}),
	}).Create(sess).Error
	return translate(err)
}

func (r *gormRepo) DeleteFlashSession(ctx context.Context, token string) error {
	return translate(r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.FlashSession{}).Error)
}

func (r *gormRepo) DeleteExpiredFlashSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expiry <= ?", now.UTC()).Delete(&model.FlashSession{})
	return res.RowsAffected, translate(res.Error)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

// isUniqueViolation catches drivers that do not translate constraint errors.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
