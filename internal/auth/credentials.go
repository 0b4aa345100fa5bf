package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/logging"
	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxUsernameLength = 64

// CredentialStore owns administrator accounts and password verification.
type CredentialStore struct {
	repo repository.AdminRepository
	log  *zap.Logger
	cost int

	// dummyHash is compared against when the username is unknown so both
	// failure paths spend the same bcrypt time.
	dummyHash string
}

type Params struct {
	fx.In

	Repo   repository.AdminRepository
	Config *config.Config
	Log    *zap.Logger
}

func NewCredentialStore(p Params) (*CredentialStore, error) {
	return New(p.Repo, p.Config.Password.Cost, p.Log)
}

func New(repo repository.AdminRepository, cost int, log *zap.Logger) (*CredentialStore, error) {
	dummy, err := HashPassword("not-a-real-password", cost)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	return &CredentialStore{
		repo:      repo,
		log:       log,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// FindByUsername is an exact, case-sensitive lookup. A missing account
// returns repository.ErrNotFound.
func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	admin, err := s.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return admin, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.repo.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return admin, nil
}

func (s *CredentialStore) VerifyPassword(admin *model.Admin, plaintext string) bool {
	if admin == nil || admin.PasswordHash == "" {
		return false
	}
	return CheckPassword(admin.PasswordHash, plaintext)
}

// Create stores a new administrator. Only the bcrypt digest is kept.
func (s *CredentialStore) Create(ctx context.Context, username, plaintext string) (*model.Admin, error) {
	if username == "" || len(username) > maxUsernameLength || strings.TrimSpace(username) != username {
		return nil, ErrInvalidUsername
	}
	if plaintext == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := HashPassword(plaintext, s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	admin := &model.Admin{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.repo.AddAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return admin, nil
}

// Authenticate returns the administrator for a valid username and password.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials;
// storage failures yield ErrStorageUnavailable.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	log := logging.FromContext(ctx, s.log)

	if username == "" || password == "" {
		log.Info("login rejected", zap.String("username", username), zap.String("reason", "missing field"))
		return nil, ErrInvalidCredentials
	}

	admin, err := s.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		CheckPassword(s.dummyHash, password)
		log.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown username"))
		return nil, ErrInvalidCredentials
	}

	if !s.VerifyPassword(admin, password) {
		log.Info("login rejected", zap.String("username", username), zap.String("reason", "wrong password"))
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// Bootstrap creates the first administrator when there are none. A
// concurrent startup that wins the insert is not an error.
func (s *CredentialStore) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if n > 0 {
		s.log.Debug("administrator account already exists")
		return false, nil
	}

	s.log.Info("no administrator found, creating default account", zap.String("username", username))
	_, err = s.Create(ctx, username, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDuplicateUsername):
		s.log.Info("default administrator created concurrently", zap.String("username", username))
		return false, nil
	default:
		return false, err
	}
}
