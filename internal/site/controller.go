package site

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ghaggin/estate/internal/auth"
	"github.com/ghaggin/estate/internal/logging"
	"github.com/ghaggin/estate/internal/metrics"
	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	maxEmailLength   = 120
	maxURLLength     = 500
	maxCaptionLength = 200
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidImage = errors.New("invalid image")
)

// LeadResult is the outcome of an email submission.
type LeadResult int

const (
	LeadEmpty LeadResult = iota
	LeadCreated
	LeadExisting
)

type Controller struct {
	creds   *auth.CredentialStore
	leads   repository.LeadRepository
	images  repository.ImageRepository
	log     *zap.Logger
	metrics *metrics.Manager
}

type ControllerParams struct {
	fx.In

	Creds   *auth.CredentialStore
	Leads   repository.LeadRepository
	Images  repository.ImageRepository
	Log     *zap.Logger
	Metrics *metrics.Manager
}

func NewController(p ControllerParams) (*Controller, error) {
	return &Controller{
		creds:   p.Creds,
		leads:   p.Leads,
		images:  p.Images,
		log:     p.Log,
		metrics: p.Metrics,
	}, nil
}

// Login checks a username and password. The error is either
// auth.ErrInvalidCredentials or a storage failure.
func (c *Controller) Login(ctx context.Context, username, password string) (*model.Admin, error) {
	log := logging.FromContext(ctx, c.log)

	admin, err := c.creds.Authenticate(ctx, username, password)
	switch {
	case err == nil:
		c.metrics.CounterLogins.WithLabelValues(metrics.LoginSuccess).Inc()
		log.Info("login successful", zap.String("username", admin.Username), zap.Int64("admin_id", admin.ID))
		return admin, nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.metrics.CounterLogins.WithLabelValues(metrics.LoginInvalid).Inc()
		return nil, err
	default:
		c.metrics.CounterLogins.WithLabelValues(metrics.LoginError).Inc()
		log.Error("login error", zap.String("username", username), zap.Error(err))
		return nil, err
	}
}

func (c *Controller) Admin(ctx context.Context, id int64) (*model.Admin, error) {
	return c.creds.FindByID(ctx, id)
}

// SubmitEmail records a lead. Submitting a known address is not an error.
func (c *Controller) SubmitEmail(ctx context.Context, raw string) (LeadResult, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	c.log.Debug("submitting email address", zap.String("email", email))
	if email == "" {
		return LeadEmpty, nil
	}

	if !validEmail(email) {
		c.metrics.CounterLeads.WithLabelValues(metrics.LeadInvalid).Inc()
		return LeadEmpty, ErrInvalidEmail
	}

	_, err := c.leads.GetLeadByEmail(ctx, email)
	switch {
	case err == nil:
		c.metrics.CounterLeads.WithLabelValues(metrics.LeadDuplicate).Inc()
		return LeadExisting, nil
	case !errors.Is(err, repository.ErrNotFound):
		return LeadEmpty, fmt.Errorf("lookup lead: %w", err)
	}

	err = c.leads.AddLead(ctx, &model.Lead{Email: email})
	switch {
	case err == nil:
		c.metrics.CounterLeads.WithLabelValues(metrics.LeadCreated).Inc()
		return LeadCreated, nil
	case errors.Is(err, repository.ErrDuplicate):
		// lost a race with an identical submission
		c.metrics.CounterLeads.WithLabelValues(metrics.LeadDuplicate).Inc()
		return LeadExisting, nil
	default:
		return LeadEmpty, fmt.Errorf("add lead: %w", err)
	}
}

func (c *Controller) AddImage(ctx context.Context, rawURL, caption string) (*model.Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	caption = strings.TrimSpace(caption)
	if !validImageURL(rawURL) || utf8.RuneCountInString(caption) > maxCaptionLength {
		return nil, ErrInvalidImage
	}

	image := &model.Image{URL: rawURL, Caption: caption}
	if err := c.images.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}

	c.log.Info("image added", zap.Int64("image_id", image.ID))
	return image, nil
}

func (c *Controller) Images(ctx context.Context) ([]model.Image, error) {
	return c.images.GetImages(ctx)
}

func (c *Controller) Leads(ctx context.Context) ([]model.Lead, error) {
	return c.leads.GetLeads(ctx)
}

func validEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	return strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func validImageURL(raw string) bool {
	if raw == "" || len(raw) > maxURLLength {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
