package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/metrics"
	"github.com/ghaggin/estate/internal/middleware"
	"github.com/ghaggin/estate/internal/template"
	"github.com/ghaggin/estate/web"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Site struct {
	log             *zap.Logger
	server          *http.Server
	metrics         *http.Server
	shutdownTimeout time.Duration
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     *config.Config
	Controller *Controller
	Sessions   *middleware.SessionManager
	Flash      *middleware.Flash
	Renderer   *template.Renderer
	Metrics    *metrics.Manager
}

func New(p Params) (*Site, error) {
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	h := &handlers{
		log:      p.Log,
		ctrl:     p.Controller,
		sessions: p.Sessions,
		flash:    p.Flash,
		renderer: p.Renderer,
	}

	root := chi.NewRouter()
	root.Use(
		middleware.PanicRecovery(p.Log, p.Metrics),
		chimw.RequestID,
		chimw.RealIP,
		middleware.LogRequest(p.Log),
		middleware.RequestMetrics(p.Metrics),
		p.Flash.Wrap,
		p.Sessions.Wrap,
	)

	// Public
	root.Group(func(r chi.Router) {
		r.Get("/", h.index)
		r.Post("/submit_email", h.submitEmail)
		r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(static))))
	})

	// Anonymous only
	root.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAuthenticated)
		r.Get(middleware.LoginPath, h.loginForm)
		r.Post(middleware.LoginPath, h.login)
	})

	// Auth
	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get(middleware.DashboardPath, h.dashboard)
		r.Post("/admin/add_image", h.addImage)
		r.Get(middleware.LogoutPath, h.logout)
	})

	s := &Site{
		log: p.Log,
		server: &http.Server{
			Addr:              p.Config.Server.Addr,
			Handler:           root,
			ReadHeaderTimeout: p.Config.Server.ReadHeaderTimeout,
		},
		shutdownTimeout: p.Config.Server.ShutdownTimeout,
	}

	// Metrics stay off the public router; the listener defaults to loopback.
	if p.Config.Metrics.Enabled {
		mux := chi.NewRouter()
		mux.Handle(p.Config.Metrics.Path, p.Metrics.Handler())
		s.metrics = &http.Server{
			Addr:              p.Config.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: p.Config.Server.ReadHeaderTimeout,
		}
	}

	return s, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, s *Site) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Shutdown,
	})
}

func (s *Site) Handler() http.Handler {
	return s.server.Handler
}

// MetricsHandler is nil when metrics are disabled.
func (s *Site) MetricsHandler() http.Handler {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Handler
}

// Start binds every listener before returning so an unusable address fails
// startup.
func (s *Site) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}

	var metricsLn net.Listener
	if s.metrics != nil {
		metricsLn, err = net.Listen("tcp", s.metrics.Addr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen on %s: %w", s.metrics.Addr, err)
		}
		s.log.Info("serving metrics", zap.String("addr", metricsLn.Addr().String()))
		go s.serve(s.metrics, metricsLn)
	}

	s.log.Info("serving", zap.String("addr", ln.Addr().String()))
	go s.serve(s.server, ln)
	return nil
}

func (s *Site) serve(server *http.Server, ln net.Listener) {
	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("error serving", zap.String("addr", ln.Addr().String()), zap.Error(err))
	}
}

func (s *Site) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.metrics != nil {
		err = errors.Join(err, s.metrics.Shutdown(ctx))
	}
	return err
}
