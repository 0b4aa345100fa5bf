package site

import (
	"errors"
	"net/http"

	"github.com/ghaggin/estate/internal/auth"
	"github.com/ghaggin/estate/internal/middleware"
	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/internal/repository"
	"github.com/ghaggin/estate/internal/template"
	"go.uber.org/zap"
)

const (
	msgLeadCreated     = "Thank you for your interest! We'll be in touch soon."
	msgLeadExisting    = "You're already subscribed!"
	msgLeadInvalid     = "Please enter a valid email address."
	msgLoginInvalid    = "Invalid username or password"
	msgLoginError      = "An error occurred during login"
	msgLoggedOut       = "You have been logged out."
	msgImageAdded      = "Image added successfully!"
	msgImageInvalid    = "Please provide a valid http or https image URL."
	msgInternalFailure = "An error occurred. Please try again later."
)

type handlers struct {
	log      *zap.Logger
	ctrl     *Controller
	sessions *middleware.SessionManager
	flash    *middleware.Flash
	renderer *template.Renderer
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	images, err := h.ctrl.Images(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, template.PageIndex, &template.Data{
		PageTitle: "Home",
		Images:    images,
	})
}

func (h *handlers) submitEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flash.Add(r.Context(), model.FlashError, msgLeadInvalid)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	result, err := h.ctrl.SubmitEmail(r.Context(), r.PostForm.Get("email"))
	switch {
	case errors.Is(err, ErrInvalidEmail):
		h.flash.Add(r.Context(), model.FlashError, msgLeadInvalid)
	case err != nil:
		h.log.Error("error submitting email", zap.Error(err))
		h.flash.Add(r.Context(), model.FlashError, msgInternalFailure)
	case result == LeadCreated:
		h.flash.Add(r.Context(), model.FlashSuccess, msgLeadCreated)
	case result == LeadExisting:
		h.flash.Add(r.Context(), model.FlashInfo, msgLeadExisting)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, r.URL.Query().Get("next"))
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", loginFailure(msgLoginInvalid))
		return
	}

	next := r.PostForm.Get("next")
	remember := r.PostForm.Get("remember") != ""

	admin, err := h.ctrl.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.renderLogin(w, r, http.StatusOK, next, loginFailure(msgLoginInvalid))
		return
	case err != nil:
		h.renderLogin(w, r, http.StatusInternalServerError, next, loginFailure(msgLoginError))
		return
	}

	cookies, err := h.sessions.Issue(admin.ID, remember)
	if err != nil {
		h.log.Error("error issuing session", zap.Error(err))
		h.renderLogin(w, r, http.StatusInternalServerError, next, loginFailure(msgLoginError))
		return
	}
	if err := h.flash.Renew(r.Context()); err != nil {
		h.log.Warn("error renewing flash token", zap.Error(err))
	}

	if err := middleware.CheckRedirectTarget(next); err != nil && next != "" {
		h.log.Info("ignoring redirect target", zap.String("next", next), zap.Error(err))
	}

	h.sessions.Write(w, cookies)
	http.Redirect(w, r, middleware.RedirectTarget(next, middleware.DashboardPath), http.StatusSeeOther)
}

// renderLogin shows the login form. Failure notices are rendered inline
// rather than through the flash store so no cookie is written.
func (h *handlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, next string, flashes ...model.Flash) {
	if !middleware.RedirectTargetIsSafe(next) {
		next = ""
	}

	h.render(w, r, status, template.PageLogin, &template.Data{
		PageTitle: "Admin Login",
		Flashes:   flashes,
		Next:      next,
	})
}

func loginFailure(message string) model.Flash {
	return model.Flash{Category: model.FlashError, Message: message}
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.Session(r.Context())

	admin, err := h.ctrl.Admin(r.Context(), sess.AdminID)
	if errors.Is(err, repository.ErrNotFound) {
		// account removed while the session was live
		h.sessions.Write(w, h.sessions.Revoke())
		http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	leads, err := h.ctrl.Leads(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	images, err := h.ctrl.Images(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, template.PageAdmin, &template.Data{
		PageTitle: "Dashboard",
		Username:  admin.Username,
		Fresh:     sess.Fresh,
		Images:    images,
		Leads:     leads,
	})
}

func (h *handlers) addImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flash.Add(r.Context(), model.FlashError, msgImageInvalid)
		http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
		return
	}

	_, err := h.ctrl.AddImage(r.Context(), r.PostForm.Get("image_url"), r.PostForm.Get("caption"))
	switch {
	case errors.Is(err, ErrInvalidImage):
		h.flash.Add(r.Context(), model.FlashError, msgImageInvalid)
	case err != nil:
		h.log.Error("error adding image", zap.Error(err))
		h.flash.Add(r.Context(), model.FlashError, msgInternalFailure)
	default:
		h.flash.Add(r.Context(), model.FlashSuccess, msgImageAdded)
	}

	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Write(w, h.sessions.Revoke())
	h.flash.Add(r.Context(), model.FlashInfo, msgLoggedOut)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// render fills in the per-request fields every page shares.
func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, td *template.Data) {
	td.Flashes = append(h.flash.Pop(r.Context()), td.Flashes...)
	td.Authenticated = middleware.Session(r.Context()).Authenticated()

	if err := h.renderer.Render(w, status, page, td); err != nil {
		h.log.Error("error rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, msgInternalFailure, http.StatusInternalServerError)
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	h.render(w, r, http.StatusInternalServerError, template.PageError, &template.Data{
		PageTitle: "Error",
	})
}
