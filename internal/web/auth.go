package web

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/forms"
	"github.com/gosuda/taskboard/internal/guard"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
)

type loginData struct {
	Form     forms.Login
	Redirect string
	Error    string
}

type registerData struct {
	Form  forms.Register
	Error string
}

type redirectingData struct {
	Target string
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	data := loginData{Redirect: r.URL.Query().Get("redirect")}
	h.render(w, http.StatusOK, pageLogin, h.page(r.Context(), b, "ui_login_title", "", data))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := forms.ParseLogin(r.PostForm)
	data := loginData{Form: form, Redirect: r.PostForm.Get("redirect")}
	data.Form.Password = ""

	if errs := form.Validate(); !errs.Valid() {
		p := h.page(ctx, b, "ui_login_title", "", data)
		p.Errors = errs.Localize(h.translator(ctx))
		h.render(w, http.StatusUnprocessableEntity, pageLogin, p)
		return
	}

	if _, err := b.auth.Login(ctx, form.Email, form.Password); err != nil {
		log.Debug().Err(err).Str("email", form.Email).Msg("web: login rejected")
		h.reportFailure(ctx, b, err)
		data.Error = b.auth.State().Error
		h.render(w, statusFor(err), pageLogin, h.page(ctx, b, "ui_login_title", "", data))
		return
	}

	h.notify(ctx, b, notify.LevelSuccess, messages.LoginSuccess, nil)

	target := guard.SafeRedirect(data.Redirect)
	p := h.page(ctx, b, "ui_redirecting_title", "", redirectingData{Target: target})
	p.Refresh = h.deps.Config.RedirectDelay
	p.RefreshURL = target
	h.render(w, http.StatusOK, pageRedirecting, p)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r.Context())
	h.render(w, http.StatusOK, pageRegister, h.page(r.Context(), b, "ui_register_title", "", registerData{}))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := forms.ParseRegister(r.PostForm)
	data := registerData{Form: forms.Register{Username: form.Username, Email: form.Email}}

	if errs := form.Validate(); !errs.Valid() {
		p := h.page(ctx, b, "ui_register_title", "", data)
		p.Errors = errs.Localize(h.translator(ctx))
		h.render(w, http.StatusUnprocessableEntity, pageRegister, p)
		return
	}

	if _, err := b.auth.Register(ctx, form.Username, form.Email, form.Password); err != nil {
		log.Debug().Err(err).Str("email", form.Email).Msg("web: register rejected")
		h.reportFailure(ctx, b, err)
		data.Error = b.auth.State().Error
		p := h.page(ctx, b, "ui_register_title", "", data)
		p.Errors = apiFieldErrors(err)
		h.render(w, statusFor(err), pageRegister, p)
		return
	}

	h.notify(ctx, b, notify.LevelSuccess, messages.RegisterSuccess, nil)
	http.Redirect(w, r, guard.DashboardPath, http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := browserFrom(ctx)
	if err := b.auth.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("web: logout")
	}
	h.notify(ctx, b, notify.LevelInfo, messages.LoggedOut, nil)
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}
