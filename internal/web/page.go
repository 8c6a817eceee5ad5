package web

import (
	"net/http"
	"time"

	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/render"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessions.controller(w, r)
	if err != nil {
		s.serverError(w, "start session", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, ctrl.Snapshot(), nil)
}

// handleSubmit applies the posted values and fires a submission. Only values
// that differ from what the page showed are applied, so a field left empty
// stays unset.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessions.controller(w, r)
	if err != nil {
		s.serverError(w, "start session", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	current := ctrl.Snapshot().Form
	for _, field := range s.form.Fields {
		name := string(field.Name)
		if _, posted := r.PostForm[name]; !posted {
			continue
		}
		raw := r.PostForm.Get(name)
		if raw == current.Get(field.Name).String() {
			continue
		}
		if err := ctrl.OnFieldChange(name, raw); err != nil {
			s.logger.Warn("web: apply field %s: %v", name, err)
		}
	}

	out, done := ctrl.SubmitAsync(s.baseCtx)
	if len(out.Missing) > 0 {
		s.renderPage(w, r, http.StatusUnprocessableEntity, ctrl.Snapshot(), render.MissingFieldErrors(out.Missing))
		return
	}
	if out.Started() && s.settle > 0 {
		timer := time.NewTimer(s.settle)
		select {
		case <-done:
		case <-timer.C:
		case <-r.Context().Done():
		}
		timer.Stop()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessions.controller(w, r)
	if err != nil {
		s.serverError(w, "start session", err)
		return
	}
	ctrl.DismissAlert()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessions.controller(w, r)
	if err != nil {
		s.serverError(w, "start session", err)
		return
	}
	ctrl.CloseModal()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, snap controller.Snapshot, errs map[string][]string) {
	body, err := s.page.Render(r.Context(), s.form, render.RenderOptions{
		State:  &snap,
		Errors: errs,
		Action: "/",
	})
	if err != nil {
		s.serverError(w, "render page", err)
		return
	}
	w.Header().Set("Content-Type", s.page.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	s.logger.Error("web: %s: %v", action, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
