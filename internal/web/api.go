package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-predictform/pkg/controller"
)

// fieldChange is the body of PUT /api/fields/{name}. Value may be a JSON
// string (raw input text), a number, or null.
type fieldChange struct {
	Value json.RawMessage `json:"value"`
}

// submitResponse pairs the submit outcome with the state it produced.
type submitResponse struct {
	Outcome controller.Outcome  `json:"outcome"`
	State   controller.Snapshot `json:"state"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIForm(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.form)
}

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleAPIField(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}

	var body fieldChange
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}
	raw, err := rawInput(body.Value)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	if err := ctrl.OnFieldChange(chi.URLParam(r, "name"), raw); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, controller.ErrUnknownField) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// handleAPISubmit starts a submission and answers 202 right away. With
// ?wait=true it blocks until the prediction settles and answers 200.
func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}

	out, done := ctrl.SubmitAsync(s.baseCtx)
	switch {
	case len(out.Missing) > 0:
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{Outcome: out, State: ctrl.Snapshot()})
		return
	case out.Busy:
		writeJSON(w, http.StatusConflict, submitResponse{Outcome: out, State: ctrl.Snapshot()})
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{Outcome: out, State: ctrl.Snapshot()})
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Outcome: out, State: ctrl.Snapshot()})
}

func (s *Server) handleAPIDismissAlert(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	ctrl.DismissAlert()
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleAPICloseModal(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	ctrl.CloseModal()
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) apiController(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	ctrl, err := s.sessions.controller(w, r)
	if err != nil {
		s.logger.Error("web: start session: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "session unavailable"})
		return nil, false
	}
	return ctrl, true
}

// rawInput turns the JSON value into the text an input control would hold.
func rawInput(value json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(value))
	switch {
	case trimmed == "" || trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return "", errors.New("value must be a string or a number")
		}
		return text, nil
	default:
		var n json.Number
		if err := json.Unmarshal(value, &n); err != nil {
			return "", errors.New("value must be a string or a number")
		}
		return n.String(), nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
