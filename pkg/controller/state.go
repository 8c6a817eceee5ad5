package controller

import (
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

const (
	// MessageNoResponse is shown when the server accepted the request but
	// never answered.
	MessageNoResponse = "No response from server."
	// MessageGeneric is shown for every other failure.
	MessageGeneric = "Something went wrong."
)

// Status enumerates the submission lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusResult  Status = "result"
	StatusFailed  Status = "failed"
)

// Submission is the state of the latest accepted submission. Diabetic is only
// meaningful for StatusResult, Message and Category only for StatusFailed.
type Submission struct {
	Status   Status           `json:"status"`
	Diabetic bool             `json:"diabetic,omitempty"`
	Message  string           `json:"message,omitempty"`
	Category predict.Category `json:"category,omitempty"`
	Token    string           `json:"token,omitempty"`
}

// AlertKind classifies alert banners.
type AlertKind string

const AlertError AlertKind = "error"

// Alert is the dismissible banner shown after a failed submission.
type Alert struct {
	Kind     AlertKind        `json:"kind"`
	Message  string           `json:"message"`
	Category predict.Category `json:"category,omitempty"`
	Status   int              `json:"status,omitempty"`
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	Form       model.FormState `json:"form"`
	Submission Submission      `json:"submission"`
	ModalOpen  bool            `json:"modalOpen"`
	Alert      *Alert          `json:"alert,omitempty"`
	Revision   uint64          `json:"revision"`
}

// Loading reports whether a submission is in flight.
func (s Snapshot) Loading() bool {
	return s.Submission.Status == StatusLoading
}

// Outcome reports what a submit event did. Prevented mirrors suppressing the
// default form submission: it is false when the form was incomplete, in which
// case Missing lists the unset fields and nothing changed.
type Outcome struct {
	Prevented bool              `json:"prevented"`
	Busy      bool              `json:"busy,omitempty"`
	Missing   []model.FieldName `json:"missing,omitempty"`
	Token     string            `json:"token,omitempty"`
}

// Started reports whether the submit event dispatched a request.
func (o Outcome) Started() bool {
	return o.Token != ""
}

// MessageFor returns the alert text for a failure category.
func MessageFor(category predict.Category) string {
	if category == predict.CategoryNoResponse {
		return MessageNoResponse
	}
	return MessageGeneric
}
