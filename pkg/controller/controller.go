package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

// Controller is the explicit state container for one form. It is safe for
// concurrent use.
type Controller struct {
	predictor predict.Predictor
	logger    logging.Logger
	observers []Observer
	policy    Policy
	nextToken func() string

	mu         sync.Mutex
	form       model.FormState
	submission Submission
	modalOpen  bool
	alert      *Alert
	revision   uint64
	cancel     context.CancelFunc
}

// New creates a controller with every field unset and no submission.
func New(predictor predict.Predictor, opts ...Option) (*Controller, error) {
	if predictor == nil {
		return nil, ErrNoPredictor
	}
	c := &Controller{
		predictor:  predictor,
		logger:     logging.Nop(),
		policy:     PolicyLatestWins,
		nextToken:  defaultTokenSource,
		form:       model.NewFormState(),
		submission: Submission{Status: StatusIdle},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if _, err := ParsePolicy(string(c.policy)); err != nil {
		return nil, err
	}
	return c, nil
}

// Policy returns the configured in-flight policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Form:       c.form.Clone(),
		Submission: c.submission,
		ModalOpen:  c.modalOpen,
		Revision:   c.revision,
	}
	if c.alert != nil {
		alert := *c.alert
		snap.Alert = &alert
	}
	return snap
}

// OnFieldChange parses raw as a number (NaN when it does not parse) and
// stores it under name. No other field and no other state is touched.
func (c *Controller) OnFieldChange(name, raw string) error {
	field, err := model.ParseFieldName(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	value := model.ParseNumber(raw)

	c.mu.Lock()
	if err := c.form.Set(field, value); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnknownField, err)
	}
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("controller: field %s <- %q", field, raw)
	c.notify(snap)
	return nil
}

// DismissAlert clears the alert banner.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	if c.alert == nil {
		c.mu.Unlock()
		return
	}
	c.alert = nil
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// CloseModal hides the result modal. The submission state is untouched, so a
// request still in flight keeps running.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	if !c.modalOpen {
		c.mu.Unlock()
		return
	}
	c.modalOpen = false
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Submit handles a submit event and blocks until the request finishes. The
// returned error is the prediction failure, if any; it is already reflected
// in the state as a failed submission and an alert.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	out, run := c.begin(ctx)
	if run == nil {
		return out, nil
	}
	_, err := run()
	return out, err
}

// SubmitAsync handles a submit event without waiting for the request. The
// channel yields the snapshot taken after the request completes and is then
// closed. When no request was started the channel is closed immediately.
func (c *Controller) SubmitAsync(ctx context.Context) (Outcome, <-chan Snapshot) {
	done := make(chan Snapshot, 1)
	out, run := c.begin(ctx)
	if run == nil {
		close(done)
		return out, done
	}
	go func() {
		defer close(done)
		snap, _ := run()
		done <- snap
	}()
	return out, done
}

func (c *Controller) begin(ctx context.Context) (Outcome, func() (Snapshot, error)) {
	c.mu.Lock()

	if missing := c.form.Missing(); len(missing) > 0 {
		c.mu.Unlock()
		c.logger.Debug("controller: submit blocked, missing %v", missing)
		return Outcome{Missing: missing}, nil
	}

	if c.policy == PolicySingleFlight && c.submission.Status == StatusLoading {
		token := c.submission.Token
		c.mu.Unlock()
		c.logger.Info("controller: submit ignored, request %s in flight", token)
		return Outcome{Prevented: true, Busy: true}, nil
	}

	if c.policy == PolicyCancelStale && c.cancel != nil {
		c.logger.Info("controller: cancelling request %s", c.submission.Token)
		c.cancel()
	}

	token := c.nextToken()
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.submission = Submission{Status: StatusLoading, Token: token}
	c.modalOpen = true
	c.revision++
	req := predict.NewRequest(c.form)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("controller: submission %s started", token)
	c.notify(snap)

	run := func() (Snapshot, error) {
		defer cancel()
		resp, err := c.predictor.Predict(runCtx, req)
		return c.complete(token, resp, err), err
	}
	return Outcome{Prevented: true, Token: token}, run
}

func (c *Controller) complete(token string, resp predict.Response, err error) Snapshot {
	c.mu.Lock()

	if c.submission.Token != token {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Info("controller: dropping stale completion %s (current %s)", token, snap.Submission.Token)
		return snap
	}
	c.cancel = nil

	if err == nil {
		c.submission = Submission{Status: StatusResult, Diabetic: resp.Diabetic, Token: token}
		c.alert = nil
	} else {
		category := predict.Classify(err)
		message := MessageFor(category)
		c.submission = Submission{Status: StatusFailed, Message: message, Category: category, Token: token}
		c.modalOpen = false
		c.alert = &Alert{
			Kind:     AlertError,
			Message:  message,
			Category: category,
			Status:   predict.Status(err),
		}
	}
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("controller: submission %s failed (%s): %v", token, snap.Submission.Category, err)
	} else {
		c.logger.Info("controller: submission %s diabetic=%t", token, resp.Diabetic)
	}
	c.notify(snap)
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	for _, observer := range c.observers {
		observer(snap)
	}
}
