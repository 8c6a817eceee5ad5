package controller_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/testsupport"
)

func newController(t *testing.T, predictor predict.Predictor, opts ...controller.Option) *controller.Controller {
	t.Helper()
	ctrl, err := controller.New(predictor, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func fillAll(t *testing.T, ctrl *controller.Controller) {
	t.Helper()
	for i, name := range model.FieldNames() {
		raw := strconv.FormatFloat(testsupport.SampleValues()[i], 'f', -1, 64)
		if err := ctrl.OnFieldChange(string(name), raw); err != nil {
			t.Fatalf("change %s: %v", name, err)
		}
	}
}

func waitFor(t *testing.T, done <-chan controller.Snapshot) controller.Snapshot {
	t.Helper()
	select {
	case snap := <-done:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for submission")
		return controller.Snapshot{}
	}
}

func TestController_InitialState(t *testing.T) {
	snap := newController(t, testsupport.Diagnosis(false)).Snapshot()

	if snap.Submission.Status != controller.StatusIdle {
		t.Fatalf("expected idle, got %q", snap.Submission.Status)
	}
	if snap.ModalOpen || snap.Alert != nil {
		t.Fatalf("expected no modal and no alert")
	}
	if len(snap.Form.Missing()) != model.FieldCount {
		t.Fatalf("expected every field unset")
	}
}

func TestController_FieldChangeTouchesOnlyThatField(t *testing.T) {
	ctrl := newController(t, testsupport.Diagnosis(false))
	fillAll(t, ctrl)

	for _, name := range model.FieldNames() {
		before := ctrl.Snapshot()
		if err := ctrl.OnFieldChange(string(name), "999"); err != nil {
			t.Fatalf("change %s: %v", name, err)
		}
		after := ctrl.Snapshot()

		for _, other := range model.FieldNames() {
			if other == name {
				if got, _ := after.Form.Get(other).Float(); got != 999 {
					t.Fatalf("%s not updated: %v", other, got)
				}
				continue
			}
			if before.Form.Get(other) != after.Form.Get(other) {
				t.Fatalf("changing %s altered %s", name, other)
			}
		}
		if diff := cmp.Diff(before.Submission, after.Submission); diff != "" {
			t.Fatalf("field change altered submission (-before +after):\n%s", diff)
		}
	}
}

func TestController_FieldChangeStoresNaN(t *testing.T) {
	ctrl := newController(t, testsupport.Diagnosis(false))
	if err := ctrl.OnFieldChange("bmi", "heavy"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if !ctrl.Snapshot().Form.Get(model.FieldBMI).IsNaN() {
		t.Fatalf("expected NaN for unparseable text")
	}
}

func TestController_UnknownField(t *testing.T) {
	ctrl := newController(t, testsupport.Diagnosis(false))
	before := ctrl.Snapshot()

	err := ctrl.OnFieldChange("weight", "80")
	if !errors.Is(err, controller.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if ctrl.Snapshot().Revision != before.Revision {
		t.Fatalf("unknown field must not change state")
	}
}

func TestController_SubmitBlockedWhileAnyFieldUnset(t *testing.T) {
	for _, skip := range model.FieldNames() {
		t.Run(string(skip), func(t *testing.T) {
			predictor := testsupport.Diagnosis(true)
			ctrl := newController(t, predictor)
			for _, name := range model.FieldNames() {
				if name == skip {
					continue
				}
				_ = ctrl.OnFieldChange(string(name), "1")
			}
			before := ctrl.Snapshot()

			out, err := ctrl.Submit(context.Background())
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if out.Prevented || out.Started() {
				t.Fatalf("incomplete form must not suppress the default submit: %+v", out)
			}
			if diff := cmp.Diff([]model.FieldName{skip}, out.Missing); diff != "" {
				t.Fatalf("missing mismatch (-want +got):\n%s", diff)
			}
			if len(predictor.Calls()) != 0 {
				t.Fatalf("no request may be sent")
			}
			after := ctrl.Snapshot()
			if after.Revision != before.Revision || after.ModalOpen || after.Alert != nil {
				t.Fatalf("blocked submit changed state: %+v", after)
			}
		})
	}
}

func TestController_NaNFieldsAllowSubmit(t *testing.T) {
	predictor := testsupport.Diagnosis(false)
	ctrl := newController(t, predictor)
	for _, name := range model.FieldNames() {
		_ = ctrl.OnFieldChange(string(name), "")
	}

	out, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Prevented || !out.Started() {
		t.Fatalf("expected submission to start: %+v", out)
	}
	if len(predictor.Calls()) != 1 {
		t.Fatalf("expected one request, got %d", len(predictor.Calls()))
	}
}

func TestController_SubmitResult(t *testing.T) {
	for _, diabetic := range []bool{true, false} {
		t.Run(fmt.Sprint(diabetic), func(t *testing.T) {
			predictor := testsupport.Diagnosis(diabetic)
			ctrl := newController(t, predictor)
			fillAll(t, ctrl)

			if _, err := ctrl.Submit(context.Background()); err != nil {
				t.Fatalf("submit: %v", err)
			}
			snap := ctrl.Snapshot()
			if snap.Submission.Status != controller.StatusResult || snap.Submission.Diabetic != diabetic {
				t.Fatalf("expected Result(%v), got %+v", diabetic, snap.Submission)
			}
			if !snap.ModalOpen {
				t.Fatalf("result must show in the modal")
			}
			if snap.Alert != nil {
				t.Fatalf("success must clear the alert")
			}

			calls := predictor.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected one request, got %d", len(calls))
			}
			if got, _ := calls[0].BMI.Float(); got != 33.6 {
				t.Fatalf("expected bmi 33.6 in request, got %v", got)
			}
		})
	}
}

func TestController_SubmitFailureMessages(t *testing.T) {
	cases := map[string]struct {
		err      error
		message  string
		category predict.Category
		status   int
	}{
		"no response": {
			err:      &predict.ResponseError{Status: 0},
			message:  "No response from server.",
			category: predict.CategoryNoResponse,
		},
		"server error": {
			err:      &predict.ResponseError{Status: 500},
			message:  "Something went wrong.",
			category: predict.CategoryServerError,
			status:   500,
		},
		"client error": {
			err:      &predict.ResponseError{Status: 422},
			message:  "Something went wrong.",
			category: predict.CategoryClientError,
			status:   422,
		},
		"transport": {
			err:      &predict.TransportError{Err: errors.New("dial tcp: connection refused")},
			message:  "Something went wrong.",
			category: predict.CategoryTransport,
		},
		"decode": {
			err:      &predict.DecodeError{Err: errors.New("invalid character")},
			message:  "Something went wrong.",
			category: predict.CategoryDecode,
		},
		"contract": {
			err:      &predict.ContractError{Err: errors.New("glucose: null")},
			message:  "Something went wrong.",
			category: predict.CategoryContract,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := newController(t, testsupport.Failing(tc.err))
			fillAll(t, ctrl)

			_, err := ctrl.Submit(context.Background())
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected submit to surface %v, got %v", tc.err, err)
			}
			snap := ctrl.Snapshot()
			if snap.ModalOpen {
				t.Fatalf("failure must close the modal")
			}
			want := &controller.Alert{
				Kind:     controller.AlertError,
				Message:  tc.message,
				Category: tc.category,
				Status:   tc.status,
			}
			if diff := cmp.Diff(want, snap.Alert); diff != "" {
				t.Fatalf("alert mismatch (-want +got):\n%s", diff)
			}
			if snap.Submission.Status != controller.StatusFailed || snap.Submission.Message != tc.message {
				t.Fatalf("expected Failed(%q), got %+v", tc.message, snap.Submission)
			}
		})
	}
}

func TestController_DismissAlertLeavesOtherState(t *testing.T) {
	ctrl := newController(t, testsupport.Failing(&predict.ResponseError{Status: 503}))
	fillAll(t, ctrl)
	_, _ = ctrl.Submit(context.Background())

	before := ctrl.Snapshot()
	if before.Alert == nil {
		t.Fatalf("expected alert after failure")
	}
	ctrl.DismissAlert()
	after := ctrl.Snapshot()

	if after.Alert != nil {
		t.Fatalf("alert should be cleared")
	}
	if diff := cmp.Diff(before.Submission, after.Submission); diff != "" {
		t.Fatalf("dismiss altered submission (-before +after):\n%s", diff)
	}
	if before.ModalOpen != after.ModalOpen || before.Form != after.Form {
		t.Fatalf("dismiss altered modal or form state")
	}
}

func TestController_CloseModalKeepsSubmission(t *testing.T) {
	ctrl := newController(t, testsupport.Diagnosis(true))
	fillAll(t, ctrl)
	_, _ = ctrl.Submit(context.Background())

	before := ctrl.Snapshot()
	ctrl.CloseModal()
	after := ctrl.Snapshot()

	if after.ModalOpen {
		t.Fatalf("modal should be closed")
	}
	if diff := cmp.Diff(before.Submission, after.Submission); diff != "" {
		t.Fatalf("close altered submission (-before +after):\n%s", diff)
	}
}

func TestController_CloseModalWhileLoading(t *testing.T) {
	gate := testsupport.NewGatedPredictor()
	ctrl := newController(t, gate)
	fillAll(t, ctrl)

	_, done := ctrl.SubmitAsync(context.Background())
	call := gate.Next(t)
	ctrl.CloseModal()
	if got := ctrl.Snapshot(); got.ModalOpen || !got.Loading() {
		t.Fatalf("expected closed modal while still loading, got %+v", got)
	}

	call.Respond(predict.Response{Diabetic: true}, nil)
	snap := waitFor(t, done)
	if snap.Submission.Status != controller.StatusResult || !snap.Submission.Diabetic {
		t.Fatalf("expected result after closing the modal, got %+v", snap.Submission)
	}
	if snap.ModalOpen {
		t.Fatalf("completion must not reopen the modal")
	}
}

func TestController_ResubmitWithoutReset(t *testing.T) {
	predictor := testsupport.Failing(&predict.ResponseError{Status: 0})
	ctrl := newController(t, predictor)
	fillAll(t, ctrl)

	_, _ = ctrl.Submit(context.Background())
	predictor.Set(predict.Response{Diabetic: false}, nil)
	out, err := ctrl.Submit(context.Background())
	if err != nil || !out.Started() {
		t.Fatalf("resubmit: %+v %v", out, err)
	}

	calls := predictor.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected two requests, got %d", len(calls))
	}
	if diff := cmp.Diff(calls[0], calls[1], cmp.Comparer(func(a, b model.Value) bool { return a == b })); diff != "" {
		t.Fatalf("form state changed between submissions (-first +second):\n%s", diff)
	}
	snap := ctrl.Snapshot()
	if snap.Alert != nil || snap.Submission.Status != controller.StatusResult {
		t.Fatalf("expected success to clear the earlier alert, got %+v", snap)
	}
}

func TestController_LatestWinsDropsStaleCompletion(t *testing.T) {
	gate := testsupport.NewGatedPredictor()
	ctrl := newController(t, gate)
	fillAll(t, ctrl)

	first, firstDone := ctrl.SubmitAsync(context.Background())
	firstCall := gate.Next(t)
	second, secondDone := ctrl.SubmitAsync(context.Background())
	secondCall := gate.Next(t)

	if first.Token == second.Token {
		t.Fatalf("expected distinct tokens")
	}
	if firstCall.Ctx.Err() != nil {
		t.Fatalf("latest-wins must not cancel the earlier request")
	}

	secondCall.Respond(predict.Response{Diabetic: true}, nil)
	waitFor(t, secondDone)
	firstCall.Respond(predict.Response{}, &predict.ResponseError{Status: 500})
	waitFor(t, firstDone)

	snap := ctrl.Snapshot()
	if snap.Submission.Token != second.Token || snap.Submission.Status != controller.StatusResult || !snap.Submission.Diabetic {
		t.Fatalf("stale completion overwrote state: %+v", snap.Submission)
	}
	if snap.Alert != nil {
		t.Fatalf("stale failure must not raise an alert")
	}
}

func TestController_CancelStale(t *testing.T) {
	gate := testsupport.NewGatedPredictor()
	ctrl := newController(t, gate, controller.WithPolicy(controller.PolicyCancelStale))
	fillAll(t, ctrl)

	_, firstDone := ctrl.SubmitAsync(context.Background())
	firstCall := gate.Next(t)
	second, secondDone := ctrl.SubmitAsync(context.Background())
	secondCall := gate.Next(t)

	waitFor(t, firstDone)
	if firstCall.Ctx.Err() == nil {
		t.Fatalf("expected earlier request to be cancelled")
	}
	if snap := ctrl.Snapshot(); !snap.Loading() || snap.Alert != nil {
		t.Fatalf("cancelled request must not change state: %+v", snap)
	}

	secondCall.Respond(predict.Response{Diabetic: false}, nil)
	snap := waitFor(t, secondDone)
	if snap.Submission.Token != second.Token || snap.Submission.Status != controller.StatusResult {
		t.Fatalf("unexpected final state: %+v", snap.Submission)
	}
}

func TestController_SingleFlight(t *testing.T) {
	gate := testsupport.NewGatedPredictor()
	ctrl := newController(t, gate, controller.WithPolicy(controller.PolicySingleFlight))
	fillAll(t, ctrl)

	first, done := ctrl.SubmitAsync(context.Background())
	call := gate.Next(t)

	busy, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !busy.Busy || busy.Started() {
		t.Fatalf("expected busy outcome, got %+v", busy)
	}

	call.Respond(predict.Response{Diabetic: true}, nil)
	snap := waitFor(t, done)
	if snap.Submission.Token != first.Token {
		t.Fatalf("expected first submission to own the state")
	}

	again, _ := ctrl.SubmitAsync(context.Background())
	if !again.Started() {
		t.Fatalf("submit after completion should start a new request")
	}
	gate.Next(t).Respond(predict.Response{}, nil)
}

func TestController_TokenSourceAndObserver(t *testing.T) {
	var (
		mu     sync.Mutex
		states []controller.Status
	)
	observer := func(snap controller.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, snap.Submission.Status)
	}
	ctrl := newController(t, testsupport.Diagnosis(true),
		controller.WithTokenSource(func() string { return "token-1" }),
		controller.WithObserver(observer),
	)
	fillAll(t, ctrl)

	out, _ := ctrl.Submit(context.Background())
	if out.Token != "token-1" {
		t.Fatalf("expected custom token, got %q", out.Token)
	}

	mu.Lock()
	defer mu.Unlock()
	tail := states[len(states)-2:]
	if diff := cmp.Diff([]controller.Status{controller.StatusLoading, controller.StatusResult}, tail); diff != "" {
		t.Fatalf("observer transitions mismatch (-want +got):\n%s", diff)
	}
	if len(states) != model.FieldCount+2 {
		t.Fatalf("expected one notification per change, got %d", len(states))
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := controller.New(nil); !errors.Is(err, controller.ErrNoPredictor) {
		t.Fatalf("expected ErrNoPredictor, got %v", err)
	}
	if _, err := controller.New(testsupport.Diagnosis(true), controller.WithPolicy("random")); err == nil {
		t.Fatalf("expected unknown policy to fail")
	}
}

func TestParsePolicy(t *testing.T) {
	got, err := controller.ParsePolicy("")
	if err != nil || got != controller.PolicyLatestWins {
		t.Fatalf("expected latest-wins default, got %q %v", got, err)
	}
	got, err = controller.ParsePolicy("Single-Flight")
	if err != nil || got != controller.PolicySingleFlight {
		t.Fatalf("expected single-flight, got %q %v", got, err)
	}
}
