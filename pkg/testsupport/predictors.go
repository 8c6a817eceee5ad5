package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

// StubPredictor answers every request with a fixed response or error and
// records the requests it saw.
type StubPredictor struct {
	mu       sync.Mutex
	response predict.Response
	err      error
	calls    []predict.Request
}

// NewStubPredictor returns a predictor answering with resp and err.
func NewStubPredictor(resp predict.Response, err error) *StubPredictor {
	return &StubPredictor{response: resp, err: err}
}

// Diagnosis returns a predictor that always answers with diabetic.
func Diagnosis(diabetic bool) *StubPredictor {
	return NewStubPredictor(predict.Response{Diabetic: diabetic}, nil)
}

// Failing returns a predictor that always fails with err.
func Failing(err error) *StubPredictor {
	return NewStubPredictor(predict.Response{}, err)
}

// Predict implements predict.Predictor.
func (s *StubPredictor) Predict(_ context.Context, req predict.Request) (predict.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	return s.response, s.err
}

// Set swaps the canned answer.
func (s *StubPredictor) Set(resp predict.Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = resp
	s.err = err
}

// Calls returns the requests seen so far.
func (s *StubPredictor) Calls() []predict.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]predict.Request(nil), s.calls...)
}

type reply struct {
	resp predict.Response
	err  error
}

// PendingCall is a request parked inside a GatedPredictor.
type PendingCall struct {
	Ctx     context.Context
	Request predict.Request
	reply   chan reply
}

// Respond releases the call with resp and err.
func (p *PendingCall) Respond(resp predict.Response, err error) {
	p.reply <- reply{resp: resp, err: err}
}

// GatedPredictor parks every request until the test releases it, so tests
// control completion order. A call whose context ends returns a transport
// error.
type GatedPredictor struct {
	calls chan *PendingCall
}

// NewGatedPredictor returns a predictor holding up to 16 parked calls.
func NewGatedPredictor() *GatedPredictor {
	return &GatedPredictor{calls: make(chan *PendingCall, 16)}
}

// Predict implements predict.Predictor.
func (g *GatedPredictor) Predict(ctx context.Context, req predict.Request) (predict.Response, error) {
	call := &PendingCall{Ctx: ctx, Request: req, reply: make(chan reply, 1)}
	g.calls <- call
	select {
	case r := <-call.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return predict.Response{}, &predict.TransportError{Err: ctx.Err()}
	}
}

// Next waits for the next parked call.
func (g *GatedPredictor) Next(t *testing.T) *PendingCall {
	t.Helper()
	select {
	case call := <-g.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for prediction request")
		return nil
	}
}

// CompleteForm returns a FormState with every field set to a sample value.
func CompleteForm() model.FormState {
	state := model.NewFormState()
	for i, value := range SampleValues() {
		_ = state.Set(model.FieldNames()[i], model.Number(value))
	}
	return state
}

// SampleValues returns one plausible measurement per field, in form order.
func SampleValues() []float64 {
	return []float64{6, 148, 72, 35, 0, 33.6, 0.627, 50}
}
