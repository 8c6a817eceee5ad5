package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selects      []int
	prompts      []InputConfig
	infoMessages []string
	inputPos     int
	selectPos    int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	return false, errors.New("no confirm scripted")
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selects) {
		return -1, errors.New("no select scripted")
	}
	val := s.selects[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) saw(fragment string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func sampleInputs() []string {
	return []string{"6", "148", "72", "35", "0", "33.6", "0.627", "50"}
}

func testForm() model.FormModel {
	return model.FormModel{
		Summary: "Diabetes Prediction",
		Fields: []model.Field{
			{Name: model.FieldPregnancies, Label: "Pregnancies", Required: true},
			{Name: model.FieldGlucose, Label: "Glucose", Required: true, Metadata: map[string]string{"unit": "mg/dL"}},
			{Name: model.FieldBloodPressure, Label: "Blood pressure", Required: true},
			{Name: model.FieldSkinThickness, Label: "Skin thickness", Required: true},
			{Name: model.FieldInsulin, Label: "Insulin", Required: true},
			{
				Name:        model.FieldBMI,
				Label:       "BMI",
				Required:    true,
				Description: `Use a <a href="https://example.com">calculator</a>. It's quick.`,
			},
			{Name: model.FieldPedigreeFunction, Label: "Diabetes pedigree function", Required: true},
			{Name: model.FieldAge, Label: "Age", Required: true},
		},
	}
}

func newSession(t *testing.T, predictor predict.Predictor, driver *stubDriver) (*Session, *controller.Controller) {
	t.Helper()
	ctrl, err := controller.New(predictor)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	session, err := New(ctrl, testForm(), WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, ctrl
}

func TestSession_SubmitsAndPrintsResult(t *testing.T) {
	predictor := testsupport.Diagnosis(true)
	driver := &stubDriver{inputs: sampleInputs(), selects: []int{choiceQuit}}
	session, _ := newSession(t, predictor, driver)

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Submission.Status != controller.StatusResult || !snap.Submission.Diabetic {
		t.Fatalf("unexpected final state %+v", snap.Submission)
	}
	if snap.ModalOpen {
		t.Fatalf("session should close the modal after printing")
	}
	for _, want := range []string{"loading", "You are diabetic.", "This is only an experimental project with 76% accuracy."} {
		if !driver.saw(want) {
			t.Fatalf("expected %q in output %v", want, driver.infoMessages)
		}
	}
	if got, _ := predictor.Calls()[0].PedigreeFunction.Float(); got != 0.627 {
		t.Fatalf("unexpected pedigree value %v", got)
	}
}

func TestSession_PromptLabelsAndPlainHelp(t *testing.T) {
	driver := &stubDriver{inputs: sampleInputs(), selects: []int{choiceQuit}}
	session, _ := newSession(t, testsupport.Diagnosis(false), driver)
	if _, err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if driver.prompts[1].Message != "Glucose (mg/dL):" {
		t.Fatalf("unexpected glucose prompt %q", driver.prompts[1].Message)
	}
	if diff := cmp.Diff("Use a calculator. It's quick.", driver.prompts[5].Help); diff != "" {
		t.Fatalf("help mismatch (-want +got):\n%s", diff)
	}
	if !driver.saw("You are safe.") {
		t.Fatalf("expected safe result, got %v", driver.infoMessages)
	}
}

func TestSession_RepromptsMissingFields(t *testing.T) {
	inputs := sampleInputs()
	inputs[3] = ""
	inputs = append(inputs, "20")
	driver := &stubDriver{inputs: inputs, selects: []int{choiceQuit}}
	session, _ := newSession(t, testsupport.Diagnosis(false), driver)

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.saw("Please fill out: skinThickness") {
		t.Fatalf("expected missing field notice, got %v", driver.infoMessages)
	}
	if len(driver.prompts) != model.FieldCount+1 || driver.prompts[model.FieldCount].Message != "Skin thickness:" {
		t.Fatalf("expected one re-prompt for skin thickness, got %d prompts", len(driver.prompts))
	}
	if got, _ := snap.Form.Get(model.FieldSkinThickness).Float(); got != 20 {
		t.Fatalf("expected re-prompted value, got %v", got)
	}
}

// switchingPredictor fails the first call and answers every later one.
type switchingPredictor struct {
	*testsupport.StubPredictor
	first error
}

func (p *switchingPredictor) Predict(ctx context.Context, req predict.Request) (predict.Response, error) {
	resp, err := p.StubPredictor.Predict(ctx, req)
	if len(p.Calls()) == 1 {
		return predict.Response{}, p.first
	}
	return resp, err
}

func TestSession_AlertThenResubmitWithSameValues(t *testing.T) {
	predictor := &switchingPredictor{
		StubPredictor: testsupport.Diagnosis(false),
		first:         &predict.ResponseError{Status: 0},
	}
	driver := &stubDriver{inputs: sampleInputs(), selects: []int{choiceResubmit, choiceQuit}}
	session, _ := newSession(t, predictor, driver)

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := predictor.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected two submissions, got %d", len(calls))
	}
	if diff := cmp.Diff(calls[0], calls[1], cmp.Comparer(func(a, b model.Value) bool { return a == b })); diff != "" {
		t.Fatalf("values must persist between submissions (-first +second):\n%s", diff)
	}
	if !driver.saw("No response from server.") {
		t.Fatalf("expected alert message, got %v", driver.infoMessages)
	}
	if snap.Alert != nil {
		t.Fatalf("alert should be dismissed after printing")
	}
	if snap.Submission.Status != controller.StatusResult || snap.Submission.Diabetic {
		t.Fatalf("expected safe result after resubmit, got %+v", snap.Submission)
	}
}

func TestSession_PrintsStatusForHTTPFailures(t *testing.T) {
	predictor := testsupport.Failing(&predict.ResponseError{Status: 500})
	driver := &stubDriver{inputs: sampleInputs(), selects: []int{choiceQuit}}
	session, _ := newSession(t, predictor, driver)

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.saw("Something went wrong. (HTTP 500)") {
		t.Fatalf("expected status in alert line, got %v", driver.infoMessages)
	}
	if snap.Submission.Status != controller.StatusFailed {
		t.Fatalf("expected failed submission, got %s", snap.Submission.Status)
	}
}

func TestSession_EditKeepsUnchangedValues(t *testing.T) {
	inputs := append(sampleInputs(), sampleInputs()...)
	inputs[model.FieldCount+7] = "61"
	driver := &stubDriver{inputs: inputs, selects: []int{choiceEdit, choiceQuit}}
	predictor := testsupport.Diagnosis(true)
	session, _ := newSession(t, predictor, driver)

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, _ := snap.Form.Get(model.FieldAge).Float(); got != 61 {
		t.Fatalf("expected edited age, got %v", got)
	}
	if driver.prompts[model.FieldCount].Default != "6" {
		t.Fatalf("edit prompts should default to current values, got %q", driver.prompts[model.FieldCount].Default)
	}
	if len(predictor.Calls()) != 2 {
		t.Fatalf("expected resubmission after edit, got %d calls", len(predictor.Calls()))
	}
}

func TestSession_PropagatesDriverErrors(t *testing.T) {
	driver := &stubDriver{inputs: []string{"6"}}
	session, ctrl := newSession(t, testsupport.Diagnosis(true), driver)

	_, err := session.Run(context.Background())
	if err == nil {
		t.Fatalf("expected driver error")
	}
	if got := ctrl.Snapshot().Submission.Status; got != controller.StatusIdle {
		t.Fatalf("no submission expected, got %s", got)
	}
}

type abortingDriver struct {
	stubDriver
}

func (d *abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func TestSession_Aborted(t *testing.T) {
	ctrl, err := controller.New(testsupport.Diagnosis(true))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	session, err := New(ctrl, testForm(), WithPromptDriver(&abortingDriver{}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestNew_RequiresController(t *testing.T) {
	if _, err := New(nil, testForm()); !errors.Is(err, ErrNoController) {
		t.Fatalf("expected ErrNoController, got %v", err)
	}
}

func TestPlainHelp(t *testing.T) {
	got := plainHelp("Enter Body Mass Index. Use a\n <a href=\"https://example.com\" target=\"_blank\">calculator</a>.")
	if got != "Enter Body Mass Index. Use a calculator." {
		t.Fatalf("unexpected help %q", got)
	}
	if plainHelp("   ") != "" {
		t.Fatalf("blank help should stay blank")
	}
}
