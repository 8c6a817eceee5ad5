package tui

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render"
)

const (
	choiceResubmit = iota
	choiceEdit
	choiceQuit
)

var nextActions = []string{"Submit again", "Edit values", "Quit"}

// Session drives a controller from the terminal: it prompts every field,
// submits, prints the diagnosis or the alert and offers to resubmit.
type Session struct {
	ctrl   *controller.Controller
	form   model.FormModel
	driver PromptDriver
	theme  Theme
	logger logging.Logger
}

// New creates a session over ctrl rendering the fields of form.
func New(ctrl *controller.Controller, form model.FormModel, opts ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	s := &Session{
		ctrl:   ctrl,
		form:   form,
		driver: NewSurveyDriver(nil),
		theme: Theme{
			ErrorPrefix:   "✖ ",
			ResultPrefix:  "● ",
			LoadingPrefix: "… ",
		},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run prompts, submits and loops until the user quits. It returns the last
// snapshot.
func (s *Session) Run(ctx context.Context) (controller.Snapshot, error) {
	title := s.form.Summary
	if title == "" {
		title = render.DefaultTitle
	}
	if err := s.info(ctx, s.theme.InfoPrefix+title); err != nil {
		return controller.Snapshot{}, err
	}
	if err := s.promptFields(ctx, s.fieldNames()); err != nil {
		return s.ctrl.Snapshot(), err
	}

	for {
		out, err := s.submit(ctx)
		if err != nil {
			return s.ctrl.Snapshot(), err
		}
		if len(out.Missing) > 0 {
			if err := s.info(ctx, s.theme.ErrorPrefix+"Please fill out: "+joinNames(out.Missing)); err != nil {
				return s.ctrl.Snapshot(), err
			}
			if err := s.promptFields(ctx, out.Missing); err != nil {
				return s.ctrl.Snapshot(), err
			}
			continue
		}

		choice, err := s.driver.Select(ctx, SelectConfig{
			Message:      "What next?",
			Options:      nextActions,
			DefaultIndex: choiceQuit,
		})
		if err != nil {
			return s.ctrl.Snapshot(), err
		}
		switch choice {
		case choiceResubmit:
		case choiceEdit:
			if err := s.promptFields(ctx, s.fieldNames()); err != nil {
				return s.ctrl.Snapshot(), err
			}
		default:
			return s.ctrl.Snapshot(), nil
		}
	}
}

// submit runs one submit event and prints its outcome. Prediction failures
// are reported through the alert, not as errors.
func (s *Session) submit(ctx context.Context) (controller.Outcome, error) {
	if s.ctrl.Snapshot().Form.Complete() {
		if err := s.info(ctx, s.theme.LoadingPrefix+render.LoadingLabel); err != nil {
			return controller.Outcome{}, err
		}
	}

	out, predictErr := s.ctrl.Submit(ctx)
	if predictErr != nil {
		s.logger.Debug("tui: submission failed: %v", predictErr)
	}
	if !out.Started() {
		if out.Busy {
			return out, s.info(ctx, s.theme.InfoPrefix+"A request is already in flight.")
		}
		return out, nil
	}

	snap := s.ctrl.Snapshot()
	if snap.Alert != nil {
		msg := snap.Alert.Message
		if snap.Alert.Status > 0 {
			msg = fmt.Sprintf("%s (HTTP %d)", msg, snap.Alert.Status)
		}
		if err := s.info(ctx, s.theme.ErrorPrefix+msg); err != nil {
			return out, err
		}
		s.ctrl.DismissAlert()
		return out, nil
	}

	if snap.Submission.Status == controller.StatusResult {
		text := render.ResultSafe
		if snap.Submission.Diabetic {
			text = render.ResultDiabetic
		}
		caption := s.form.Description
		if caption == "" {
			caption = render.DefaultCaption
		}
		if err := s.info(ctx, s.theme.ResultPrefix+text); err != nil {
			return out, err
		}
		if err := s.info(ctx, caption); err != nil {
			return out, err
		}
		s.ctrl.CloseModal()
	}
	return out, nil
}

// promptFields asks for each named field. An empty answer on a field without
// a current value leaves it unset.
func (s *Session) promptFields(ctx context.Context, names []model.FieldName) error {
	values := s.ctrl.Snapshot().Form
	for _, name := range names {
		field, ok := s.form.Field(name)
		if !ok {
			field = model.Field{Name: name, Label: string(name), Required: true}
		}
		current := values.Get(name)

		answer, err := s.driver.Input(ctx, InputConfig{
			Message: promptLabel(field),
			Default: current.String(),
			Help:    plainHelp(field.Description),
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) == "" && !current.IsSet() {
			continue
		}
		if answer == current.String() && current.IsSet() {
			continue
		}
		if err := s.ctrl.OnFieldChange(string(name), answer); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) fieldNames() []model.FieldName {
	if len(s.form.Fields) == 0 {
		return model.FieldNames()
	}
	names := make([]model.FieldName, 0, len(s.form.Fields))
	for _, field := range s.form.Fields {
		names = append(names, field.Name)
	}
	return names
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, msg)
}

func promptLabel(field model.Field) string {
	label := field.Label
	if label == "" {
		label = string(field.Name)
	}
	if unit := field.Metadata["unit"]; unit != "" {
		label += " (" + unit + ")"
	}
	return label + ":"
}

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// plainHelp strips markup from helper text for terminal display.
func plainHelp(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	text := html.UnescapeString(plainPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

func joinNames(names []model.FieldName) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = string(name)
	}
	return strings.Join(parts, ", ")
}
