package render

import (
	"sort"

	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/model"
)

const (
	DefaultTitle   = "Diabetes Prediction"
	DefaultCaption = "This is only an experimental project with 76% accuracy."
	SubmitLabel    = "get diagnosis"
	LoadingLabel   = "loading"
	ResultDiabetic = "You are diabetic."
	ResultSafe     = "You are safe."
)

// Page is the view model of the single form page.
type Page struct {
	Title       string        `json:"title"`
	Caption     string        `json:"caption"`
	Action      string        `json:"action"`
	SubmitLabel string        `json:"submitLabel"`
	Fields      []PageField   `json:"fields"`
	Hidden      []HiddenField `json:"hidden,omitempty"`
	Alert       *PageAlert    `json:"alert,omitempty"`
	Modal       PageModal     `json:"modal"`
	Revision    uint64        `json:"revision"`
}

// PageField is one rendered number input.
type PageField struct {
	Name     string   `json:"name"`
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Step     string   `json:"step"`
	Min      string   `json:"min,omitempty"`
	Max      string   `json:"max,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Help     string   `json:"help,omitempty"`
	Required bool     `json:"required"`
	Errors   []string `json:"errors,omitempty"`
}

// HiddenField is a hidden input emitted inside every form.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PageAlert is the error banner.
type PageAlert struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// PageModal is the result overlay.
type PageModal struct {
	Open     bool   `json:"open"`
	Loading  bool   `json:"loading"`
	Result   string `json:"result,omitempty"`
	Severity string `json:"severity,omitempty"`
	Diabetic bool   `json:"diabetic"`
}

// HelpFormatter turns raw helper text into the markup a renderer emits.
type HelpFormatter func(string) string

// BuildPage assembles the view model from the form, the snapshot in opts and
// the inline errors. help formats helper text; nil keeps it verbatim.
func BuildPage(form model.FormModel, opts RenderOptions, help HelpFormatter) Page {
	page := Page{
		Title:       form.Summary,
		Caption:     form.Description,
		Action:      opts.Action,
		SubmitLabel: SubmitLabel,
	}
	if page.Title == "" {
		page.Title = DefaultTitle
	}
	if page.Caption == "" {
		page.Caption = DefaultCaption
	}

	var values map[string]string
	if opts.State != nil {
		values = opts.State.Form.Values()
	}
	errs := MergeErrors(opts.Errors)

	for _, field := range form.Fields {
		name := string(field.Name)
		item := PageField{
			Name:     name,
			ID:       "field-" + name,
			Label:    field.Label,
			Value:    values[name],
			Step:     "any",
			Unit:     field.Metadata["unit"],
			Required: field.Required,
			Errors:   errs[name],
		}
		if step, ok := field.Rule(model.ValidationRuleStep); ok {
			item.Step = step
		}
		item.Min, _ = field.Rule(model.ValidationRuleMin)
		item.Max, _ = field.Rule(model.ValidationRuleMax)
		if field.Description != "" {
			item.Help = field.Description
			if help != nil {
				item.Help = help(field.Description)
			}
		}
		page.Fields = append(page.Fields, item)
	}

	for name, value := range opts.Hidden {
		page.Hidden = append(page.Hidden, HiddenField{Name: name, Value: value})
	}
	sort.Slice(page.Hidden, func(i, j int) bool { return page.Hidden[i].Name < page.Hidden[j].Name })

	if opts.State == nil {
		return page
	}
	snap := opts.State
	page.Revision = snap.Revision

	if snap.Alert != nil {
		page.Alert = &PageAlert{
			Kind:     string(snap.Alert.Kind),
			Message:  snap.Alert.Message,
			Category: string(snap.Alert.Category),
			Status:   snap.Alert.Status,
		}
	}

	page.Modal.Open = snap.ModalOpen
	switch snap.Submission.Status {
	case controller.StatusLoading:
		page.Modal.Loading = true
	case controller.StatusResult:
		page.Modal.Diabetic = snap.Submission.Diabetic
		if snap.Submission.Diabetic {
			page.Modal.Result = ResultDiabetic
			page.Modal.Severity = "warning"
		} else {
			page.Modal.Result = ResultSafe
			page.Modal.Severity = "success"
		}
	}
	return page
}
