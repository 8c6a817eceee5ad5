package render

import "github.com/goliatone/go-predictform/pkg/controller"

// RenderOptions carry per-request data renderers combine with the form model.
type RenderOptions struct {
	// State is the controller snapshot to reflect. Nil renders a fresh form.
	State *controller.Snapshot
	// Errors holds inline messages keyed by field name.
	Errors map[string][]string
	// Action is the URL the form posts to. Defaults to the current page.
	Action string
	// Hidden fields are emitted inside every form on the page.
	Hidden map[string]string
}
