// Package predictform exposes the shortest path from the bundled prediction
// contract to a rendered form or a live controller.
package predictform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/orchestrator"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/renderers/vanilla"
)

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

// Snapshot aliases controller.Snapshot.
type Snapshot = controller.Snapshot

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders the form with the named renderer ("vanilla" when
// empty), reflecting snap when it is non-nil.
func GenerateHTML(ctx context.Context, rendererName string, snap *Snapshot, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Renderer:      rendererName,
		RenderOptions: RenderOptions{State: snap},
	})
}

// NewController builds a controller that posts to baseURL.
func NewController(baseURL string, opts ...controller.Option) (*controller.Controller, error) {
	client, err := predict.New(baseURL)
	if err != nil {
		return nil, err
	}
	return controller.New(client, opts...)
}

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
