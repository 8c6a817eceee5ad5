package render

import (
	"context"

	"github.com/goliatone/go-predictform/pkg/model"
)

// Renderer converts the form model plus the current interaction state into a
// byte representation (an HTML page, a JSON document).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
