package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-predictform/pkg/model"
)

// JSONRenderer emits the page view model as indented JSON. Helper text is
// left as authored.
type JSONRenderer struct{}

// NewJSONRenderer returns a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (*JSONRenderer) Name() string        { return "json" }
func (*JSONRenderer) ContentType() string { return "application/json" }

// Render implements Renderer.
func (*JSONRenderer) Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(BuildPage(form, options, nil), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: encode page: %w", err)
	}
	return append(out, '\n'), nil
}
