package vanilla

import (
	"context"
	"fmt"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render"
	rendertemplate "github.com/goliatone/go-predictform/pkg/render/template"
	gotemplate "github.com/goliatone/go-predictform/pkg/render/template/gotemplate"
)

// StylesheetAsset is the theme asset key consulted for an external
// stylesheet URL.
const StylesheetAsset = "vanilla.stylesheet"

type Option func(*config)

type config struct {
	templatesDir string
	theme        *theme.RendererConfig
}

// WithTemplatesDir loads templates from a directory on disk laid out like the
// embedded bundle (templates/page.tmpl). Files missing from the directory
// fall back to the embedded ones.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

// WithTheme sets the resolved theme. Without it the default manifest is used.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		if cfg != nil {
			c.theme = cfg
		}
	}
}

// Renderer produces the HTML page.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	var cfg config
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.theme == nil {
		cfg.theme = ThemeConfig(nil, "")
	}
	if cfg.templatesDir != "" {
		if info, err := os.Stat(cfg.templatesDir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("vanilla renderer: templates dir %q is not a directory", cfg.templatesDir)
		}
	}

	engine, err := gotemplate.New(
		gotemplate.WithBaseDir(cfg.templatesDir),
		gotemplate.WithFS(TemplatesFS()),
		gotemplate.WithExtension(".tmpl"),
		gotemplate.WithGlobalData(pageGlobals(cfg.theme)),
	)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
	}
	return &Renderer{templates: engine}, nil
}

// pageGlobals holds the values that stay fixed for the renderer's lifetime.
func pageGlobals(cfg *theme.RendererConfig) map[string]any {
	globals := map[string]any{
		"theme":      buildThemeContext(cfg),
		"stylesheet": defaultStylesheet(),
	}
	if cfg != nil && cfg.AssetURL != nil {
		if url := cfg.AssetURL(StylesheetAsset); url != "" {
			globals["stylesheet_url"] = url
		}
	}
	return globals
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	data := map[string]any{"page": render.BuildPage(form, options, sanitizeHelp)}
	result, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
