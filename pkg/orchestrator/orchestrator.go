package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/controller"
	"github.com/goliatone/go-predictform/pkg/model"
	pkgopenapi "github.com/goliatone/go-predictform/pkg/openapi"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// ErrNoPredictor is returned when a controller is requested without a
// configured predictor.
var ErrNoPredictor = errors.New("orchestrator: predictor is required")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithSource loads the contract from src instead of the bundled document.
func WithSource(src pkgopenapi.Source) Option {
	return func(o *Orchestrator) {
		o.source = src
	}
}

// WithContract injects an already parsed contract.
func WithContract(contract *pkgopenapi.Contract) Option {
	return func(o *Orchestrator) {
		o.contract = contract
	}
}

// WithPredictor sets the predictor new controllers submit to.
func WithPredictor(predictor predict.Predictor) Option {
	return func(o *Orchestrator) {
		o.predictor = predictor
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithControllerOptions are applied to every controller the orchestrator
// builds.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(o *Orchestrator) {
		o.controllerOpts = append(o.controllerOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.OrNop(logger)
	}
}

// Orchestrator resolves the prediction contract once and hands out the form
// model, rendered pages and controllers. Defaults are the bundled contract
// and a registry holding the vanilla and json renderers.
type Orchestrator struct {
	source          pkgopenapi.Source
	predictor       predict.Predictor
	registry        *render.Registry
	defaultRenderer string
	controllerOpts  []controller.Option
	logger          logging.Logger
	initialiseErr   error

	mu       sync.Mutex
	contract *pkgopenapi.Contract
	form     *model.FormModel
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          logging.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request selects a renderer and the per-request render options.
type Request struct {
	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// RenderOptions carries the controller snapshot and inline errors.
	RenderOptions render.RenderOptions
}

// Contract returns the parsed contract, loading it on first use.
func (o *Orchestrator) Contract(ctx context.Context) (*pkgopenapi.Contract, error) {
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.contract != nil {
		return o.contract, nil
	}

	src := o.source
	if src == nil {
		src = pkgopenapi.SourceEmbedded()
	}
	contract, err := pkgopenapi.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load contract %s: %w", src.Location(), err)
	}
	o.logger.Debug("orchestrator: loaded contract from %s", src.Location())
	o.contract = contract
	return contract, nil
}

// Form returns the form model derived from the contract.
func (o *Orchestrator) Form(ctx context.Context) (model.FormModel, error) {
	contract, err := o.Contract(ctx)
	if err != nil {
		return model.FormModel{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.form != nil {
		return *o.form, nil
	}
	form, err := contract.Form()
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: build form model: %w", err)
	}
	o.form = &form
	return form, nil
}

// NewController returns a fresh controller bound to the predictor.
func (o *Orchestrator) NewController() (*controller.Controller, error) {
	if o.predictor == nil {
		return nil, ErrNoPredictor
	}
	return controller.New(o.predictor, o.controllerOpts...)
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Generate renders the form with the requested renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form, err := o.Form(ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := o.Renderer(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, form, req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Renderer resolves name, or the default renderer when name is empty.
func (o *Orchestrator) Renderer(name string) (render.Renderer, error) {
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}

func (o *Orchestrator) applyDefaults() {
	if o.registry != nil {
		return
	}
	page, err := vanilla.New()
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		return
	}
	registry, err := render.NewRegistry(page, render.NewJSONRenderer())
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
		return
	}
	o.registry = registry
}
