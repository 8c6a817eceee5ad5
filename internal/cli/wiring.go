package cli

import (
	"context"
	"io"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/controller"
	pkgopenapi "github.com/goliatone/go-predictform/pkg/openapi"
	"github.com/goliatone/go-predictform/pkg/orchestrator"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/renderers/vanilla"
)

// assetsPrefix is where the web server mounts the embedded stylesheet.
const assetsPrefix = "/assets"

type app struct {
	cfg    config.Config
	logger logging.Logger
	orch   *orchestrator.Orchestrator
	client *predict.HTTPClient
}

func newLogger(cfg config.Config, w io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.New(level, w)
}

// buildApp loads the contract and wires the prediction client, controller
// options and renderers from cfg. linked selects a page that links the
// stylesheet from the asset route instead of inlining it.
func buildApp(ctx context.Context, cfg config.Config, logw io.Writer, linked bool) (*app, error) {
	logger := newLogger(cfg, logw)

	var source pkgopenapi.Source
	if cfg.Predict.Contract != "" {
		source = pkgopenapi.SourceFromFile(cfg.Predict.Contract)
	}
	loader := orchestrator.New(orchestrator.WithSource(source), orchestrator.WithLogger(logger))
	contract, err := loader.Contract(ctx)
	if err != nil {
		return nil, err
	}
	_, contractPath := contract.Endpoint()

	opts := []predict.Option{
		predict.WithPath(contractPath),
		predict.WithPath(cfg.Predict.Path),
		predict.WithTimeout(cfg.Predict.Timeout),
		predict.WithUserAgent(cfg.Predict.UserAgent),
		predict.WithLogger(logger),
	}
	if cfg.Predict.HTTPProxy != "" || cfg.Predict.HTTPSProxy != "" {
		opts = append(opts, predict.WithProxy(cfg.Predict.HTTPProxy, cfg.Predict.HTTPSProxy))
	}
	if cfg.Predict.RateLimit > 0 {
		opts = append(opts, predict.WithRateLimit(cfg.Predict.RateLimit, cfg.Predict.Burst))
	}
	if cfg.Predict.Strict {
		opts = append(opts, predict.WithContract(contract))
	}
	client, err := predict.New(cfg.Predict.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	policy, err := controller.ParsePolicy(cfg.Submission.Policy)
	if err != nil {
		return nil, err
	}

	page, err := vanilla.New(
		vanilla.WithTheme(themeFor(cfg, linked)),
		vanilla.WithTemplatesDir(cfg.Theme.TemplatesDir),
	)
	if err != nil {
		return nil, err
	}
	registry, err := render.NewRegistry(page, render.NewJSONRenderer())
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(
		orchestrator.WithContract(contract),
		orchestrator.WithPredictor(client),
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(logger),
		orchestrator.WithControllerOptions(
			controller.WithPolicy(policy),
			controller.WithLogger(logger),
		),
	)

	logger.Info("predictform: predicting via %s (policy %s)", client.Endpoint(), policy)
	return &app{cfg: cfg, logger: logger, orch: orch, client: client}, nil
}

func themeFor(cfg config.Config, linked bool) *theme.RendererConfig {
	manifest := vanilla.DefaultManifest()
	if cfg.Theme.Name != "" {
		manifest.Name = cfg.Theme.Name
	}
	if linked {
		manifest.Assets.Prefix = assetsPrefix
		manifest.Assets.Files = map[string]string{vanilla.StylesheetAsset: vanilla.StylesheetName}
	}
	return vanilla.ThemeConfig(manifest, cfg.Theme.Variant)
}
