package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/goliatone/go-predictform/pkg/model"
	pkgopenapi "github.com/goliatone/go-predictform/pkg/openapi"
	"github.com/goliatone/go-predictform/pkg/orchestrator"
	"github.com/goliatone/go-predictform/pkg/render"
)

const snapshotRendererName = "form-model-snapshot"

type snapshotRenderer struct {
	path string
}

func (r *snapshotRenderer) Name() string {
	return snapshotRendererName
}

func (r *snapshotRenderer) ContentType() string {
	return "application/json"
}

func (r *snapshotRenderer) Render(_ context.Context, form model.FormModel, _ render.RenderOptions) ([]byte, error) {
	payload, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(r.path, payload, 0o644); err != nil {
		return nil, err
	}
	return payload, nil
}

func main() {
	var (
		contractPath = flag.String("contract", "", "OpenAPI contract path (bundled contract when empty)")
		outputPath   = flag.String("output", "pkg/openapi/testdata/predict_form.json", "output path for the serialized form model")
	)
	flag.Parse()

	registry, err := render.NewRegistry(&snapshotRenderer{path: *outputPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build registry: %v\n", err)
		os.Exit(1)
	}

	opts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(snapshotRendererName),
	}
	if *contractPath != "" {
		opts = append(opts, orchestrator.WithSource(pkgopenapi.SourceFromFile(*contractPath)))
	}

	if _, err := orchestrator.New(opts...).Generate(context.Background(), orchestrator.Request{}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to snapshot form model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("form model written to %s\n", *outputPath)
}
