package openapi

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
)

const embeddedContractName = "predict.yaml"

//go:embed predict.yaml
var contractFS embed.FS

// LoadDocument reads the document behind src.
func LoadDocument(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindEmbedded:
		data, err = contractFS.ReadFile(embeddedContractName)
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	default:
		err = fmt.Errorf("unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("openapi loader: read %s: %w", src.Location(), err)
	}

	return NewDocument(src, data)
}

// EmbeddedDocument returns the bundled prediction contract.
func EmbeddedDocument() []byte {
	data, err := contractFS.ReadFile(embeddedContractName)
	if err != nil {
		panic(err)
	}
	return data
}
