package openapi

import "path/filepath"

// Source identifies where a contract document originated.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindEmbedded SourceKind = "embedded"
	SourceKindFile     SourceKind = "file"
)

// embeddedSource points at the contract compiled into the binary.
type embeddedSource struct{}

func (embeddedSource) Location() string {
	return embeddedContractName
}

func (embeddedSource) Kind() SourceKind {
	return SourceKindEmbedded
}

// SourceEmbedded returns the Source for the bundled prediction contract.
func SourceEmbedded() Source {
	return embeddedSource{}
}

// fileSource identifies on-disk contract documents.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}
