// Package codec encodes and decodes graph snapshots.
package codec

import (
	"io"

	"tincgraph/internal/domain"
)

// Importer interface for reading a graph snapshot back
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter interface for writing a graph snapshot in some format
type Exporter interface {
	Export(graph *domain.Graph, w io.Writer) error
	Format() string
	ContentType() string
}

// Exporters returns every available exporter keyed by format
func Exporters() map[string]Exporter {
	json := NewJSONCodec()
	yaml := NewYAMLCodec()
	return map[string]Exporter{
		json.Format(): json,
		yaml.Format(): yaml,
	}
}
