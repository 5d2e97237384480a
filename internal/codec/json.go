package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"tincgraph/internal/domain"
)

// JSONCodec handles the JSON snapshot read by the web front-end
type JSONCodec struct {
	indent bool
}

// NewJSONCodec creates a compact JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// NewIndentedJSONCodec creates a JSON codec that pretty-prints
func NewIndentedJSONCodec() *JSONCodec {
	return &JSONCodec{indent: true}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the HTTP content type of the encoding
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse reads a graph snapshot
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	graph := domain.NewGraph()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(graph); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if graph.Nodes == nil {
		graph.Nodes = make([]domain.Node, 0)
	}
	if graph.Links == nil {
		graph.Links = make([]domain.Link, 0)
	}
	return graph, nil
}

// Export writes a graph snapshot
func (c *JSONCodec) Export(graph *domain.Graph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if c.indent {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
