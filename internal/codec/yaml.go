package codec

import (
	"fmt"
	"io"

	"tincgraph/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports a readable YAML rendition of the graph for operators
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the HTTP content type of the encoding
func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// yamlGraph uses descriptive keys instead of the front-end's short JSON names
type yamlGraph struct {
	Nodes []yamlNode `yaml:"nodes"`
	Links []yamlLink `yaml:"links"`
}

type yamlNode struct {
	Index   int      `yaml:"index"`
	Name    string   `yaml:"name"`
	Degree  int      `yaml:"degree"`
	Subnets []string `yaml:"subnets,omitempty"`
}

type yamlLink struct {
	Source    string  `yaml:"source"`
	Target    string  `yaml:"target"`
	Pair      string  `yaml:"pair"`
	Weight    uint64  `yaml:"weight"`
	Reachable bool    `yaml:"reachable"`
	Strength  float64 `yaml:"strength"`
}

// Parse reads a graph written by Export.
// Indices and pair keys are restored; Live is set on every node since only live nodes are exported.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var yg yamlGraph
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	graph := domain.NewGraph()
	index := make(map[string]int, len(yg.Nodes))

	for _, yn := range yg.Nodes {
		subnets := yn.Subnets
		if subnets == nil {
			subnets = []string{}
		}
		graph.Nodes = append(graph.Nodes, domain.Node{
			ID:      yn.Index,
			Index:   yn.Index,
			Live:    1,
			Name:    yn.Name,
			Degree:  yn.Degree,
			Subnets: subnets,
		})
		index[yn.Name] = yn.Index
	}

	for _, yl := range yg.Links {
		link := domain.Link{
			SourceName: yl.Source,
			TargetName: yl.Target,
			Source:     index[yl.Source],
			Target:     index[yl.Target],
			Weight:     yl.Weight,
			Strength:   yl.Strength,
			PairKey:    yl.Pair,
		}
		if yl.Reachable {
			link.Reachable = 1
		}
		graph.Links = append(graph.Links, link)
	}

	return graph, nil
}

// Export writes the graph as YAML
func (c *YAMLCodec) Export(graph *domain.Graph, w io.Writer) error {
	yg := yamlGraph{
		Nodes: make([]yamlNode, 0, len(graph.Nodes)),
		Links: make([]yamlLink, 0, len(graph.Links)),
	}

	for _, node := range graph.Nodes {
		yg.Nodes = append(yg.Nodes, yamlNode{
			Index:   node.Index,
			Name:    node.Name,
			Degree:  node.Degree,
			Subnets: node.Subnets,
		})
	}

	for _, link := range graph.Links {
		yg.Links = append(yg.Links, yamlLink{
			Source:    link.SourceName,
			Target:    link.TargetName,
			Pair:      link.PairKey,
			Weight:    link.Weight,
			Reachable: link.Reachable == 1,
			Strength:  link.Strength,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
