package sitemap

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

// Document is the decoded form of a site-map file. JSON is valid YAML, so
// one decoder serves both.
type Document struct {
	Name   string            `yaml:"name" json:"name"`
	Levels map[string]*Level `yaml:"levels" json:"levels"`
}

// Level is one floor of a site.
type Level struct {
	Vertices []VertexRow `yaml:"vertices" json:"vertices"`
	Lanes    []EdgeRow   `yaml:"lanes" json:"lanes"`
	Walls    []EdgeRow   `yaml:"walls,omitempty" json:"walls,omitempty"`
}

// VertexRow is a vertex as stored in a document:
//
//	[x, y, fields..., name?, params?]
//
// The first numeric field is z; any further scalars land in Extra. The last
// string is the name. Y grows downward.
type VertexRow struct {
	X, Y   float64
	Z      float64
	Name   string
	Extra  []any
	Params map[string]any
}

// EdgeRow is a lane or wall as stored in a document:
//
//	[start, end, params?]
type EdgeRow struct {
	Start, End int
	Params     map[string]any
}

// Decode reads one site-map document. Any decode failure is reported as
// ErrInvalidMapData.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode site map: %w: empty document", ErrInvalidMapData)
		}
		if errors.Is(err, ErrInvalidMapData) {
			return nil, fmt.Errorf("decode site map: %w", err)
		}
		return nil, fmt.Errorf("decode site map: %w: %w", ErrInvalidMapData, err)
	}
	return &doc, nil
}

func (v *VertexRow) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return rowError(node, "vertex must be a list")
	}
	if len(node.Content) < 2 {
		return rowError(node, "vertex needs x and y")
	}

	var row VertexRow
	var err error
	if row.X, err = number(node.Content[0]); err != nil {
		return err
	}
	if row.Y, err = number(node.Content[1]); err != nil {
		return err
	}

	haveZ := false
	for _, n := range node.Content[2:] {
		switch {
		case isNumber(n) && !haveZ && row.Name == "":
			if row.Z, err = number(n); err != nil {
				return err
			}
			haveZ = true
		case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str":
			row.Name = n.Value
		case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null":
		case n.Kind == yaml.ScalarNode:
			var field any
			if err := n.Decode(&field); err != nil {
				return rowError(n, err.Error())
			}
			row.Extra = append(row.Extra, field)
		case n.Kind == yaml.MappingNode:
			if err := n.Decode(&row.Params); err != nil {
				return rowError(n, err.Error())
			}
		default:
			return rowError(n, "unexpected vertex field "+n.Value)
		}
	}

	*v = row
	return nil
}

func (e *EdgeRow) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return rowError(node, "edge must be a list")
	}
	if len(node.Content) < 2 || len(node.Content) > 3 {
		return rowError(node, "edge needs start and end")
	}

	var row EdgeRow
	for i, dst := range []*int{&row.Start, &row.End} {
		n := node.Content[i]
		if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
			return rowError(n, "edge index must be an integer")
		}
		if err := n.Decode(dst); err != nil {
			return rowError(n, err.Error())
		}
	}
	if len(node.Content) == 3 {
		n := node.Content[2]
		if n.Kind != yaml.MappingNode {
			return rowError(n, "edge params must be a mapping")
		}
		if err := n.Decode(&row.Params); err != nil {
			return rowError(n, err.Error())
		}
	}

	*e = row
	return nil
}

func isNumber(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode {
		return false
	}
	tag := n.ShortTag()
	return tag == "!!int" || tag == "!!float"
}

func number(n *yaml.Node) (float64, error) {
	if !isNumber(n) {
		return 0, rowError(n, fmt.Sprintf("%q is not a number", n.Value))
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return 0, rowError(n, err.Error())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, rowError(n, "coordinate must be finite")
	}
	return f, nil
}

func rowError(n *yaml.Node, msg string) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidMapData, n.Line, msg)
}
