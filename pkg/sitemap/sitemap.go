// Package sitemap holds the site-map model: vertices in map space and the
// lanes and walls that connect them. Maps are decoded from YAML or JSON
// documents, validated, and only then handed out; a SiteMap is read-only
// once returned.
package sitemap

import (
	"errors"
	"fmt"

	"github.com/taigrr/siteview/pkg/math3d"
)

// ErrInvalidMapData reports a malformed or inconsistent map document or
// model. Every structural failure wraps it.
var ErrInvalidMapData = errors.New("invalid map data")

// Vertex is a point in map space. Y grows upward; documents store it
// growing downward and the sign is flipped at load.
type Vertex struct {
	Position math3d.Vec2
	Name     string
	Level    string
}

// Edge joins two vertices by index into SiteMap.Vertices.
type Edge struct {
	Start int
	End   int
	Level string
}

// SiteMap is a flattened site map.
type SiteMap struct {
	Name   string
	Source string
	// Levels lists level names in the order their vertices were appended.
	Levels   []string
	Vertices []Vertex
	Lanes    []Edge
	Walls    []Edge
}

// Validate checks every lane and wall against the vertex sequence.
func (m *SiteMap) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil site map", ErrInvalidMapData)
	}
	if err := checkEdges("lane", m.Lanes, len(m.Vertices)); err != nil {
		return err
	}
	return checkEdges("wall", m.Walls, len(m.Vertices))
}

func checkEdges(kind string, edges []Edge, n int) error {
	for i, e := range edges {
		if e.Start < 0 || e.Start >= n || e.End < 0 || e.End >= n {
			return fmt.Errorf("%w: %s %d (%d, %d) out of range for %d vertices",
				ErrInvalidMapData, kind, i, e.Start, e.End, n)
		}
	}
	return nil
}

// Centroid returns the arithmetic mean of all vertex positions.
func (m *SiteMap) Centroid() (math3d.Vec2, error) {
	if len(m.Vertices) == 0 {
		return math3d.Vec2{}, fmt.Errorf("%w: no vertices", ErrInvalidMapData)
	}
	var sum math3d.Vec2
	for _, v := range m.Vertices {
		sum = sum.Add(v.Position)
	}
	return sum.Scale(1 / float64(len(m.Vertices))), nil
}

// Endpoints returns the positions of an edge's two vertices. The edge must
// already be validated.
func (m *SiteMap) Endpoints(e Edge) (math3d.Vec2, math3d.Vec2) {
	return m.Vertices[e.Start].Position, m.Vertices[e.End].Position
}

// Stats is a short summary used in logs and the HUD.
type Stats struct {
	Levels   int
	Vertices int
	Lanes    int
	Walls    int
}

func (m *SiteMap) Stats() Stats {
	return Stats{
		Levels:   len(m.Levels),
		Vertices: len(m.Vertices),
		Lanes:    len(m.Lanes),
		Walls:    len(m.Walls),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d levels, %d vertices, %d lanes, %d walls", s.Levels, s.Vertices, s.Lanes, s.Walls)
}
