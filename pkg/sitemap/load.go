package sitemap

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/taigrr/siteview/pkg/math3d"
)

// Indexing selects how edge indices of multi-level documents are resolved.
type Indexing int

const (
	// IndexLevelRelative treats edge indices as positions within their own
	// level and offsets them by the vertices of all earlier levels.
	IndexLevelRelative Indexing = iota
	// IndexGlobal uses edge indices unchanged against the flattened vertex
	// sequence. Single-level documents resolve identically either way.
	IndexGlobal
)

func (i Indexing) String() string {
	if i == IndexGlobal {
		return "global"
	}
	return "level"
}

// ParseIndexing accepts "level" (or "") and "global".
func ParseIndexing(s string) (Indexing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "level", "level-relative":
		return IndexLevelRelative, nil
	case "global":
		return IndexGlobal, nil
	default:
		return 0, fmt.Errorf("unknown level indexing %q", s)
	}
}

// Load decodes and validates a site map. Nothing is returned unless the
// whole document is valid.
func Load(r io.Reader, source string, idx Indexing) (*SiteMap, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("load site map %s: %w", source, err)
	}
	m, err := FromDocument(doc, source, idx)
	if err != nil {
		return nil, fmt.Errorf("load site map %s: %w", source, err)
	}
	return m, nil
}

// LoadFile loads a site map from a YAML or JSON file.
func LoadFile(path string, idx Indexing) (*SiteMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site map: %w", err)
	}
	defer f.Close()
	return Load(f, path, idx)
}

// FromDocument flattens the levels of doc into one SiteMap. Levels are
// visited in name order and vertex Y is negated.
func FromDocument(doc *Document, source string, idx Indexing) (*SiteMap, error) {
	if doc == nil || len(doc.Levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidMapData)
	}

	m := &SiteMap{Name: doc.Name, Source: source}
	if m.Name == "" {
		m.Name = source
	}

	names := make([]string, 0, len(doc.Levels))
	for name := range doc.Levels {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		lvl := doc.Levels[name]
		if lvl == nil || lvl.Vertices == nil {
			return nil, fmt.Errorf("%w: level %q has no vertices list", ErrInvalidMapData, name)
		}
		if lvl.Lanes == nil {
			return nil, fmt.Errorf("%w: level %q has no lanes list", ErrInvalidMapData, name)
		}

		offset := len(m.Vertices)
		for _, row := range lvl.Vertices {
			m.Vertices = append(m.Vertices, Vertex{
				Position: math3d.V2(row.X, -row.Y),
				Name:     row.Name,
				Level:    name,
			})
		}

		lanes, err := resolveEdges(name, "lane", lvl.Lanes, offset, len(lvl.Vertices), idx)
		if err != nil {
			return nil, err
		}
		walls, err := resolveEdges(name, "wall", lvl.Walls, offset, len(lvl.Vertices), idx)
		if err != nil {
			return nil, err
		}
		m.Lanes = append(m.Lanes, lanes...)
		m.Walls = append(m.Walls, walls...)
		m.Levels = append(m.Levels, name)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func resolveEdges(level, kind string, rows []EdgeRow, offset, count int, idx Indexing) ([]Edge, error) {
	edges := make([]Edge, 0, len(rows))
	for i, row := range rows {
		e := Edge{Start: row.Start, End: row.End, Level: level}
		if idx == IndexLevelRelative {
			if row.Start < 0 || row.Start >= count || row.End < 0 || row.End >= count {
				return nil, fmt.Errorf("%w: level %q %s %d (%d, %d) out of range for %d vertices",
					ErrInvalidMapData, level, kind, i, row.Start, row.End, count)
			}
			e.Start += offset
			e.End += offset
		}
		edges = append(edges, e)
	}
	return edges, nil
}
