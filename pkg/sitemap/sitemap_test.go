package sitemap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/siteview/pkg/math3d"
)

const triangleYAML = `
name: triangle
levels:
  L1:
    vertices:
      - [0, 0, 0, "A"]
      - [10, 0, 0, "B"]
      - [10, 10, 0, "C"]
    lanes:
      - [0, 1]
    walls:
      - [1, 2]
`

func TestLoadYAML(t *testing.T) {
	m, err := Load(strings.NewReader(triangleYAML), "triangle.yaml", IndexLevelRelative)
	require.NoError(t, err)

	assert.Equal(t, "triangle", m.Name)
	assert.Equal(t, "triangle.yaml", m.Source)
	assert.Equal(t, []string{"L1"}, m.Levels)
	require.Len(t, m.Vertices, 3)
	assert.Equal(t, Vertex{Position: math3d.V2(10, -10), Name: "C", Level: "L1"}, m.Vertices[2])
	assert.Equal(t, []Edge{{Start: 0, End: 1, Level: "L1"}}, m.Lanes)
	assert.Equal(t, []Edge{{Start: 1, End: 2, Level: "L1"}}, m.Walls)
}

func TestLoadJSON(t *testing.T) {
	const doc = `{"name": "j", "levels": {"g": {"vertices": [[1.5, 2, "a"], [3, 4, 0.5, "b", {"x": 1}]], "lanes": [[0, 1, {"speed": 2}]]}}}`

	m, err := Load(strings.NewReader(doc), "j.json", IndexLevelRelative)
	require.NoError(t, err)

	require.Len(t, m.Vertices, 2)
	assert.Equal(t, math3d.V2(1.5, -2), m.Vertices[0].Position)
	assert.Equal(t, "a", m.Vertices[0].Name)
	assert.Equal(t, "b", m.Vertices[1].Name)
	assert.Len(t, m.Lanes, 1)
	assert.Empty(t, m.Walls)
}

func TestDecodeRowFields(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
levels:
  L1:
    vertices:
      - [1, 2, 3.5, "named", {k: v}]
      - [4, 5]
    lanes: [[0, 1, {bidirectional: true}]]
`))
	require.NoError(t, err)

	rows := doc.Levels["L1"].Vertices
	require.Len(t, rows, 2)
	assert.Equal(t, VertexRow{X: 1, Y: 2, Z: 3.5, Name: "named", Params: map[string]any{"k": "v"}}, rows[0])
	assert.Equal(t, VertexRow{X: 4, Y: 5}, rows[1])
	assert.Equal(t, EdgeRow{Start: 0, End: 1, Params: map[string]any{"bidirectional": true}}, doc.Levels["L1"].Lanes[0])
}

func TestDecodeVertexExtraFields(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
levels:
  L1:
    vertices:
      - [0, 0, 0, 5, "A"]
      - [1, 2, 3, 4.5, true, "B", {k: v}]
      - [7, 8, "first", 9, "last"]
    lanes: [[0, 1]]
`))
	require.NoError(t, err)

	rows := doc.Levels["L1"].Vertices
	require.Len(t, rows, 3)
	assert.Equal(t, VertexRow{Name: "A", Extra: []any{5}}, rows[0])
	assert.Equal(t, VertexRow{X: 1, Y: 2, Z: 3, Name: "B", Extra: []any{4.5, true}, Params: map[string]any{"k": "v"}}, rows[1])
	assert.Equal(t, VertexRow{X: 7, Y: 8, Name: "last", Extra: []any{9}}, rows[2])

	m, err := Load(strings.NewReader("levels: {L1: {vertices: [[0, 0, 0, 5, \"A\"], [3, 4]], lanes: [[0, 1]]}}"), "extra", IndexLevelRelative)
	require.NoError(t, err)
	assert.Equal(t, "A", m.Vertices[0].Name)
	assert.Equal(t, math3d.V2(3, -4), m.Vertices[1].Position)
}

func TestNameFallsBackToSource(t *testing.T) {
	m, err := Load(strings.NewReader("levels: {L: {vertices: [[0, 0]], lanes: []}}"), "site.yaml", IndexGlobal)
	require.NoError(t, err)
	assert.Equal(t, "site.yaml", m.Name)
}

func TestInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"syntax", "levels: [unterminated"},
		{"no levels", "name: x"},
		{"missing vertices", "levels: {L1: {lanes: []}}"},
		{"missing lanes", "levels: {L1: {vertices: [[0, 0], [1, 1]]}}"},
		{"null lanes", "levels: {L1: {vertices: [[0, 0], [1, 1]], lanes: ~}}"},
		{"null level", "levels: {L1: }"},
		{"vertex not a list", "levels: {L1: {vertices: [5]}}"},
		{"vertex too short", "levels: {L1: {vertices: [[1]]}}"},
		{"non-numeric coordinate", `levels: {L1: {vertices: [["a", 1]]}}`},
		{"non-finite coordinate", `levels: {L1: {vertices: [[.nan, 1]]}}`},
		{"edge arity", "levels: {L1: {vertices: [[0, 0]], lanes: [[0]]}}"},
		{"edge float index", "levels: {L1: {vertices: [[0, 0], [1, 1]], lanes: [[0, 1.5]]}}"},
		{"edge bad params", "levels: {L1: {vertices: [[0, 0], [1, 1]], lanes: [], walls: [[0, 1, 2]]}}"},
		{"lane out of range", "levels: {L1: {vertices: [[0, 0], [1, 1]], lanes: [[0, 2]]}}"},
		{"wall negative", "levels: {L1: {vertices: [[0, 0], [1, 1]], lanes: [], walls: [[-1, 0]]}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(strings.NewReader(tt.doc), "bad", IndexLevelRelative)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrInvalidMapData), "got %v", err)
		})
	}
}

const twoLevelYAML = `
levels:
  B:
    vertices: [[100, 0], [200, 0]]
    lanes: [[0, 1]]
  A:
    vertices: [[0, 0], [10, 0], [20, 0]]
    lanes: [[1, 2]]
`

func TestMultiLevelOffsetsIndices(t *testing.T) {
	m, err := Load(strings.NewReader(twoLevelYAML), "two", IndexLevelRelative)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, m.Levels)
	require.Len(t, m.Vertices, 5)
	assert.Equal(t, "B", m.Vertices[3].Level)
	assert.Equal(t, []Edge{
		{Start: 1, End: 2, Level: "A"},
		{Start: 3, End: 4, Level: "B"},
	}, m.Lanes)

	a, b := m.Endpoints(m.Lanes[1])
	assert.Equal(t, math3d.V2(100, 0), a)
	assert.Equal(t, math3d.V2(200, 0), b)
}

func TestMultiLevelGlobalIndices(t *testing.T) {
	m, err := Load(strings.NewReader(twoLevelYAML), "two", IndexGlobal)
	require.NoError(t, err)

	assert.Equal(t, []Edge{
		{Start: 1, End: 2, Level: "A"},
		{Start: 0, End: 1, Level: "B"},
	}, m.Lanes)
}

func TestGlobalIndicesCheckedAgainstAllVertices(t *testing.T) {
	// index 3 is out of range within level A but valid once B is flattened
	doc := `
levels:
  A: {vertices: [[0, 0], [1, 0]], lanes: [[0, 3]]}
  B: {vertices: [[2, 0], [3, 0]], lanes: []}
`
	_, err := Load(strings.NewReader(doc), "g", IndexGlobal)
	require.NoError(t, err)

	_, err = Load(strings.NewReader(doc), "g", IndexLevelRelative)
	require.ErrorIs(t, err, ErrInvalidMapData)
}

func TestValidate(t *testing.T) {
	m := &SiteMap{
		Vertices: []Vertex{{}, {}},
		Lanes:    []Edge{{Start: 0, End: 1}},
	}
	require.NoError(t, m.Validate())

	m.Walls = []Edge{{Start: 1, End: 2}}
	require.ErrorIs(t, m.Validate(), ErrInvalidMapData)

	var nilMap *SiteMap
	require.ErrorIs(t, nilMap.Validate(), ErrInvalidMapData)
}

func TestCentroid(t *testing.T) {
	m := &SiteMap{Vertices: []Vertex{
		{Position: math3d.V2(0, 0)},
		{Position: math3d.V2(10, 0)},
		{Position: math3d.V2(10, 10)},
	}}
	c, err := m.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 20.0/3, c.X, 1e-12)
	assert.InDelta(t, 10.0/3, c.Y, 1e-12)

	_, err = (&SiteMap{}).Centroid()
	require.ErrorIs(t, err, ErrInvalidMapData)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(triangleYAML), 0o644))

	m, err := LoadFile(path, IndexLevelRelative)
	require.NoError(t, err)
	assert.Equal(t, path, m.Source)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), IndexLevelRelative)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidMapData))
}

func TestDemo(t *testing.T) {
	m, err := Demo()
	require.NoError(t, err)

	assert.Equal(t, "demo warehouse", m.Name)
	assert.Equal(t, DemoSource, m.Source)
	assert.Equal(t, Stats{Levels: 2, Vertices: 16, Lanes: 8, Walls: 8}, m.Stats())
	assert.Equal(t, "2 levels, 16 vertices, 8 lanes, 8 walls", m.Stats().String())

	// mezzanine lane is offset past the ground floor's twelve vertices
	last := m.Lanes[len(m.Lanes)-1]
	assert.Equal(t, Edge{Start: 12, End: 14, Level: "L2"}, last)

	doc := DemoDocument()
	doc[0] = '#'
	again, err := Demo()
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestParseIndexing(t *testing.T) {
	for in, want := range map[string]Indexing{"": IndexLevelRelative, "level": IndexLevelRelative, "Global": IndexGlobal} {
		got, err := ParseIndexing(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseIndexing("sideways")
	require.Error(t, err)
	assert.Equal(t, "global", IndexGlobal.String())
}
