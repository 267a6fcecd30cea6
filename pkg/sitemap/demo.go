package sitemap

import (
	"bytes"
	_ "embed"
)

//go:embed demo.yaml
var demoYAML []byte

// DemoSource is the source identifier of the built-in demo map.
const DemoSource = "demo"

// DemoDocument returns the raw built-in demo document.
func DemoDocument() []byte {
	return bytes.Clone(demoYAML)
}

// Demo returns the built-in demo map: a small warehouse floor with a lane
// loop and a mezzanine level.
func Demo() (*SiteMap, error) {
	return Load(bytes.NewReader(demoYAML), DemoSource, IndexLevelRelative)
}
