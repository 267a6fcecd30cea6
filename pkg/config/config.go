// Package config loads the viewer's YAML configuration and maps it onto the
// camera, scene and logging options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/siteview/pkg/camera"
	"github.com/taigrr/siteview/pkg/logging"
	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/scene"
	"github.com/taigrr/siteview/pkg/sitemap"
)

// Config is the whole configuration file.
type Config struct {
	Camera CameraConfig   `yaml:"camera"`
	Scene  SceneConfig    `yaml:"scene"`
	Viewer ViewerConfig   `yaml:"viewer"`
	Log    logging.Config `yaml:"log"`
}

// CameraConfig sets up the controller and both projections.
type CameraConfig struct {
	OrthoScale      float64 `yaml:"ortho_scale"`
	StartHeight     float64 `yaml:"start_height"`
	FOVDegrees      float64 `yaml:"fov_degrees"`
	OrthoNear       float64 `yaml:"ortho_near"`
	OrthoFar        float64 `yaml:"ortho_far"`
	PerspectiveNear float64 `yaml:"perspective_near"`
	PerspectiveFar  float64 `yaml:"perspective_far"`
	Scroll          string  `yaml:"scroll"` // raw or stepped
	FitToMap        bool    `yaml:"fit_to_map"`
	StartMode       string  `yaml:"start_mode"` // ortho or perspective
}

// SceneConfig holds the geometric constants of scene construction.
type SceneConfig struct {
	Scale         float64 `yaml:"scale"`
	LaneWidth     float64 `yaml:"lane_width"`
	LaneZBase     float64 `yaml:"lane_z_base"`
	LaneZStep     float64 `yaml:"lane_z_step"`
	WallThickness float64 `yaml:"wall_thickness"`
	WallHeight    float64 `yaml:"wall_height"`
	MarkerRadius  float64 `yaml:"marker_radius"`
	MarkerDepth   float64 `yaml:"marker_depth"`
	Indexing      string  `yaml:"indexing"` // level or global
}

// ViewerConfig holds terminal host settings.
type ViewerConfig struct {
	FPS        int       `yaml:"fps"`
	Background string    `yaml:"background"` // R,G,B
	Wireframe  bool      `yaml:"wireframe"`
	ShowHUD    bool      `yaml:"show_hud"`
	Light      []float64 `yaml:"light"` // direction toward the light
}

// Default returns the configuration used when no file is given.
func Default() Config {
	ortho := camera.DefaultOrthographic()
	persp := camera.DefaultPerspective()
	opts := camera.DefaultOptions()
	so := scene.DefaultOptions()

	return Config{
		Camera: CameraConfig{
			OrthoScale:      opts.OrthoScale,
			StartHeight:     opts.Home.Z,
			FOVDegrees:      persp.FOV * 180 / math.Pi,
			OrthoNear:       ortho.Near,
			OrthoFar:        ortho.Far,
			PerspectiveNear: persp.Near,
			PerspectiveFar:  persp.Far,
			Scroll:          "raw",
			FitToMap:        true,
			StartMode:       "ortho",
		},
		Scene: SceneConfig{
			Scale:         so.Scale,
			LaneWidth:     so.LaneWidth,
			LaneZBase:     so.LaneZBase,
			LaneZStep:     so.LaneZStep,
			WallThickness: so.WallThickness,
			WallHeight:    so.WallHeight,
			MarkerRadius:  so.MarkerRadius,
			MarkerDepth:   so.MarkerDepth,
			Indexing:      sitemap.IndexLevelRelative.String(),
		},
		Viewer: ViewerConfig{
			FPS:        60,
			Background: "30,30,40",
			ShowHUD:    true,
			Light:      []float64{0.3, 0.5, 1},
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}

	positive("camera.ortho_scale", c.Camera.OrthoScale)
	positive("camera.start_height", c.Camera.StartHeight)
	if !(c.Camera.FOVDegrees > 0 && c.Camera.FOVDegrees < 180) {
		errs = append(errs, fmt.Errorf("camera.fov_degrees must be in (0, 180), got %v", c.Camera.FOVDegrees))
	}
	if c.Camera.OrthoNear >= c.Camera.OrthoFar {
		errs = append(errs, fmt.Errorf("camera.ortho_near %v must be below ortho_far %v", c.Camera.OrthoNear, c.Camera.OrthoFar))
	}
	if c.Camera.PerspectiveNear <= 0 || c.Camera.PerspectiveNear >= c.Camera.PerspectiveFar {
		errs = append(errs, fmt.Errorf("camera.perspective_near %v must be in (0, perspective_far %v)", c.Camera.PerspectiveNear, c.Camera.PerspectiveFar))
	}
	if _, err := c.Camera.normalizer(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Camera.Mode(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Scene.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scene: %w", err))
	}
	if _, err := c.Scene.IndexingMode(); err != nil {
		errs = append(errs, fmt.Errorf("scene: %w", err))
	}

	if c.Viewer.FPS < 1 || c.Viewer.FPS > 240 {
		errs = append(errs, fmt.Errorf("viewer.fps must be in [1, 240], got %d", c.Viewer.FPS))
	}
	if _, err := ParseRGB(c.Viewer.Background); err != nil {
		errs = append(errs, fmt.Errorf("viewer.background: %w", err))
	}
	if _, err := c.Viewer.LightDir(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c CameraConfig) normalizer() (camera.ScrollNormalizer, error) {
	switch c.Scroll {
	case "", "raw":
		return camera.RawScroll, nil
	case "stepped":
		return camera.SteppedScroll, nil
	default:
		return nil, fmt.Errorf("camera.scroll %q: want raw or stepped", c.Scroll)
	}
}

// Mode parses the projection the viewer starts in.
func (c CameraConfig) Mode() (camera.Mode, error) {
	switch strings.ToLower(c.StartMode) {
	case "", "ortho", "orthographic":
		return camera.Orthographic, nil
	case "perspective":
		return camera.Perspective, nil
	default:
		return 0, fmt.Errorf("camera.start_mode %q: want ortho or perspective", c.StartMode)
	}
}

// ControllerOptions returns the controller setup. The camera starts
// StartHeight above the origin and orbits at that radius.
func (c CameraConfig) ControllerOptions() (camera.Options, error) {
	scroll, err := c.normalizer()
	if err != nil {
		return camera.Options{}, err
	}
	return camera.Options{
		Home:        math3d.V3(0, 0, c.StartHeight),
		OrthoScale:  c.OrthoScale,
		OrbitRadius: c.StartHeight,
		Scroll:      scroll,
	}, nil
}

// ApplyProjection copies clip planes and field of view into p.
func (c CameraConfig) ApplyProjection(p *camera.Projection) {
	p.Orthographic.Near, p.Orthographic.Far = c.OrthoNear, c.OrthoFar
	p.Perspective.Near, p.Perspective.Far = c.PerspectiveNear, c.PerspectiveFar
	p.Perspective.FOV = c.FOVDegrees * math.Pi / 180
}

// Options returns scene options with the default materials.
func (s SceneConfig) Options() scene.Options {
	o := scene.DefaultOptions()
	o.Scale = s.Scale
	o.LaneWidth = s.LaneWidth
	o.LaneZBase = s.LaneZBase
	o.LaneZStep = s.LaneZStep
	o.WallThickness = s.WallThickness
	o.WallHeight = s.WallHeight
	o.MarkerRadius = s.MarkerRadius
	o.MarkerDepth = s.MarkerDepth
	return o
}

// IndexingMode parses the level indexing setting.
func (s SceneConfig) IndexingMode() (sitemap.Indexing, error) {
	return sitemap.ParseIndexing(s.Indexing)
}

// LightDir returns the normalized light direction.
func (v ViewerConfig) LightDir() (math3d.Vec3, error) {
	if len(v.Light) != 3 {
		return math3d.Vec3{}, fmt.Errorf("viewer.light needs 3 components, got %d", len(v.Light))
	}
	d := math3d.V3(v.Light[0], v.Light[1], v.Light[2])
	if !(d.LenSq() > 0) || math.IsInf(d.LenSq(), 0) {
		return math3d.Vec3{}, fmt.Errorf("viewer.light must be a finite non-zero vector, got %v", v.Light)
	}
	return d.Normalize(), nil
}

// ParseRGB parses "R,G,B" with components in [0, 255].
func ParseRGB(s string) ([3]uint8, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]uint8{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return [3]uint8{}, fmt.Errorf("color %q: %w", s, err)
		}
		rgb[i] = uint8(v)
	}
	return rgb, nil
}
