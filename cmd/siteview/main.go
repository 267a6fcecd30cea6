// siteview - Terminal Site Map Viewer
// View warehouse site maps (vertices, lanes and walls) in your terminal as a
// 3D scene, with an orthographic plan view and a perspective orbit view.
//
// Controls:
//
//	Left drag   - Pan
//	Right drag  - Orbit (perspective)
//	Scroll      - Zoom in/out
//	2 / 3       - Orthographic / perspective projection
//	+/-         - Zoom
//	F           - Fit the map in view
//	R           - Reload the map file
//	E           - Export the scene as GLB
//	S           - Save a PNG snapshot
//	X           - Toggle wireframe mode
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/taigrr/siteview/pkg/config"
	"github.com/taigrr/siteview/pkg/logging"
	"github.com/taigrr/siteview/pkg/models"
	"github.com/taigrr/siteview/pkg/scene"
	"github.com/taigrr/siteview/pkg/session"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	targetFPS  = flag.Int("fps", 0, "Target FPS (overrides config)")
	bgColor    = flag.String("bg", "", "Background color R,G,B (overrides config)")
	indexing   = flag.String("indexing", "", "Level edge indexing: level or global (overrides config)")
	logPath    = flag.String("log", "", "Write logs to this file")
	exportPath = flag.String("export", "", "Build the scene, write it to this GLB file and exit")
	outPath    = flag.String("out", "siteview.glb", "File written by the E key")
	startMode  = flag.String("mode", "", "Start projection: ortho or perspective (overrides config)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "siteview - Terminal Site Map Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: siteview [options] <map.yaml|map.json|scene.glb|demo>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Left drag   - Pan\n")
		fmt.Fprintf(os.Stderr, "  Right drag  - Orbit (perspective)\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom\n")
		fmt.Fprintf(os.Stderr, "  2 / 3       - Orthographic / perspective\n")
		fmt.Fprintf(os.Stderr, "  F           - Fit map in view\n")
		fmt.Fprintf(os.Stderr, "  R           - Reload map\n")
		fmt.Fprintf(os.Stderr, "  E           - Export GLB\n")
		fmt.Fprintf(os.Stderr, "  S           - PNG snapshot\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flags that were set.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return config.Config{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			cfg.Viewer.FPS = *targetFPS
		case "bg":
			cfg.Viewer.Background = *bgColor
		case "indexing":
			cfg.Scene.Indexing = *indexing
		case "log":
			cfg.Log.Outputs = []string{*logPath}
		case "mode":
			cfg.Camera.StartMode = *startMode
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, source string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	idx, err := cfg.Scene.IndexingMode()
	if err != nil {
		return err
	}
	sess := session.New(cfg.Scene.Options(), idx, logger)

	var mesh *models.Mesh
	switch ext := strings.ToLower(filepath.Ext(source)); {
	case source == "demo":
		_, err = sess.LoadDemo()
	case ext == ".glb" || ext == ".gltf":
		mesh, err = models.LoadGLB(source)
		if err == nil {
			mesh.Transform(scene.ZUp())
		}
	default:
		_, err = sess.LoadFile(source)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}

	if *exportPath != "" {
		return export(sess, *exportPath, logger)
	}

	v, err := newViewer(cfg, sess, mesh, filepath.Base(source), logger)
	if err != nil {
		return err
	}
	return v.Run(ctx)
}

func export(sess *session.Session, path string, logger *zap.Logger) error {
	st := sess.Current()
	if st == nil {
		return errors.New("export: only site maps can be exported")
	}
	if err := scene.ExportGLB(path, st.Scene); err != nil {
		return err
	}
	logger.Info("scene exported", zap.String("path", path), zap.Stringer("load_id", st.ID))
	fmt.Printf("Exported %s: %d placements (%s) to %s\n", st.Map.Name, len(st.Scene.Placements), st.Map.Stats(), path)
	return nil
}
