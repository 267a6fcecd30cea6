package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sync/atomic"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/siteview/pkg/camera"
	"github.com/taigrr/siteview/pkg/config"
	"github.com/taigrr/siteview/pkg/input"
	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
	"github.com/taigrr/siteview/pkg/render"
	"github.com/taigrr/siteview/pkg/scene"
	"github.com/taigrr/siteview/pkg/session"
)

var errQuit = errors.New("quit")

// action is a key command handed from the event pump to the frame loop.
type action int

const (
	actZoomIn action = iota
	actZoomOut
	actFit
	actReload
	actExport
	actSnapshot
	actWireframe
	actHUD
)

// keyZoomStep is the scroll impulse of one + or - press.
const keyZoomStep = 0.5

// viewState is owned by the frame loop.
type viewState struct {
	wireframe bool
	showHUD   bool
	status    string
}

type viewer struct {
	cfg  config.Config
	log  *zap.Logger
	sess *session.Session
	mesh *models.Mesh // set when viewing a GLB instead of a site map
	name string

	term    *uv.Terminal
	rows    atomic.Int64 // terminal rows, read by the event pump
	input   *input.Collector
	actions chan action

	ctrl  *camera.Controller
	zoom  *input.KeyZoom
	cam   *render.Camera
	fb    *render.Framebuffer
	rast  *render.Rasterizer
	wire  *render.Wireframe
	hud   *HUD
	state viewState

	bg    render.Color
	order []int // placement draw order, reused between frames
}

func newViewer(cfg config.Config, sess *session.Session, mesh *models.Mesh, name string, log *zap.Logger) (*viewer, error) {
	opts, err := cfg.Camera.ControllerOptions()
	if err != nil {
		return nil, err
	}
	rgb, err := config.ParseRGB(cfg.Viewer.Background)
	if err != nil {
		return nil, err
	}
	light, err := cfg.Viewer.LightDir()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Camera.Mode()
	if err != nil {
		return nil, err
	}

	ctrl := camera.NewController(opts)
	cfg.Camera.ApplyProjection(ctrl.Projection)
	ctrl.SetMode(mode)

	cam := render.NewCamera()
	fb := render.NewFramebuffer(1, 2)
	rast := render.NewRasterizer(cam, fb)
	rast.Light = light

	v := &viewer{
		cfg:     cfg,
		log:     log.Named("viewer"),
		sess:    sess,
		mesh:    mesh,
		name:    name,
		input:   input.NewCollector(),
		actions: make(chan action, 16),
		ctrl:    ctrl,
		zoom:    input.NewKeyZoom(cfg.Viewer.FPS),
		cam:     cam,
		fb:      fb,
		rast:    rast,
		wire:    render.NewWireframe(cam, fb),
		hud:     NewHUD(),
		state:   viewState{wireframe: cfg.Viewer.Wireframe, showHUD: cfg.Viewer.ShowHUD},
		bg:      render.RGB(rgb[0], rgb[1], rgb[2]),
	}
	if cfg.Camera.FitToMap {
		v.fit()
	}
	return v, nil
}

// Run drives the terminal until the user quits or ctx is cancelled.
func (v *viewer) Run(ctx context.Context) error {
	v.term = uv.DefaultTerminal()

	width, height, err := v.term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := v.term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	v.term.EnterAltScreen()
	v.term.HideCursor()
	v.rows.Store(int64(height))
	v.input.Resize(float64(width), float64(height))

	fmt.Fprint(os.Stdout, ansi.SetModeMouseAnyEvent+ansi.SetModeMouseExtSgr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.pumpEvents(ctx) })
	g.Go(func() error { return v.frameLoop(ctx) })
	err = g.Wait()

	fmt.Fprint(os.Stdout, ansi.ResetModeMouseAnyEvent+ansi.ResetModeMouseExtSgr)
	v.term.ExitAltScreen()
	v.term.ShowCursor()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if serr := v.term.Shutdown(shutdownCtx); serr != nil {
		v.log.Warn("terminal shutdown", zap.Error(serr))
	}

	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (v *viewer) pumpEvents(ctx context.Context) error {
	events := v.term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return errQuit
			}
			if err := v.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

func (v *viewer) handleEvent(ev uv.Event) error {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.rows.Store(int64(ev.Height))
		v.input.Resize(float64(ev.Width), float64(ev.Height))

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
			return errQuit
		case ev.MatchString("2"):
			v.input.RequestMode(camera.Orthographic)
		case ev.MatchString("3"):
			v.input.RequestMode(camera.Perspective)
		case ev.MatchString("+", "="):
			v.send(actZoomIn)
		case ev.MatchString("-", "_"):
			v.send(actZoomOut)
		case ev.MatchString("f"):
			v.send(actFit)
		case ev.MatchString("r"):
			v.send(actReload)
		case ev.MatchString("e"):
			v.send(actExport)
		case ev.MatchString("s"):
			v.send(actSnapshot)
		case ev.MatchString("x"):
			v.send(actWireframe)
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			v.send(actHUD)
		}

	case uv.MouseClickEvent:
		v.input.Move(v.pointer(ev.X, ev.Y))
		switch ev.Button {
		case uv.MouseLeft:
			v.input.Press(camera.ButtonPan)
		case uv.MouseRight:
			v.input.Press(camera.ButtonOrbit)
		}

	case uv.MouseReleaseEvent:
		v.input.Move(v.pointer(ev.X, ev.Y))
		switch ev.Button {
		case uv.MouseLeft:
			v.input.Release(camera.ButtonPan)
		case uv.MouseRight:
			v.input.Release(camera.ButtonOrbit)
		default:
			// SGR-less terminals do not say which button went up
			v.input.ReleaseAll()
		}

	case uv.MouseMotionEvent:
		v.input.Move(v.pointer(ev.X, ev.Y))

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.input.Scroll(1)
		case uv.MouseWheelDown:
			v.input.Scroll(-1)
		}
	}
	return nil
}

// pointer maps a terminal cell to framebuffer pixels with Y up.
func (v *viewer) pointer(col, row int) (float64, float64) {
	return cellToPixel(col, row, int(v.rows.Load()))
}

// cellToPixel returns the pixel at the center of a cell. Each cell covers two
// framebuffer rows.
func cellToPixel(col, row, rows int) (float64, float64) {
	return float64(col) + 0.5, float64(rows*2) - float64(row*2+1)
}

func (v *viewer) send(a action) {
	select {
	case v.actions <- a:
	default:
	}
}

func (v *viewer) frameLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.cfg.Viewer.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := v.frame(); err != nil {
			return err
		}
	}
}

func (v *viewer) frame() error {
	f := v.input.Drain()
	if f.Resized {
		cols, rows := int(f.Viewport.X), int(f.Viewport.Y)
		v.term.Erase()
		v.term.Resize(cols, rows)
		v.fb.Resize(cols, rows*2)
		v.rast.Resize()
		v.ctrl.Resize(float64(v.fb.Width), float64(v.fb.Height))
	}
	if f.ModeRequested {
		v.ctrl.SetMode(f.Mode)
	}

drain:
	for {
		select {
		case a := <-v.actions:
			v.apply(a)
		default:
			break drain
		}
	}

	if v.zoom.Active() {
		f.Batch.Scroll = append(f.Batch.Scroll, v.zoom.Next())
	}
	v.ctrl.Update(f.Batch)

	pose := v.ctrl.Pose()
	v.cam.SetPose(pose.Position, pose.Rotation)
	v.cam.SetProjection(v.ctrl.ProjectionMatrix())

	v.draw()

	v.hud.UpdateFPS()
	v.fb.Draw(v.term, v.term.Bounds())
	if v.state.showHUD || v.state.status != "" {
		v.hud.Render(v.term, v.hudInfo())
	}
	if err := v.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func (v *viewer) apply(a action) {
	switch a {
	case actZoomIn:
		v.zoom.Push(keyZoomStep)
	case actZoomOut:
		v.zoom.Push(-keyZoomStep)
	case actFit:
		v.zoom.Stop()
		v.fit()
	case actReload:
		v.reload()
	case actExport:
		v.export()
	case actSnapshot:
		v.snapshot()
	case actWireframe:
		v.state.wireframe = !v.state.wireframe
	case actHUD:
		v.state.showHUD = !v.state.showHUD
		v.state.status = ""
	}
}

// fit sizes the camera to the current content and snaps home.
func (v *viewer) fit() {
	switch {
	case v.mesh != nil:
		ext := math.Max(
			math.Max(math.Abs(v.mesh.BoundsMin.X), math.Abs(v.mesh.BoundsMax.X)),
			math.Max(math.Abs(v.mesh.BoundsMin.Y), math.Abs(v.mesh.BoundsMax.Y)),
		)
		v.ctrl.FitExtent(ext)
	case v.sess.Current() != nil:
		v.ctrl.FitExtent(v.sess.Current().Scene.Extent())
	}
}

func (v *viewer) reload() {
	if v.mesh != nil {
		v.state.status = "reload: only site maps can be reloaded"
		return
	}
	st, changed, err := v.sess.Reload()
	switch {
	case err != nil:
		v.state.status = "reload failed: " + err.Error()
	case !changed:
		v.state.status = "reload: unchanged"
	default:
		v.state.status = "reloaded " + st.Map.Stats().String()
		if v.cfg.Camera.FitToMap {
			v.fit()
		}
	}
}

func (v *viewer) export() {
	st := v.sess.Current()
	if st == nil {
		v.state.status = "export: only site maps can be exported"
		return
	}
	if err := scene.ExportGLB(*outPath, st.Scene); err != nil {
		v.log.Warn("export", zap.Error(err))
		v.state.status = err.Error()
		return
	}
	v.log.Info("scene exported", zap.String("path", *outPath), zap.Stringer("load_id", st.ID))
	v.state.status = "exported " + *outPath
}

func (v *viewer) snapshot() {
	path := fmt.Sprintf("siteview-%s.png", time.Now().Format("20060102-150405"))
	if err := v.fb.SavePNG(path); err != nil {
		v.log.Warn("snapshot", zap.Error(err))
		v.state.status = err.Error()
		return
	}
	v.state.status = "saved " + path
}

func (v *viewer) draw() {
	v.fb.Clear(v.bg)
	v.rast.ClearDepth()
	v.rast.ResetStats()

	if v.mesh != nil {
		if v.state.wireframe {
			v.wire.DrawMesh(v.mesh, math3d.Identity(), render.RGB(0, 255, 128))
		} else {
			v.rast.DrawMesh(v.mesh, math3d.Identity(), render.RGB(200, 200, 200))
		}
		return
	}

	st := v.sess.Current()
	if st == nil {
		return
	}
	placements := st.Scene.Placements
	pose := v.ctrl.Pose()
	v.order = drawOrder(v.order, placements, v.ctrl.Projection.DepthPolicy(), pose.Position, v.ctrl.Forward())

	for _, i := range v.order {
		p := placements[i]
		mesh := scene.UnitMesh(p.Shape.Kind)
		c := render.MaterialColor(p.Material)
		if v.state.wireframe {
			v.wire.DrawMesh(mesh, p.Model(), c)
		} else {
			v.rast.DrawMesh(mesh, p.Model(), c)
		}
	}
}

// drawOrder sorts placement indices front to back under policy, reusing buf.
func drawOrder(buf []int, ps []scene.Placement, policy camera.DepthPolicy, eye, forward math3d.Vec3) []int {
	buf = buf[:0]
	for i := range ps {
		buf = append(buf, i)
	}
	keys := make([]float64, len(ps))
	for i, p := range ps {
		keys[i] = policy.SortKey(eye, forward, p.Transform.Translation)
	}
	slices.SortStableFunc(buf, func(a, b int) int {
		switch {
		case keys[a] < keys[b]:
			return -1
		case keys[a] > keys[b]:
			return 1
		}
		return 0
	})
	return buf
}

func (v *viewer) hudInfo() HUDInfo {
	info := HUDInfo{
		Title:      v.name,
		Mode:       v.ctrl.Mode(),
		Scale:      v.ctrl.Scale(),
		Radius:     v.ctrl.OrbitRadius(),
		UpsideDown: v.ctrl.UpsideDown(),
		Wireframe:  v.state.wireframe,
		Drawn:      v.rast.Stats.MeshesDrawn,
		Culled:     v.rast.Stats.MeshesCulled,
		Status:     v.state.status,
		Full:       v.state.showHUD,
	}
	if st := v.sess.Current(); st != nil {
		info.Title = st.Map.Name
		info.Detail = st.Map.Stats().String()
		info.LoadID = st.ID.String()[:8]
	} else if v.mesh != nil {
		info.Detail = fmt.Sprintf("%d triangles", v.mesh.TriangleCount())
	}
	return info
}
