// Package session owns the site map on screen and the scene built from it.
// A load either replaces both or leaves them exactly as they were.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taigrr/siteview/pkg/scene"
	"github.com/taigrr/siteview/pkg/sitemap"
)

// ErrNothingLoaded is returned by Reload before any successful load.
var ErrNothingLoaded = errors.New("no site map loaded")

// State is one successfully loaded site map and its scene. States are
// immutable once published.
type State struct {
	ID       uuid.UUID
	Source   string
	Path     string // empty unless loaded from a file
	Digest   uint64 // xxhash of the raw document
	LoadedAt time.Time

	Map   *sitemap.SiteMap
	Scene *scene.Scene
}

// Session holds the current State. It is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	current *State

	opts     scene.Options
	indexing sitemap.Indexing
	log      *zap.Logger
	now      func() time.Time
}

// New creates an empty session. A nil logger discards output.
func New(opts scene.Options, indexing sitemap.Indexing, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		opts:     opts,
		indexing: indexing,
		log:      log.Named("session"),
		now:      time.Now,
	}
}

// Current returns the loaded state, or nil before the first load.
func (s *Session) Current() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load decodes data, validates it and builds its scene. Only then does it
// replace the current state; on error the previous state stays.
func (s *Session) Load(source string, data []byte) (*State, error) {
	return s.load(source, "", data)
}

// LoadFile reads path and loads it. The path is remembered for Reload.
func (s *Session) LoadFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("read site map", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("read site map: %w", err)
	}
	return s.load(path, path, data)
}

// LoadDemo loads the built-in demo map.
func (s *Session) LoadDemo() (*State, error) {
	return s.Load(sitemap.DemoSource, sitemap.DemoDocument())
}

// Reload re-reads the current file. A state not loaded from a file is
// rebuilt from its source unchanged. It reports whether the content changed;
// unchanged content keeps the current state and load ID.
func (s *Session) Reload() (*State, bool, error) {
	cur := s.Current()
	if cur == nil {
		return nil, false, ErrNothingLoaded
	}
	if cur.Path == "" {
		return cur, false, nil
	}

	data, err := os.ReadFile(cur.Path)
	if err != nil {
		s.log.Warn("reload site map", zap.String("path", cur.Path), zap.Error(err))
		return cur, false, fmt.Errorf("reload site map: %w", err)
	}
	if xxhash.Sum64(data) == cur.Digest {
		s.log.Debug("site map unchanged", zap.String("path", cur.Path))
		return cur, false, nil
	}

	next, err := s.load(cur.Path, cur.Path, data)
	if err != nil {
		return cur, false, err
	}
	return next, true, nil
}

func (s *Session) load(source, path string, data []byte) (*State, error) {
	digest := xxhash.Sum64(data)

	m, err := sitemap.Load(bytes.NewReader(data), source, s.indexing)
	if err != nil {
		s.log.Warn("site map rejected", zap.String("source", source), zap.String("stage", "decode"), zap.Error(err))
		return nil, err
	}
	sc, err := scene.Build(m, s.opts)
	if err != nil {
		s.log.Warn("site map rejected", zap.String("source", source), zap.String("stage", "build"), zap.Error(err))
		return nil, err
	}

	st := &State{
		ID:       uuid.New(),
		Source:   source,
		Path:     path,
		Digest:   digest,
		LoadedAt: s.now(),
		Map:      m,
		Scene:    sc,
	}

	s.mu.Lock()
	s.current = st
	s.mu.Unlock()

	s.log.Info("site map loaded",
		zap.Stringer("load_id", st.ID),
		zap.String("source", source),
		zap.String("name", m.Name),
		zap.Stringer("stats", m.Stats()),
		zap.Int("placements", len(sc.Placements)),
		zap.String("digest", fmt.Sprintf("%016x", digest)),
	)
	return st, nil
}
