package advisor

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"cattlefeed/ml"
)

// ModelStore publishes a loaded predictor by pointer swap. A predictor is
// never mutated after it is stored, so readers need no lock. Each swap
// starts a new generation.
type ModelStore struct {
	current    atomic.Pointer[modelVersion]
	generation atomic.Uint64
	onSwap     func()
	reloaded   atomic.Int64
}

type modelVersion struct {
	predictor  *ml.NutritionPredictor
	generation uint64
}

func NewModelStore() *ModelStore {
	return &ModelStore{}
}

// Current returns the active predictor, or nil.
func (s *ModelStore) Current() *ml.NutritionPredictor {
	predictor, _ := s.snapshot()
	return predictor
}

// snapshot returns the active predictor together with its generation, read
// in one load.
func (s *ModelStore) snapshot() (*ml.NutritionPredictor, uint64) {
	v := s.current.Load()
	if v == nil {
		return nil, 0
	}
	return v.predictor, v.generation
}

func (s *ModelStore) Swap(p *ml.NutritionPredictor) {
	s.current.Store(&modelVersion{predictor: p, generation: s.generation.Add(1)})
	if s.onSwap != nil {
		s.onSwap()
	}
}

// LoadFile builds a fresh predictor from path and swaps it in. The active
// predictor is kept when loading fails.
func (s *ModelStore) LoadFile(path string) error {
	p, err := ml.LoadNutritionPredictor(path)
	if err != nil {
		return err
	}
	s.Swap(p)
	return nil
}

// Reloads counts successful reloads triggered by Watch.
func (s *ModelStore) Reloads() int64 {
	return s.reloaded.Load()
}

// Watch reloads the bundle whenever the file at path is written or renamed
// into place. It returns when ctx is done.
func (s *ModelStore) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	logger := zap.L().With(zap.String("path", target))
	logger.Info("watching model bundle")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.LoadFile(target); err != nil {
				logger.Warn("model reload failed, keeping current model", zap.Error(err))
				continue
			}
			s.reloaded.Add(1)
			logger.Info("model bundle reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("model watcher error", zap.Error(err))
		}
	}
}
