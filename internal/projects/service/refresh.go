package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Loader is anything that can reload the collection from its backend.
type Loader interface {
	Load(ctx context.Context) error
}

// RefreshScheduler reloads the collection on a cron schedule so that changes
// written to the remote store by another operator show up here.
type RefreshScheduler struct {
	cron   *cron.Cron
	loader Loader
	logger *zap.Logger
}

// NewRefreshScheduler parses schedule (six fields, seconds first, or a
// descriptor such as "@every 5m").
func NewRefreshScheduler(loader Loader, schedule string, logger *zap.Logger) (*RefreshScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RefreshScheduler{
		cron:   cron.New(cron.WithSeconds()),
		loader: loader,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *RefreshScheduler) Start() {
	s.logger.Info("refresh scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx to expire.
func (s *RefreshScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *RefreshScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.loader.Load(ctx); err != nil {
		s.logger.Warn("scheduled refresh failed", zap.Error(err))
	}
}

// CacheWatcher reloads the collection when the local snapshot file changes
// on disk, e.g. after the CLI added a project while the server is running.
type CacheWatcher struct {
	path     string
	loader   Loader
	debounce time.Duration
	logger   *zap.Logger
}

func NewCacheWatcher(path string, loader Loader, logger *zap.Logger) *CacheWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWatcher{
		path:     filepath.Clean(path),
		loader:   loader,
		debounce: 100 * time.Millisecond,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled.
func (w *CacheWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// The snapshot is replaced by rename, so watch the directory, not the file.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching local cache", zap.String("path", w.path))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			if err := w.loader.Load(ctx); err != nil {
				w.logger.Warn("reload after cache change failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("cache watcher error", zap.Error(err))
		}
	}
}
