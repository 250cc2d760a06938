package server

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/selene"
	"github.com/corymhall/selenelsp/watch"
	"github.com/corymhall/selenelsp/workspace"
)

// loadCapabilities fills the capability gate unless it already holds the
// answer for the current binary.
func (s *server) loadCapabilities(ctx context.Context) {
	root := s.root()
	err := s.gate.Load(ctx, func(ctx context.Context) (selene.Capabilities, error) {
		return selene.FetchCapabilities(ctx, s.tool, root)
	})
	if err != nil {
		// Releases without the capabilities subcommand end up here.
		debug.Debug.Log(ctx, "selene reported no capabilities", slog.Any("error", err))
	}
}

// toolChanged forgets what was learned from the previous selene binary.
func (s *server) toolChanged(ctx context.Context) {
	s.gate.Reset()
	s.toolRestored()
	s.loadCapabilities(ctx)
}

func (s *server) startWatching(ctx context.Context) {
	w, err := watch.New(ctx)
	if err != nil {
		debug.LogError(ctx, "starting file watcher", err)
		return
	}

	s.mu.Lock()
	s.watcher = w
	root := s.rootDir
	s.mu.Unlock()

	if root != "" {
		if err := w.Watch(filepath.Join(root, workspace.ConfigFile), s.configFileChanged); err != nil {
			debug.LogError(ctx, "watching workspace config", err)
		}
	}
	s.watchBinary(ctx)
}

// watchBinary points the watcher at the selene binary currently in use.
func (s *server) watchBinary(ctx context.Context) {
	path, err := s.tool.Path()

	s.mu.Lock()
	w, old := s.watcher, s.binaryPath
	s.binaryPath = ""
	if err == nil {
		s.binaryPath = path
	}
	s.mu.Unlock()

	if w == nil {
		return
	}
	if old != "" && old != path {
		w.Unwatch(old)
	}
	if err != nil {
		debug.Debug.Log(ctx, "not watching selene", slog.Any("error", err))
		return
	}
	if err := w.Watch(path, s.binaryChanged); err != nil {
		debug.LogError(ctx, "watching selene", err)
	}
}

func (s *server) configFileChanged(path string, op fsnotify.Op) {
	s.goBackground(func(ctx context.Context) {
		debug.Info.Log(ctx, "workspace config changed", slog.String("op", op.String()))
		_ = s.relint(ctx, nil)
	})
}

func (s *server) binaryChanged(path string, op fsnotify.Op) {
	s.goBackground(func(ctx context.Context) {
		debug.Info.Log(ctx, "selene binary changed", slog.String("path", path), slog.String("op", op.String()))
		s.toolChanged(ctx)
		_ = s.relint(ctx, nil)
	})
}
