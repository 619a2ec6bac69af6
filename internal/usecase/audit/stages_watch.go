package audit

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
)

// WatchStages reloads the stage overlay whenever the file changes, until ctx
// is done. An invalid edit is logged and the previous overlay stays active.
func (s *Service) WatchStages(ctx context.Context, path string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("stages file is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create stages watcher")
	}

	// Watch the directory: editors typically replace the file atomically,
	// which unregisters a direct file watch.
	if err := watcher.Add(filepath.Dir(trimmed)); err != nil {
		_ = watcher.Close()
		return errs.Wrap(err, "watch stages directory")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.stages"), slog.String("path", trimmed))

	go func() {
		defer watcher.Close()

		target := filepath.Clean(trimmed)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.reloadStages(logCtx, trimmed)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn(logCtx, "stages watcher error", slog.Any("err", errs.Loggable(watchErr)))
			}
		}
	}()

	logging.Info(logCtx, "watching workflow stages file")
	return nil
}

func (s *Service) reloadStages(ctx context.Context, path string) {
	stages, err := LoadStagesFile(path)
	if err != nil {
		logging.Warn(ctx, "stages file rejected, keeping previous overlay", slog.Any("err", errs.Loggable(err)))
		return
	}

	if err := s.ReplaceStages(ctx, stages); err != nil {
		logging.Error(ctx, "stage overlay not persisted", slog.Any("err", errs.Loggable(err)))
		return
	}

	logging.Info(ctx, "workflow stages reloaded", slog.Int("count", len(stages)))
}
