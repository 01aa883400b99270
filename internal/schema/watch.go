package schema

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"meshfixture/internal/fixture"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watch validates store once, then again after every debounced change to a
// fixture file, calling onReport with each result. It blocks until ctx is
// cancelled and never writes to the store.
func (v *Validator) Watch(ctx context.Context, store *fixture.Store, debounce time.Duration, onReport func(*Report, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(store.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", store.Dir(), err)
	}
	v.logger.Info("Watching fixtures", zap.String("dir", store.Dir()))

	onReport(v.ValidateStore(store))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, store) {
				continue
			}
			v.logger.Debug("Fixture change", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.logger.Warn("Watcher error", zap.Error(err))

		case <-timer.C:
			onReport(v.ValidateStore(store))
		}
	}
}

func relevant(event fsnotify.Event, store *fixture.Store) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Ext(event.Name) == store.Ext()
}
