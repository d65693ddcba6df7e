package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

type catalogOutcome struct {
	resp *services.CatalogResponse
	err  error
}

// watchLoop re-runs the catalog when the asset directories change.
// Events are debounced, and two runs are at least cooldown apart.
type watchLoop struct {
	quiet    bool
	debounce time.Duration
	cooldown time.Duration
	watcher  *fsnotify.Watcher
	scanner  *services.FolderScanner
	logger   *zap.Logger

	lastRun time.Time
	running bool
	pending bool
}

func newWatchLoop(quiet bool) (*watchLoop, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &watchLoop{
		quiet:    quiet,
		debounce: time.Duration(appConfig.WatchDebounceMS) * time.Millisecond,
		cooldown: time.Duration(appConfig.CatalogCooldownMinutes) * time.Minute,
		watcher:  watcher,
		scanner:  services.NewFolderScanner(appLibrary.RootPath),
		logger:   appLogger.Named("watch"),
	}, nil
}

// roots returns the configured asset directories plus sync destinations
func (w *watchLoop) roots(ctx context.Context) []string {
	roots := append([]string{}, appConfig.AssetDirectories...)
	defs, err := syncService.Definitions(ctx)
	if err != nil {
		w.logger.Warn("failed to list sync definitions", zap.Error(err))
		return roots
	}
	for _, d := range defs {
		roots = append(roots, d.DestinationDirectory)
	}
	return roots
}

// watchTree adds every directory under roots to the watcher
func (w *watchLoop) watchTree(ctx context.Context, roots []string) int {
	scan, err := w.scanner.Scan(ctx, roots)
	if err != nil {
		w.logger.Warn("failed to scan directories", zap.Error(err))
		return 0
	}
	for _, dir := range scan.Directories {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", dir), zap.Error(err))
		}
	}
	return len(scan.Directories)
}

// relevant reports whether an event can change the catalog
func relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if domain.IsHidden(base) {
		return false
	}
	if !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) &&
		!event.Has(fsnotify.Rename) {
		return false
	}
	// Directories have no extension to filter on, so anything non-media
	// only counts when it is (or was) a directory
	if domain.IsMedia(base) {
		return true
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return filepath.Ext(base) == ""
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

func (w *watchLoop) Run(ctx context.Context) error {
	defer w.watcher.Close()

	roots := w.roots(ctx)
	if len(roots) == 0 {
		return errors.New("no asset directories configured (px dirs add <directory>)")
	}
	count := w.watchTree(ctx, roots)

	if !w.quiet {
		fmt.Println(ui.FormatMuted(fmt.Sprintf("Watching %d folder(s) under %d root(s)", count, len(roots))))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	results := make(chan catalogOutcome, 1)
	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func(d time.Duration) {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(d)
		fire = timer.C
	}
	// Catch up with anything that changed while nobody was watching
	schedule(0)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchTree(ctx, []string{event.Name})
				}
			}
			w.logger.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			schedule(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if w.running {
				w.pending = true
				continue
			}
			if !w.lastRun.IsZero() {
				if wait := w.cooldown - time.Since(w.lastRun); wait > 0 {
					schedule(wait)
					continue
				}
			}
			w.running = true
			if !w.quiet {
				fmt.Println(ui.FormatInfo("Changes detected, cataloging..."))
			}
			go func() {
				resp, err := catalogService.Execute(ctx, catalogRequest())
				results <- catalogOutcome{resp: resp, err: err}
			}()

		case out := <-results:
			w.running = false
			w.lastRun = time.Now()
			w.report(out)
			w.watchTree(ctx, w.roots(ctx))
			if w.followUp(out) {
				w.pending = false
				schedule(w.debounce)
			}

		case <-ctx.Done():
			if w.running {
				<-results
			}
			if !w.quiet {
				fmt.Println()
				fmt.Println(ui.FormatMuted("Watcher stopped"))
			}
			return nil
		}
	}
}

// followUp reports whether another run is due right after out: either
// changes arrived meanwhile or the batch limit left work behind
func (w *watchLoop) followUp(out catalogOutcome) bool {
	if w.pending {
		return true
	}
	return out.err == nil && out.resp != nil && out.resp.BatchLimitReached
}

func (w *watchLoop) report(out catalogOutcome) {
	if out.err != nil {
		if errors.Is(out.err, context.Canceled) {
			return
		}
		w.logger.Error("catalog failed", zap.Error(out.err))
		if !w.quiet {
			fmt.Println(ui.FormatError("Catalog failed: " + out.err.Error()))
		}
		return
	}
	if w.quiet {
		return
	}
	resp := out.resp
	if !resp.Changed() {
		fmt.Println(ui.FormatMuted("Catalog is up to date"))
		return
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Catalog updated (+%d ~%d -%d)", resp.Created, resp.Updated, resp.Deleted)))
	if resp.BatchLimitReached {
		fmt.Println(ui.FormatInfo("Batch limit reached, the next run continues"))
	}
}
