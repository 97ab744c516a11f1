package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/orchestrate"
	"github.com/franz/music-indexer/internal/progress"
	"github.com/franz/music-indexer/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured roots and re-import on changes",
	Long: `Watch runs an initial import, then keeps watching every configured
root. Filesystem changes are debounced and trigger another import
run; imports are idempotent, so overlapping changes just coalesce
into the next run.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 5*time.Second, "quiet period after a change before re-importing")
	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	setupLogging()

	scanner, err := loadScannerConfig()
	if err != nil {
		return err
	}
	if err := scanner.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reporter := progress.NewReporter(progress.NewBar())
	defer reporter.Close()

	svc := command.NewService(command.Options{
		Store:    store,
		Scanner:  *scanner,
		Reporter: reporter,
		Analyze:  viper.GetBool("import.analyze"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		util.WarnLog("Interrupted, stopping watch...")
		svc.Orchestrator().Stop()
		cancel()
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range scanner.Roots {
		if err := watchTree(watcher, root); err != nil {
			util.WarnLog("Cannot watch %s: %v", root, err)
		}
	}

	runImportOnce(ctx, svc)

	debounce := viper.GetDuration("watch.debounce")
	if debounce <= 0 {
		debounce = 5 * time.Second
	}

	var timer *time.Timer
	timerFired := make(chan struct{}, 1)

	util.InfoLog("Watching %d root(s), debounce %v", len(scanner.Roots), debounce)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories join the watch so nested changes
			// keep arriving
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watchTree(watcher, event.Name)
				}
			}
			util.DebugLog("Change: %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case timerFired <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watch error: %v", err)

		case <-timerFired:
			timer = nil
			runImportOnce(ctx, svc)
		}
	}
}

// runImportOnce runs one import, tolerating an already-running scan
func runImportOnce(ctx context.Context, svc *command.Service) {
	summary, err := svc.ImportFull(ctx)
	switch {
	case errors.Is(err, orchestrate.ErrScanInProgress):
		util.DebugLog("Scan already running, change folds into it")
	case errors.Is(err, context.Canceled):
	case err != nil:
		util.ErrorLog("Import failed: %v", err)
	default:
		util.InfoLog("Catalog up to date: %d/%d files imported", summary.Succeeded, summary.Total)
	}
}

// watchTree registers root and every directory below it
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				util.DebugLog("Cannot watch %s: %v", path, err)
			}
		}
		return nil
	})
}
