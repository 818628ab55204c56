package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/constants"
	"github.com/githubnext/sqlresult/pkg/provider"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-parse result files as they change",
		Long: `Watch a directory for changes to SQL and result files. Every change drops the
cached parse of the pair and re-parses the result file, printing one summary line.

Examples:
  ` + constants.CLIExtensionPrefix + ` watch          # Watch the current directory
  ` + constants.CLIExtensionPrefix + ` watch ./t -v   # Watch a suite and log cache activity`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := LoadConfig(configPath, verbose)
			if err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := WatchResultFiles(ctx, os.Stdout, cfg, dir, verbose); err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}
		},
	}

	return watchCmd
}

// resultWatcher re-parses SQL/result pairs after a debounce period
type resultWatcher struct {
	provider *provider.Provider
	log      *zap.Logger
	verbose  bool

	mu            sync.Mutex
	out           io.Writer
	modifiedFiles map[string]struct{}
	debounceTimer *time.Timer
	stopped       bool
	flushes       sync.WaitGroup
}

// WatchResultFiles watches dir and its subdirectories until ctx is done
func WatchResultFiles(ctx context.Context, w io.Writer, cfg config.Config, dir string, verbose bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access watch directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target is not a directory: %s", dir)
	}

	p, log, err := newProvider(cfg, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return err
	}

	rw := &resultWatcher{
		provider:      p,
		log:           log,
		verbose:       verbose,
		out:           w,
		modifiedFiles: make(map[string]struct{}),
	}

	rw.printf("Watching for file changes in %s...\n", dir)
	if verbose {
		rw.println(console.FormatVerboseMessage("Press Ctrl+C to stop watching."))
	}
	log.Info("watch started", zap.String("dir", dir))

	debounceDelay := constants.WatchDebounceMilliseconds * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addWatchDirs(watcher, event.Name); err != nil {
						log.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}

			if !p.IsResultFile(event.Name) && !p.IsSQLFile(event.Name) {
				continue
			}
			log.Debug("detected change", zap.String("file", event.Name), zap.String("op", event.Op.String()))

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				rw.handleRemoved(event.Name)
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				rw.schedule(event.Name, debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			log.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			rw.stop()
			log.Info("watch stopped")
			if verbose {
				rw.println(console.FormatVerboseMessage("Stopping watch mode..."))
			}
			return nil
		}
	}
}

// addWatchDirs registers root and every non-hidden directory below it
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

// schedule queues a file and restarts the debounce timer
func (rw *resultWatcher) schedule(path string, delay time.Duration) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.stopped {
		return
	}

	rw.modifiedFiles[path] = struct{}{}
	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.debounceTimer = time.AfterFunc(delay, rw.flush)
}

// stop cancels the pending flush and waits for a running one to finish.
// No reload output is written once stop returns.
func (rw *resultWatcher) stop() {
	rw.mu.Lock()
	rw.stopped = true
	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.mu.Unlock()

	rw.flushes.Wait()
}

// flush re-parses every pair touched since the last flush
func (rw *resultWatcher) flush() {
	rw.mu.Lock()
	if rw.stopped {
		rw.mu.Unlock()
		return
	}
	rw.flushes.Add(1)
	defer rw.flushes.Done()

	files := make([]string, 0, len(rw.modifiedFiles))
	for file := range rw.modifiedFiles {
		files = append(files, file)
	}
	rw.modifiedFiles = make(map[string]struct{})
	rw.mu.Unlock()

	sort.Strings(files)
	seen := make(map[string]bool)
	for _, file := range files {
		sqlPath := file
		if rw.provider.IsResultFile(file) {
			sqlPath = rw.provider.SQLFilePath(file)
		}
		if seen[sqlPath] {
			continue
		}
		seen[sqlPath] = true
		rw.reload(sqlPath)
	}
}

func (rw *resultWatcher) reload(sqlPath string) {
	rw.provider.Invalidate(sqlPath)
	resultPath := rw.provider.ResultFilePath(sqlPath)

	results, err := rw.provider.LoadResults(sqlPath)
	if err != nil {
		if errors.Is(err, provider.ErrResultFileNotFound) {
			rw.log.Debug("no result file for changed sql file", zap.String("sql", sqlPath))
			return
		}
		rw.log.Error("failed to reload result file", zap.String("result", resultPath), zap.Error(err))
		rw.println(console.FormatErrorMessage(err.Error()))
		return
	}

	degraded := len(results.Degraded())
	rw.log.Info("reloaded result file",
		zap.String("result", resultPath),
		zap.Int("records", results.Len()),
		zap.Int("degraded", degraded))

	summary := fmt.Sprintf("Reloaded %s: %d records, %d degraded", console.ToRelativePath(resultPath), results.Len(), degraded)
	if degraded > 0 {
		rw.println(console.FormatWarningMessage(summary))
	} else {
		rw.println(console.FormatSuccessMessage(summary))
	}
}

func (rw *resultWatcher) handleRemoved(path string) {
	rw.provider.Invalidate(path)
	rw.log.Info("file removed", zap.String("file", path))
	if rw.provider.IsResultFile(path) {
		rw.println(console.FormatWarningMessage(fmt.Sprintf("Removed %s", console.ToRelativePath(path))))
	}
}

func (rw *resultWatcher) printf(format string, args ...any) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	fmt.Fprintf(rw.out, format, args...)
}

func (rw *resultWatcher) println(line string) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	fmt.Fprintln(rw.out, line)
}
