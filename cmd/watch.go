package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	iparser "github.com/cmmoran/aboutgen/internal/parser"
	"github.com/cmmoran/aboutgen/pkg/action/generate"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

const defaultDebounce = 200 * time.Millisecond

func init() {
	rootCmd.AddCommand(NewWatchCommand())
}

func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	// watchCmd represents the aboutgen watch command
	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "regenerate headers when inputs change",
		Long: `Run generate once, then again whenever an input header, the model file or
the clang AST changes. A failed run is reported and watching continues.`,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := options(c)
			if err != nil {
				return err
			}
			run := func(ctx context.Context) {
				// every run starts from the configured options
				o := *opts
				report, err := generate.Generate(ctx, &o, log)
				if err != nil {
					printError(err)
					return
				}
				printReport(report)
			}
			return watch(c.Context(), opts, debounce, run)
		},
	}
	addOptionFlags(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period after a change before regenerating")

	return watchCmd
}

// watchSet is what a watch run listens to: directories registered with
// fsnotify, and the individual files of interest inside them.
type watchSet struct {
	dirs    []string
	files   map[string]struct{}
	trees   map[string]struct{} // directories whose headers all count
	outputs map[string]struct{}
}

func newWatchSet(opts *parser.Options) (*watchSet, error) {
	w := &watchSet{
		files:   make(map[string]struct{}),
		trees:   make(map[string]struct{}),
		outputs: make(map[string]struct{}),
	}
	seen := make(map[string]struct{})
	addDir := func(d string) {
		d = filepath.Clean(d)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			w.dirs = append(w.dirs, d)
		}
	}

	paths := append([]string{}, opts.Inputs...)
	for _, p := range []string{opts.ModelFile, opts.ClangAST} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "watch %q", p)
		}
		if !info.IsDir() {
			w.files[filepath.Clean(p)] = struct{}{}
			addDir(filepath.Dir(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if path != p && iparser.SkipsDir(d.Name()) {
				return filepath.SkipDir
			}
			w.trees[filepath.Clean(path)] = struct{}{}
			addDir(path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %q", p)
		}
	}

	for _, out := range []string{opts.OutputReflect, opts.OutputMeta, opts.OutputEnumOstream} {
		if out != "" && out != generate.Console {
			w.outputs[filepath.Clean(out)] = struct{}{}
		}
	}
	return w, nil
}

// relevant reports whether a change to name should trigger a run. Writes to
// the generator's own outputs never do.
func (w *watchSet) relevant(name string) bool {
	name = filepath.Clean(name)
	if _, ok := w.outputs[name]; ok {
		return false
	}
	if _, ok := w.files[name]; ok {
		return true
	}
	_, inTree := w.trees[filepath.Dir(name)]
	return inTree && iparser.IsHeader(name)
}

func watch(ctx context.Context, opts *parser.Options, debounce time.Duration, run func(context.Context)) error {
	set, err := newWatchSet(opts)
	if err != nil {
		return err
	}
	if len(set.dirs) == 0 {
		return errors.WithHint(errors.New("nothing to watch"), "pass --input, --model or --clang-ast")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()
	for _, d := range set.dirs {
		if err := w.Add(d); err != nil {
			return errors.Wrapf(err, "watch %q", d)
		}
	}
	log.Info("watching", zap.Int(logger.FieldCount, len(set.dirs)), zap.Strings("dirs", set.dirs))

	run(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			pterm.Info.WithWriter(os.Stderr).Println("stopped watching")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				set.follow(w, ev.Name)
			}
			if ev.Op == fsnotify.Chmod || !set.relevant(ev.Name) {
				continue
			}
			log.Debug("input changed", zap.String(logger.FieldFile, ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			run(ctx)
		}
	}
}

// follow starts watching a directory created inside a watched tree.
func (w *watchSet) follow(fw *fsnotify.Watcher, name string) {
	if _, inTree := w.trees[filepath.Dir(filepath.Clean(name))]; !inTree {
		return
	}
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() || iparser.SkipsDir(info.Name()) {
		return
	}
	if err := fw.Add(name); err != nil {
		log.Warn("cannot watch new directory", zap.String(logger.FieldFile, name), zap.Error(err))
		return
	}
	w.trees[filepath.Clean(name)] = struct{}{}
}
