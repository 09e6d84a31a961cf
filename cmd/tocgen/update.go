package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tocgen/internal/batch"
	"github.com/dgallion1/tocgen/internal/config"
)

// engineFlags override the configured engine settings.
type engineFlags struct {
	maxDepth    int
	minLevel    int
	ordered     bool
	format      string
	placement   string
	bullet      string
	indent      int
	linkPrefix  string
	startMarker string
	endMarker   string
	noSetext    bool
	workers     int
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.maxDepth, "max-depth", "d", 0, "deepest TOC level to render (0 = all)")
	fl.IntVar(&f.minLevel, "min-level", 0, "render headings of this level and deeper only")
	fl.BoolVar(&f.ordered, "ordered", false, "use numbered list markers")
	fl.StringVar(&f.format, "format", "", "TOC format: markdown or html")
	fl.StringVar(&f.placement, "placement", "", "where a new block goes: after-heading, top or bottom")
	fl.StringVar(&f.bullet, "bullet", "", "unordered list marker: - * or +")
	fl.IntVar(&f.indent, "indent", 0, "spaces per nesting level (0 = align under the parent's text)")
	fl.StringVar(&f.linkPrefix, "link-prefix", "", "prefix for every anchor link")
	fl.StringVar(&f.startMarker, "start-marker", "", "line that opens the TOC block")
	fl.StringVar(&f.endMarker, "end-marker", "", "line that closes the TOC block")
	fl.BoolVar(&f.noSetext, "no-setext", false, "do not recognize underlined headings")
	fl.IntVarP(&f.workers, "workers", "j", 0, "files processed concurrently")
}

func (f *engineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("max-depth") {
		cfg.Render.MaxDepth = f.maxDepth
	}
	if fl.Changed("min-level") {
		cfg.Render.MinLevel = f.minLevel
	}
	if fl.Changed("ordered") {
		cfg.Render.Ordered = f.ordered
	}
	if fl.Changed("format") {
		cfg.Render.Format = f.format
	}
	if fl.Changed("placement") {
		cfg.Placement = f.placement
	}
	if fl.Changed("bullet") {
		cfg.Render.Bullet = f.bullet
	}
	if fl.Changed("indent") {
		cfg.Render.Indent = f.indent
	}
	if fl.Changed("link-prefix") {
		cfg.Render.LinkPrefix = f.linkPrefix
	}
	if fl.Changed("start-marker") {
		cfg.Markers.Start = f.startMarker
	}
	if fl.Changed("end-marker") {
		cfg.Markers.End = f.endMarker
	}
	if fl.Changed("no-setext") {
		cfg.Headings.Setext = !f.noSetext
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
}

func newUpdateCmd(g *globalFlags) *cobra.Command {
	var (
		engine   engineFlags
		check    bool
		stdout   bool
		watch    bool
		debounce time.Duration
		quiet    bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "update [path...]",
		Short: "Create or refresh the TOC block of Markdown files",
		Long: `Update rewrites each Markdown file so that its TOC block matches its
headings. Directories are searched recursively for *.md and *.markdown
files; "-" reads standard input and writes the result to standard output.
With no paths the current directory is used.`,
		Aliases: []string{"up"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if check && stdout {
				return usageErr(errors.New("--check and --stdout are mutually exclusive"))
			}
			if watch && (check || stdout || slices.Contains(args, batch.StdinPath)) {
				return usageErr(errors.New("--watch only works with in-place updates of files"))
			}
			cfg, log, err := g.load(cmd, func(c *config.Config) error {
				engine.apply(cmd, c)
				return nil
			})
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}
			files, err := batch.Discover(paths)
			if err != nil {
				return err
			}

			mode := batch.ModeWrite
			switch {
			case check:
				mode = batch.ModeCheck
			case stdout:
				mode = batch.ModeStdout
			}
			runner := &batch.Runner{
				Options: cfg.TOC(),
				Mode:    mode,
				Workers: cfg.Workers,
				Stdin:   cmd.InOrStdin(),
				Stdout:  cmd.OutOrStdout(),
				Log:     log,
			}

			report := cmd.OutOrStdout()
			if mode == batch.ModeStdout || slices.Contains(files, batch.StdinPath) {
				report = cmd.ErrOrStderr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Debug("processing", "files", len(files), "mode", mode, "workers", cfg.Workers)
			sum, err := runner.Run(ctx, files)
			if err != nil {
				return err
			}
			if !quiet {
				for _, res := range sum.Results {
					printResult(report, res, verbose)
				}
				printSummary(report, sum)
			}
			if err := summaryErr(sum, mode); err != nil && !watch {
				return err
			}
			if !watch {
				return nil
			}

			w, err := batch.NewWatcher(runner, paths, func(res batch.FileResult) {
				if !quiet {
					printResult(report, res, verbose)
				}
			})
			if err != nil {
				return err
			}
			w.SetDebounce(debounce)
			log.Info("watching for changes", "paths", paths)
			return w.Run(ctx)
		},
	}

	engine.register(cmd)
	fl := cmd.Flags()
	fl.BoolVar(&check, "check", false, "report files whose TOC is out of date without writing")
	fl.BoolVar(&stdout, "stdout", false, "write updated documents to standard output instead of in place")
	fl.BoolVarP(&watch, "watch", "w", false, "keep running and update files as they change")
	fl.DurationVar(&debounce, "debounce", batch.DefaultDebounce, "quiet period before a changed file is processed")
	fl.BoolVarP(&quiet, "quiet", "q", false, "print nothing but errors")
	fl.BoolVarP(&verbose, "verbose", "v", false, "list unchanged files too")
	return cmd
}

// summaryErr turns per-file outcomes into the command's error. Failures
// win over stale files; the first failure decides the exit code.
func summaryErr(sum *batch.Summary, mode batch.Mode) error {
	if err := sum.Err(); err != nil {
		if n := sum.Count(batch.StatusFailed); n > 1 {
			return fmt.Errorf("%d of %d files failed, first: %w", n, len(sum.Results), err)
		}
		return err
	}
	if n := sum.Count(batch.StatusOutdated); mode == batch.ModeCheck && n > 0 {
		return fmt.Errorf("%d of %d files: %w", n, len(sum.Results), errOutdated)
	}
	return nil
}
