// Package batch applies the TOC engine to many files: in place, as a
// check, or to an output stream.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tocgen/internal/toc"
)

// Mode selects what happens to a processed document.
type Mode int

const (
	// ModeWrite rewrites files whose TOC changed.
	ModeWrite Mode = iota
	// ModeCheck reports files whose TOC is out of date without writing.
	ModeCheck
	// ModeStdout writes every result to Runner.Stdout in input order.
	ModeStdout
)

// Status is the outcome for one file.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusOutdated  Status = "outdated"
	StatusFailed    Status = "failed"
)

// StdinPath names standard input in a path list.
const StdinPath = "-"

// FileResult describes one processed document.
type FileResult struct {
	Path     string
	Status   Status
	Headings int
	Duration time.Duration
	Err      error
	output   []byte
}

// Summary collects the results of a run in input order.
type Summary struct {
	Results []FileResult
}

// Count returns how many results have status s.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Err returns the first failure, or nil.
func (s *Summary) Err() error {
	for _, r := range s.Results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Runner processes documents with one engine configuration.
type Runner struct {
	Options toc.Options
	Mode    Mode
	// Workers bounds concurrent files. Values below 1 mean one.
	Workers int
	Stdin   io.Reader
	Stdout  io.Writer
	Log     *slog.Logger
	// Observe, when set, receives the engine time for every document.
	Observe func(time.Duration)
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Log
}

// Run processes paths concurrently, at most Workers at a time. Each document is independent; results
// are returned in the order of paths. The returned error is only the
// context's; per-file failures are in the summary.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FileResult{Path: p, Status: StatusFailed, Err: err}
				return err
			}
			results[i] = r.ProcessFile(p)
			return nil
		})
	}
	err := g.Wait()

	if r.Stdout != nil {
		for _, res := range results {
			if res.Err != nil || res.output == nil {
				continue
			}
			if _, werr := r.Stdout.Write(res.output); werr != nil {
				return &Summary{Results: results}, &IOError{Op: "write", Path: "stdout", Err: werr}
			}
		}
	}
	return &Summary{Results: results}, err
}

// ProcessFile runs the engine over one file, or standard input for "-".
func (r *Runner) ProcessFile(path string) FileResult {
	log := r.logger().With("path", path)

	var (
		src  []byte
		perm os.FileMode
		err  error
	)
	if path == StdinPath {
		if r.Stdin == nil {
			err = &IOError{Op: "read", Path: path, Err: errors.New("no standard input")}
		} else if src, err = io.ReadAll(r.Stdin); err != nil {
			err = &IOError{Op: "read", Path: path, Err: err}
		}
	} else {
		src, perm, err = readFile(path)
	}
	if err != nil {
		log.Error("read failed", "error", err)
		return FileResult{Path: path, Status: StatusFailed, Err: err}
	}

	start := time.Now()
	res, err := toc.Generate(src, r.Options)
	elapsed := time.Since(start)
	if r.Observe != nil {
		r.Observe(elapsed)
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		log.Error("generate failed", "error", err)
		return FileResult{Path: path, Status: StatusFailed, Duration: elapsed, Err: err}
	}

	out := FileResult{Path: path, Headings: res.Outline.Len(), Duration: elapsed, Status: StatusUnchanged}
	switch {
	case r.Mode == ModeStdout || (r.Mode == ModeWrite && path == StdinPath):
		// Standard input has nowhere to be written back to.
		out.output = res.Output
		if res.Changed {
			out.Status = StatusUpdated
		}
	case !res.Changed:
	case r.Mode == ModeCheck:
		out.Status = StatusOutdated
	default:
		if err := WriteFileAtomic(path, res.Output, perm); err != nil {
			log.Error("write failed", "error", err)
			out.Status, out.Err = StatusFailed, err
			return out
		}
		out.Status = StatusUpdated
	}
	log.Debug("processed", "status", out.Status, "headings", out.Headings, "elapsed", elapsed)
	return out
}

// Output returns the generated document kept for ModeStdout.
func (f FileResult) Output() []byte { return f.output }

// Changed reports whether the document's TOC differed from the generated one.
func (f FileResult) Changed() bool {
	return f.Status == StatusUpdated || f.Status == StatusOutdated
}

func readFile(path string) ([]byte, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, &IOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, 0, &IOError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, &IOError{Op: "read", Path: path, Err: err}
	}
	return src, info.Mode().Perm(), nil
}
