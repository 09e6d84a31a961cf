// Package toc runs the full pipeline over one document: scan headings,
// assign anchors, build the outline, render it, and patch the TOC block.
//
// Each call to Generate owns its own state, so documents can be processed
// concurrently without coordination.
package toc

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/inline"
	"github.com/dgallion1/tocgen/internal/outline"
	"github.com/dgallion1/tocgen/internal/patch"
	"github.com/dgallion1/tocgen/internal/render"
	"github.com/dgallion1/tocgen/internal/slug"
)

// Options configures a run.
type Options struct {
	Heading heading.Options
	// Placeholder is the anchor for headings whose text has no usable characters.
	Placeholder string
	Render      render.Options
	Patch       patch.Config
}

// DefaultOptions returns Markdown headings, an unordered Markdown TOC, and
// the default markers placed after the first level-1 heading.
func DefaultOptions() Options {
	return Options{
		Heading:     heading.DefaultOptions(),
		Placeholder: slug.DefaultPlaceholder,
		Render:      render.DefaultOptions(),
		Patch:       patch.DefaultConfig(),
	}
}

// Result is the outcome of one run.
type Result struct {
	Output   []byte        // the patched document
	Fragment []byte        // the rendered TOC
	Outline  *outline.Node // the heading tree
	Changed  bool          // Output differs from the input
}

// normalize aligns the option groups with each other and with src.
func (o Options) normalize(src []byte) Options {
	if o.Patch.Start == "" {
		o.Patch.Start = patch.DefaultStart
	}
	if o.Patch.End == "" {
		o.Patch.End = patch.DefaultEnd
	}
	o.Heading.SkipStart = o.Patch.Start
	o.Heading.SkipEnd = o.Patch.End
	o.Patch.Heading = o.Heading

	nl := heading.Newline(src)
	if o.Render.Newline == "" {
		o.Render.Newline = nl
	}
	if o.Patch.Newline == "" {
		o.Patch.Newline = nl
	}
	return o
}

// HeadingOptions returns the scanner options Generate uses, with the TOC
// block excluded from the scan.
func (o Options) HeadingOptions() heading.Options {
	return o.normalize(nil).Heading
}

// Generate returns src with its TOC block created or refreshed. It fails
// with an error matching heading.ErrDecode when src is not text, and with
// patch.ErrMalformedTocBlock when the TOC markers are unbalanced. On error
// no output is produced.
func Generate(src []byte, opts Options) (*Result, error) {
	if err := heading.Validate(src); err != nil {
		return nil, err
	}
	opts = opts.normalize(src)

	// Check the markers first so a malformed block fails before any work.
	if _, err := patch.Find(src, opts.Patch); err != nil {
		return nil, err
	}

	root := BuildOutline(heading.Collect(src, opts.Heading), opts.Placeholder)
	fragment, err := render.Render(root, opts.Render)
	if err != nil {
		return nil, fmt.Errorf("render toc: %w", err)
	}

	out, err := patch.Apply(src, fragment, opts.Patch)
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:   out,
		Fragment: fragment,
		Outline:  root,
		Changed:  !bytes.Equal(out, src),
	}, nil
}

// Outline scans src and returns its heading tree without patching.
func Outline(src []byte, opts Options) (*outline.Node, error) {
	if err := heading.Validate(src); err != nil {
		return nil, err
	}
	opts = opts.normalize(src)
	return BuildOutline(heading.Collect(src, opts.Heading), opts.Placeholder), nil
}

// BuildOutline assigns anchors to records in document order and builds the
// tree. Explicit ids are reserved as written; other headings are slugged
// from their plain text. One anchor set is shared by the whole document.
func BuildOutline(records []heading.Record, placeholder string) *outline.Node {
	seen := slug.NewSet()
	entries := make([]outline.Entry, 0, len(records))
	for _, rec := range records {
		var anchor string
		if rec.ID != "" {
			anchor = slug.Reserve(rec.ID, seen)
		} else {
			anchor = slug.Make(inline.PlainText(rec.Text), seen, placeholder)
		}
		entries = append(entries, outline.Entry{Heading: rec, Anchor: anchor})
	}
	return outline.Build(entries)
}

// Fragment renders the TOC for a heading list without touching any document.
func Fragment(records []heading.Record, opts Options) ([]byte, *outline.Node, error) {
	root := BuildOutline(records, opts.Placeholder)
	if opts.Render.Newline == "" {
		opts.Render.Newline = "\n"
	}
	fragment, err := render.Render(root, opts.Render)
	if err != nil {
		return nil, nil, fmt.Errorf("render toc: %w", err)
	}
	return fragment, root, nil
}
