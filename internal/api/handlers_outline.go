package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/outline"
	"github.com/dgallion1/tocgen/internal/source"
	"github.com/dgallion1/tocgen/internal/stats"
	"github.com/dgallion1/tocgen/internal/toc"
)

type outlineNode struct {
	Level    int            `json:"level"`
	Text     string         `json:"text"`
	Anchor   string         `json:"anchor"`
	Line     int            `json:"line"`
	Children []*outlineNode `json:"children,omitempty"`
}

type outlineResponse struct {
	Filename string         `json:"filename"`
	Headings int            `json:"headings"`
	Outline  []*outlineNode `json:"outline"`
}

// handleOutline returns the heading tree of any supported document. The
// source format is chosen by the filename query parameter.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	filename := sanitizeFilename(r.URL.Query().Get("filename"))
	if !source.IsSupportedExtension(filename) {
		jsonError(w, "unsupported file type: "+filepath.Ext(filename), http.StatusBadRequest)
		return
	}
	src, err := source.ForFile(filename, s.opts.HeadingOptions())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	records, err := src.Headings(bytes.NewReader(data))
	if err != nil {
		s.stats.Record(stats.Outcome{Duration: time.Since(start), Failed: true})
		if errors.Is(err, heading.ErrDecode) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.log.Warn("outline extraction failed", "filename", filename, "error", err)
		jsonError(w, "could not read document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	root := toc.BuildOutline(records, s.opts.Placeholder)
	s.stats.Record(stats.Outcome{Duration: time.Since(start), Headings: len(records)})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(outlineResponse{
		Filename: filename,
		Headings: len(records),
		Outline:  convertOutline(root),
	})
}

// convertOutline mirrors the tree below root into its JSON form. Walk is
// pre-order, so a node's parent is always converted before the node.
func convertOutline(root *outline.Node) []*outlineNode {
	top := make([]*outlineNode, 0, len(root.Children))
	parent := map[*outline.Node]*outlineNode{}
	root.Walk(func(n *outline.Node, depth int) bool {
		out := &outlineNode{
			Level:  n.Level(),
			Text:   n.Heading.Text,
			Anchor: n.Anchor,
			Line:   n.Heading.Line,
		}
		if p, ok := parent[n]; ok {
			p.Children = append(p.Children, out)
		} else {
			top = append(top, out)
		}
		for _, c := range n.Children {
			parent[c] = out
		}
		return true
	})
	return top
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
