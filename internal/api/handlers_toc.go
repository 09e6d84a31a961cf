package api

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/patch"
	"github.com/dgallion1/tocgen/internal/render"
	"github.com/dgallion1/tocgen/internal/stats"
	"github.com/dgallion1/tocgen/internal/toc"
)

const (
	headerChanged  = "X-Toc-Changed"
	headerHeadings = "X-Toc-Headings"
)

// handleTOC generates the TOC for a Markdown body.
//
// Query parameters override the server defaults:
//
//	max_depth, min_level  integers
//	ordered               bool
//	format                markdown or html
//	placement             after-heading, top or bottom
//	mode                  patch (default) returns the document, fragment only the TOC
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	opts, fragmentOnly, err := s.requestOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	src, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res, err := toc.Generate(src, opts)
	outcome := stats.Outcome{Duration: time.Since(start), Failed: err != nil}
	if err != nil {
		s.stats.Record(outcome)
		s.writeEngineError(w, err)
		return
	}
	outcome.Headings = res.Outline.Len()
	outcome.Changed = res.Changed
	s.stats.Record(outcome)

	body := res.Output
	contentType := "text/markdown; charset=utf-8"
	if fragmentOnly {
		body = res.Fragment
		if opts.Render.Format == render.FormatHTML {
			contentType = "text/html; charset=utf-8"
		}
	}

	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(body))
	w.Header().Set("ETag", etag)
	w.Header().Set(headerChanged, strconv.FormatBool(res.Changed))
	w.Header().Set(headerHeadings, strconv.Itoa(outcome.Headings))
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}

func (s *Server) requestOptions(r *http.Request) (toc.Options, bool, error) {
	opts := s.opts
	q := r.URL.Query()

	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, false, fmt.Errorf("invalid max_depth %q", v)
		}
		opts.Render.MaxDepth = n
	}
	if v := q.Get("min_level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > heading.MaxSupportedLevel {
			return opts, false, fmt.Errorf("invalid min_level %q", v)
		}
		opts.Render.MinLevel = n
	}
	if v := q.Get("ordered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, false, fmt.Errorf("invalid ordered %q", v)
		}
		opts.Render.Ordered = b
	}
	if v := q.Get("format"); v != "" {
		f, err := render.ParseFormat(v)
		if err != nil {
			return opts, false, err
		}
		opts.Render.Format = f
	}
	if v := q.Get("placement"); v != "" {
		p, err := patch.ParsePlacement(v)
		if err != nil {
			return opts, false, err
		}
		opts.Patch.Placement = p
	}

	var fragmentOnly bool
	switch mode := strings.ToLower(q.Get("mode")); mode {
	case "", "patch":
	case "fragment":
		fragmentOnly = true
	default:
		return opts, false, fmt.Errorf("unknown mode %q (want patch or fragment)", mode)
	}
	return opts, fragmentOnly, nil
}

// readBody reads the request body up to the upload limit. On failure it
// writes the error response and returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			jsonError(w, "failed to read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return data, true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, heading.ErrDecode), errors.Is(err, patch.ErrMalformedTocBlock):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("toc generation failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
