package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/tocgen/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	return NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTOC_Patch(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/toc", "# Intro\n\n## Setup\n", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Intro\n\n<!-- toc -->\n- [Intro](#intro)\n  - [Setup](#setup)\n<!-- tocstop -->\n\n## Setup\n", rec.Body.String())
	assert.Equal(t, "true", rec.Header().Get("X-Toc-Changed"))
	assert.Equal(t, "2", rec.Header().Get("X-Toc-Headings"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestTOC_FragmentWithOptions(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/toc?mode=fragment&max_depth=1&ordered=true", "# A\n## B\n# C\n", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1. [A](#a)\n2. [C](#c)\n", rec.Body.String())
}

func TestTOC_HTMLFragment(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/toc?mode=fragment&format=html", "# A\n", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<a href="#a">A</a>`)
}

func TestTOC_UnchangedAndETag(t *testing.T) {
	s := newTestServer(t, nil)
	first := do(t, s, http.MethodPost, "/api/toc", "# A\n", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := do(t, s, http.MethodPost, "/api/toc", first.Body.String(), nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "false", second.Header().Get("X-Toc-Changed"))
	assert.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))

	cached := do(t, s, http.MethodPost, "/api/toc", first.Body.String(), http.Header{
		"If-None-Match": {first.Header().Get("ETag")},
	})
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.String())
}

func TestTOC_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadBytes = 64 })

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"malformed block", "/api/toc", "# T\n<!-- toc -->\n", http.StatusUnprocessableEntity},
		{"invalid utf-8", "/api/toc", "# T\n\xff\n", http.StatusUnprocessableEntity},
		{"bad max_depth", "/api/toc?max_depth=x", "# T\n", http.StatusBadRequest},
		{"bad format", "/api/toc?format=pdf", "# T\n", http.StatusBadRequest},
		{"bad mode", "/api/toc?mode=diff", "# T\n", http.StatusBadRequest},
		{"bad placement", "/api/toc?placement=middle", "# T\n", http.StatusBadRequest},
		{"too large", "/api/toc", strings.Repeat("# T\n", 100), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body, nil)
			assert.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOutline_Markdown(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/outline?filename=README.md", "# Top\n## Sub\n## Sub\n# Next\n", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp outlineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "README.md", resp.Filename)
	assert.Equal(t, 4, resp.Headings)
	require.Len(t, resp.Outline, 2)
	assert.Equal(t, "top", resp.Outline[0].Anchor)
	require.Len(t, resp.Outline[0].Children, 2)
	assert.Equal(t, "sub-1", resp.Outline[0].Children[1].Anchor)
	assert.Equal(t, 2, resp.Outline[0].Children[1].Level)
	assert.Empty(t, resp.Outline[1].Children)
}

func TestOutline_HTML(t *testing.T) {
	s := newTestServer(t, nil)
	body := `<html><body><h1 id="start">Start</h1><h2>Go &amp; more</h2></body></html>`
	rec := do(t, s, http.MethodPost, "/api/outline?filename=page.html", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp outlineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Outline, 1)
	assert.Equal(t, "start", resp.Outline[0].Anchor)
	require.Len(t, resp.Outline[0].Children, 1)
	assert.Equal(t, "Go & more", resp.Outline[0].Children[0].Text)
}

func TestOutline_Rejects(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/outline?filename=notes.txt", "x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/outline?filename=broken.pdf", "not a pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/toc", "# A\n## B\n", nil)
	do(t, s, http.MethodPost, "/api/toc", "<!-- toc -->\n", nil)

	rec := do(t, s, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Window string `json:"window"`
		Stats  struct {
			Count    int `json:"count"`
			Changed  int `json:"changed"`
			Failed   int `json:"failed"`
			Headings int `json:"headings"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1h0m0s", resp.Window)
	assert.Equal(t, 2, resp.Stats.Count)
	assert.Equal(t, 1, resp.Stats.Changed)
	assert.Equal(t, 1, resp.Stats.Failed)
	assert.Equal(t, 2, resp.Stats.Headings)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.APIKey = "secret" })

	rec := do(t, s, http.MethodPost, "/api/toc", "# A\n", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/toc", "# A\n", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/toc", "# A\n", http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public.
	rec = do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd.md", sanitizeFilename("../../etc/passwd.md"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
	assert.Equal(t, "a_b.md", sanitizeFilename(`a..b.md`))
}

func TestRequestLogger_TOCFields(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	s := NewServer(cfg, slog.New(slog.NewTextHandler(&logs, nil)))

	rec := do(t, s, http.MethodPost, "/api/toc", "# A\n## B\n", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "path=/api/toc")
	assert.Contains(t, logs.String(), "headings=2")
	assert.Contains(t, logs.String(), "toc_changed=true")

	logs.Reset()
	do(t, s, http.MethodGet, "/health", "", nil)
	assert.NotContains(t, logs.String(), "headings=")
}
