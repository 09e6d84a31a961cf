package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/tocgen/internal/patch"
	"github.com/dgallion1/tocgen/internal/render"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Markers.Start != patch.DefaultStart {
		t.Errorf("expected default start marker, got %q", cfg.Markers.Start)
	}
}

func TestLoad_MissingNamedFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tocgen.yaml")
	content := `
markers:
  start: "<!-- BEGIN TOC -->"
render:
  max_depth: 3
  ordered: true
placement: top
server:
  stats_window: 15m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TOCGEN_MAX_DEPTH", "2")
	t.Setenv("TOCGEN_LOG_FORMAT", "json")
	t.Setenv("TOCGEN_WORKERS", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Markers.Start != "<!-- BEGIN TOC -->" {
		t.Errorf("expected start marker from file, got %q", cfg.Markers.Start)
	}
	if cfg.Markers.End != patch.DefaultEnd {
		t.Errorf("expected unset end marker to keep default, got %q", cfg.Markers.End)
	}
	if cfg.Render.MaxDepth != 2 {
		t.Errorf("expected env to override max_depth, got %d", cfg.Render.MaxDepth)
	}
	if !cfg.Render.Ordered || cfg.Placement != "top" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Server.StatsWindow != 15*time.Minute {
		t.Errorf("expected 15m stats window, got %v", cfg.Server.StatsWindow)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json log format, got %q", cfg.Log.Format)
	}
	if cfg.Workers != Default().Workers {
		t.Errorf("expected invalid env value to be ignored, got %d", cfg.Workers)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty start", func(c *Config) { c.Markers.Start = " " }, "must not be empty"},
		{"same markers", func(c *Config) { c.Markers.End = c.Markers.Start }, "must differ"},
		{"marker looks like heading", func(c *Config) { c.Markers.Start = "# TOC" }, "must not start with the heading marker"},
		{"letter marker", func(c *Config) { c.Headings.Marker = "a" }, "punctuation"},
		{"setext conflict", func(c *Config) { c.Headings.Marker = "=" }, "conflicts with setext"},
		{"max level", func(c *Config) { c.Headings.MaxLevel = 7 }, "max_level"},
		{"format", func(c *Config) { c.Render.Format = "rst" }, "unknown TOC format"},
		{"min above max", func(c *Config) { c.Render.MaxDepth = 2; c.Render.MinLevel = 3 }, "exceeds"},
		{"bullet", func(c *Config) { c.Render.Bullet = "o" }, "bullet"},
		{"placement", func(c *Config) { c.Placement = "middle" }, "unknown placement"},
		{"workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errMsg, err)
			}
		})
	}
}

func TestTOC(t *testing.T) {
	cfg := Default()
	cfg.Headings.Marker = "="
	cfg.Headings.Setext = false
	cfg.Render.Format = "html"
	cfg.Render.MaxDepth = 2
	cfg.Placement = "bottom"
	cfg.Markers.Start = "<!-- a -->"

	opts := cfg.TOC()
	if opts.Heading.Marker != '=' || opts.Heading.Setext {
		t.Errorf("heading options not applied: %+v", opts.Heading)
	}
	if opts.Render.Format != render.FormatHTML || opts.Render.MaxDepth != 2 {
		t.Errorf("render options not applied: %+v", opts.Render)
	}
	if opts.Patch.Placement != patch.Bottom || opts.Patch.Start != "<!-- a -->" {
		t.Errorf("patch options not applied: %+v", opts.Patch)
	}
}
