package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/patch"
	"github.com/dgallion1/tocgen/internal/render"
	"github.com/dgallion1/tocgen/internal/slug"
	"github.com/dgallion1/tocgen/internal/toc"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = ".tocgen.yaml"

type Config struct {
	Markers   MarkersConfig  `yaml:"markers"`
	Headings  HeadingsConfig `yaml:"headings"`
	Render    RenderConfig   `yaml:"render"`
	Placement string         `yaml:"placement"`
	// Placeholder anchors headings whose text slugs to nothing.
	Placeholder string `yaml:"placeholder"`

	// Batch
	Workers int `yaml:"workers"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type MarkersConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type HeadingsConfig struct {
	Marker      string `yaml:"marker"`
	MaxLevel    int    `yaml:"max_level"`
	Setext      bool   `yaml:"setext"`
	FrontMatter bool   `yaml:"front_matter"`
}

type RenderConfig struct {
	Format     string `yaml:"format"`
	MaxDepth   int    `yaml:"max_depth"`
	MinLevel   int    `yaml:"min_level"`
	Ordered    bool   `yaml:"ordered"`
	LinkPrefix string `yaml:"link_prefix"`
	Bullet     string `yaml:"bullet"`
	Indent     int    `yaml:"indent"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	StatsWindow    time.Duration `yaml:"stats_window"`
}

type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Markers: MarkersConfig{Start: patch.DefaultStart, End: patch.DefaultEnd},
		Headings: HeadingsConfig{
			Marker:      "#",
			MaxLevel:    heading.MaxSupportedLevel,
			Setext:      true,
			FrontMatter: true,
		},
		Render: RenderConfig{
			Format:     string(render.FormatMarkdown),
			LinkPrefix: "#",
			Bullet:     "-",
		},
		Placement:   string(patch.AfterHeading),
		Placeholder: slug.DefaultPlaceholder,
		Workers:     runtime.GOMAXPROCS(0),
		Server: ServerConfig{
			Port:           "8090",
			MaxUploadBytes: 10 << 20, // 10MB
			StatsWindow:    time.Hour,
		},
		Log: LogConfig{Format: "text", Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path,
// then TOCGEN_* environment variables. An empty path reads DefaultFile if
// it exists; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	file, required := path, true
	if file == "" {
		file, required = DefaultFile, false
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Markers.Start = envOr("TOCGEN_START_MARKER", c.Markers.Start)
	c.Markers.End = envOr("TOCGEN_END_MARKER", c.Markers.End)

	c.Headings.Marker = envOr("TOCGEN_HEADING_MARKER", c.Headings.Marker)
	c.Headings.MaxLevel = envInt("TOCGEN_MAX_LEVEL", c.Headings.MaxLevel)
	c.Headings.Setext = envBool("TOCGEN_SETEXT", c.Headings.Setext)
	c.Headings.FrontMatter = envBool("TOCGEN_FRONT_MATTER", c.Headings.FrontMatter)

	c.Render.Format = envOr("TOCGEN_FORMAT", c.Render.Format)
	c.Render.MaxDepth = envInt("TOCGEN_MAX_DEPTH", c.Render.MaxDepth)
	c.Render.MinLevel = envInt("TOCGEN_MIN_LEVEL", c.Render.MinLevel)
	c.Render.Ordered = envBool("TOCGEN_ORDERED", c.Render.Ordered)
	c.Render.LinkPrefix = envOr("TOCGEN_LINK_PREFIX", c.Render.LinkPrefix)
	c.Render.Bullet = envOr("TOCGEN_BULLET", c.Render.Bullet)
	c.Render.Indent = envInt("TOCGEN_INDENT", c.Render.Indent)

	c.Placement = envOr("TOCGEN_PLACEMENT", c.Placement)
	c.Placeholder = envOr("TOCGEN_PLACEHOLDER", c.Placeholder)
	c.Workers = envInt("TOCGEN_WORKERS", c.Workers)

	c.Server.Port = envOr("PORT", c.Server.Port)
	c.Server.APIKey = envOr("TOCGEN_API_KEY", c.Server.APIKey)
	c.Server.MaxUploadBytes = envInt64("TOCGEN_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	c.Server.StatsWindow = envDuration("TOCGEN_STATS_WINDOW", c.Server.StatsWindow)

	c.Log.Format = envOr("TOCGEN_LOG_FORMAT", c.Log.Format)
	c.Log.Level = envOr("TOCGEN_LOG_LEVEL", c.Log.Level)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Markers.Start) == "" || strings.TrimSpace(c.Markers.End) == "" {
		return fmt.Errorf("markers.start and markers.end must not be empty")
	}
	if strings.TrimSpace(c.Markers.Start) == strings.TrimSpace(c.Markers.End) {
		return fmt.Errorf("markers.start and markers.end must differ")
	}
	if strings.ContainsAny(c.Markers.Start+c.Markers.End, "\r\n") {
		return fmt.Errorf("markers must be single lines")
	}
	if len(c.Headings.Marker) != 1 || isWordByte(c.Headings.Marker[0]) {
		return fmt.Errorf("headings.marker must be one punctuation character, got %q", c.Headings.Marker)
	}
	if strings.HasPrefix(strings.TrimSpace(c.Markers.Start), c.Headings.Marker) ||
		strings.HasPrefix(strings.TrimSpace(c.Markers.End), c.Headings.Marker) {
		return fmt.Errorf("markers must not start with the heading marker %q", c.Headings.Marker)
	}
	if m := c.Headings.Marker; c.Headings.Setext && (m == "=" || m == "-") {
		return fmt.Errorf("headings.marker %q conflicts with setext underlines", m)
	}
	if c.Headings.MaxLevel < 1 || c.Headings.MaxLevel > heading.MaxSupportedLevel {
		return fmt.Errorf("headings.max_level must be between 1 and %d, got %d", heading.MaxSupportedLevel, c.Headings.MaxLevel)
	}
	if _, err := render.ParseFormat(c.Render.Format); err != nil {
		return err
	}
	if c.Render.MaxDepth < 0 {
		return fmt.Errorf("render.max_depth must not be negative")
	}
	if c.Render.MinLevel < 0 || c.Render.MinLevel > heading.MaxSupportedLevel {
		return fmt.Errorf("render.min_level must be between 0 and %d", heading.MaxSupportedLevel)
	}
	if c.Render.MaxDepth > 0 && c.Render.MinLevel > c.Render.MaxDepth {
		return fmt.Errorf("render.min_level %d exceeds render.max_depth %d", c.Render.MinLevel, c.Render.MaxDepth)
	}
	switch c.Render.Bullet {
	case "-", "*", "+":
	default:
		return fmt.Errorf("render.bullet must be one of - * +, got %q", c.Render.Bullet)
	}
	if c.Render.Indent < 0 || c.Render.Indent > 8 {
		return fmt.Errorf("render.indent must be between 0 and 8")
	}
	if _, err := patch.ParsePlacement(c.Placement); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// TOC converts the configuration into engine options. Call Validate first.
func (c Config) TOC() toc.Options {
	opts := toc.DefaultOptions()

	opts.Heading.Marker = c.Headings.Marker[0]
	opts.Heading.MaxLevel = c.Headings.MaxLevel
	opts.Heading.Setext = c.Headings.Setext
	opts.Heading.FrontMatter = c.Headings.FrontMatter

	opts.Placeholder = c.Placeholder

	format, _ := render.ParseFormat(c.Render.Format)
	opts.Render.Format = format
	opts.Render.MaxDepth = c.Render.MaxDepth
	opts.Render.MinLevel = c.Render.MinLevel
	opts.Render.Ordered = c.Render.Ordered
	opts.Render.LinkPrefix = c.Render.LinkPrefix
	opts.Render.Bullet = c.Render.Bullet
	opts.Render.Indent = c.Render.Indent
	// Follow each document's own line endings.
	opts.Render.Newline = ""

	placement, _ := patch.ParsePlacement(c.Placement)
	opts.Patch.Start = c.Markers.Start
	opts.Patch.End = c.Markers.End
	opts.Patch.Placement = placement
	return opts
}

func isWordByte(b byte) bool {
	return b == ' ' || b == '\t' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
