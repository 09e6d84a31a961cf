package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tocgen/internal/config"
	"github.com/dgallion1/tocgen/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logFormat  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "tocgen",
		Short: "Generate and maintain Markdown tables of contents",
		Long: `tocgen scans Markdown headings, assigns GitHub-style anchors and keeps a
table of contents between two marker comments up to date:

  <!-- toc -->
  <!-- tocstop -->

Everything outside the markers is left byte-for-byte untouched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("tocgen %s\n", version.String()))
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newUpdateCmd(g),
		newOutlineCmd(g),
		newServeCmd(g),
	)
	return root
}

// load reads the configuration and applies the global flag overrides.
// apply, if set, adds the subcommand's own overrides before validation.
func (g *globalFlags) load(cmd *cobra.Command, apply func(*config.Config) error) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, nil, ioErr(err)
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if apply != nil {
		if err := apply(&cfg); err != nil {
			return cfg, nil, usageErr(err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, usageErr(fmt.Errorf("invalid configuration: %w", err))
	}
	return cfg, newLogger(cfg, cmd.ErrOrStderr()), nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// execute runs the command line and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "tocgen:", err)
	}
	return exitCode(err)
}
