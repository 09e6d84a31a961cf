package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tocgen/internal/config"
	"github.com/dgallion1/tocgen/internal/source"
	"github.com/dgallion1/tocgen/internal/toc"
)

func newOutlineCmd(g *globalFlags) *cobra.Command {
	var (
		engine   engineFlags
		filename string
	)
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the TOC of a Markdown, HTML, DOCX or PDF document",
		Long: `Outline reads the headings of a document and prints the rendered TOC to
standard output without modifying anything. The format is chosen by file
extension; for "-" (standard input) pass --filename to name the format.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, func(c *config.Config) error {
				engine.apply(cmd, c)
				return nil
			})
			if err != nil {
				return err
			}

			path := args[0]
			name := path
			if filename != "" {
				name = filename
			}
			if name == "-" {
				return usageErr(errors.New("--filename is required when reading standard input"))
			}
			opts := cfg.TOC()
			src, err := source.ForFile(name, opts.HeadingOptions())
			if err != nil {
				return usageErr(err)
			}

			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			records, err := src.Headings(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug("headings extracted", "path", path, "count", len(records))

			fragment, _, err := toc.Fragment(records, opts)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(fragment); err != nil {
				return ioErr(err)
			}
			return nil
		},
	}
	engine.register(cmd)
	cmd.Flags().StringVar(&filename, "filename", "", "name used to pick the document format")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, ioErr(fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}
