package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/EntityEditor/internal/export"
	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

const renderExample = `
  # Print the CREATE TABLE statements of the selected entities
  entityeditor render schema.yml

  # Export every entity with CRLF line endings into a file
  entityeditor render schema.yml --all --crlf -o schema.sql

  # Mark entities for export from the command line
  entityeditor render schema.json --select users --select orders
`

type renderOptions struct {
	All           bool
	Select        []string
	CRLF          bool
	QuoteDefaults string
	NullDefault   string
	Strict        bool
	Out           string
}

// document is the file format read by render. JSON documents parse too.
type document struct {
	Entities []documentEntity `yaml:"entities"`
}

type documentEntity struct {
	schema.EntityInput `yaml:",inline"`
	Selected           bool `yaml:"selected"`
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:     "render FILE",
		Short:   "Render a YAML or JSON entity document into a CREATE TABLE script.",
		Args:    cobra.ExactArgs(1),
		Example: strings.Trim(renderExample, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			if opts.Out == "" {
				return render(src, opts, cmd.OutOrStdout())
			}
			return renderFile(src, opts, opts.Out)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "export every entity instead of the selected ones")
	cmd.Flags().StringArrayVar(&opts.Select, "select", nil, "mark an entity for export (repeatable)")
	cmd.Flags().BoolVar(&opts.CRLF, "crlf", false, "use CRLF line endings")
	cmd.Flags().StringVar(&opts.QuoteDefaults, "quote-defaults", "always", "default value quoting: always, never or auto")
	cmd.Flags().StringVar(&opts.NullDefault, "null-default", "omit", "null defaults: omit or keep")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject invalid identifiers, types and duplicate names")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// renderFile writes the script to path.
func renderFile(src []byte, opts *renderOptions, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := renderAndClose(src, opts, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderAndClose renders into wc and closes it. A failed close is reported
// because the output may be incomplete.
func renderAndClose(src []byte, opts *renderOptions, wc io.WriteCloser) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()
	return render(src, opts, wc)
}

func render(src []byte, opts *renderOptions, out io.Writer) error {
	var doc document
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	ropts := schema.DefaultRenderOptions()
	if opts.CRLF {
		ropts.LineEnding = schema.CRLF
	}
	var err error
	if ropts.Quoting, err = schema.ParseDefaultQuoting(opts.QuoteDefaults); err != nil {
		return err
	}
	if ropts.NullDefault, err = schema.ParseNullDefault(opts.NullDefault); err != nil {
		return err
	}

	reg := schema.NewRegistry(schema.WithStrictValidation(opts.Strict))
	for i, in := range doc.Entities {
		if _, err := reg.Commit(schema.Draft{Index: schema.NewEntityIndex, Entity: in.Entity()}); err != nil {
			return fmt.Errorf("entity %d (%s): %w", i, in.Name, err)
		}
		if in.Selected {
			reg.SetSelected(in.Name, true)
		}
	}
	for _, name := range opts.Select {
		reg.SetSelected(name, true)
	}

	mode := export.ModeSelected
	if opts.All {
		mode = export.ModeAll
	}
	_, err = io.WriteString(out, export.New(ropts, mode).Export(reg))
	return err
}
