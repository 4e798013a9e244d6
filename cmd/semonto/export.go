package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/semonto/export"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/tracking"
)

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		format     string
		output     string
		experiment string
		run        string
		kind       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the tracking store to RDF and print it",
		Long: `Export converts every experiment, run and run object of the tracking
store into an in-memory graph and serializes it.

Formats: ` + strings.Join(export.FormatNames(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			app, err := NewApp(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			filter := tracking.Filter{
				StorageType:  tracking.StorageType(kind),
				ExperimentID: experiment,
				RunID:        run,
			}
			g, sum, err := app.plugin.ListToRDF(cmd.Context(), filter, app.plugin.NewGraph())
			if err != nil {
				return err
			}
			app.plugin.Wait()

			mem := g.(*graph.Memory)
			app.logger.Info("Converted tracking store",
				"experiments", sum.Experiments,
				"runs", sum.Runs,
				"objects", sum.Objects,
				"failed", sum.Failed,
				"triples", mem.Len())

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				w = file
			}

			exporter := export.NewExporter(app.cfg.Ontology.BaseURI)
			return exporter.Write(w, mem.Triples(), f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTurtle), "Output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&experiment, "experiment", "", "Only convert this experiment")
	cmd.Flags().StringVar(&run, "run", "", "Only convert this run")
	cmd.Flags().StringVar(&kind, "kind", "", "Only convert objects of this storage type")

	return cmd
}
