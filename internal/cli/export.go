package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/y0ug/scanvault/internal/report"
)

func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a JSON report for one entry, or for the whole history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var (
					doc  any
					name string
				)
				if len(args) == 1 {
					one, filename, err := a.service.ExportEntry(args[0])
					if err != nil {
						return fmt.Errorf("%s: %w", args[0], err)
					}
					doc, name = one, filename
				} else {
					doc, name = a.service.ExportHistory()
				}

				if outputPath == "-" {
					return report.Encode(cmd.OutOrStdout(), doc)
				}
				if outputPath == "" {
					outputPath = name
				}
				if err := writeReport(outputPath, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: suggested report name, - for stdout)")
	return cmd
}

func writeReport(path string, doc any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.Encode(f, doc)
}
