package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/scanner"
	"github.com/y0ug/scanvault/internal/scanresult"
)

func newScanCmd() *cobra.Command {
	var fileType string

	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Send files to the scanning service and record the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]scanner.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				files = append(files, scanner.File{Name: filepath.Base(path), Data: data})
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				rep, err := a.service.ScanFiles(ctx, fileType, files)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				entries := make([]models.HistoryEntry, 0, len(rep.Results))
				for _, r := range rep.Results {
					entries = append(entries, scanresult.Entry(r))
				}
				if len(entries) > 0 {
					renderEntries(out, entries)
				}
				for _, f := range rep.Failures {
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAILED"), f.Filename, f.Err)
				}

				if len(rep.Results) == 0 {
					return errors.New("no file could be scanned")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "all", "accepted file category: all, pdf, db, zip, txt")
	return cmd
}
