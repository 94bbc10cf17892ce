package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the scanvault command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scanvault",
		Short: "Keep, inspect and export file scan results",
		Long: `scanvault sends files to a scanning service, keeps the most recent
results in a durable history and exports them as JSON reports.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found. Proceeding with environment variables.")
			}
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of scanvault",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scanvault version %s\n", version)
		},
	}
}

// newLogger returns a JSON logger writing to w at LOG_LEVEL (info by default).
func newLogger(w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(w)

	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
