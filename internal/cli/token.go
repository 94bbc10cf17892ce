package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/y0ug/scanvault/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the HTTP API (AUTH_TYPE=jwt)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authConfig, err := auth.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to initialize auth config: %w", err)
			}
			token, err := auth.IssueToken(authConfig, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "scanvault", "token subject")
	return cmd
}
