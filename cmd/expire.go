package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"insight-engine/services"
)

func newExpireCmd(a *app) *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Deactivate predictions past their validity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org is required")
			}
			n, err := services.ExpirePredictions(cmd.Context(), a.store, orgID, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %d expired predictions\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	return cmd
}
