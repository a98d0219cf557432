package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func newPredictCmd(a *app) *cobra.Command {
	var orgID, projectID string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run all predictors for an organization or a single project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org is required")
			}
			report, err := a.predictionService(cmd.Context()).RunAllPredictions(cmd.Context(), orgID, optionalString(projectID))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&projectID, "project", "", "limit the run to one project")
	return cmd
}
