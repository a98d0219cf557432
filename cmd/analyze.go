package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insight-engine/models"
	"insight-engine/services"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var orgID, file, contextFile, projectID string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate tasks, bottlenecks and predictions from repository analyses",
		Long: `Reads a JSON array of repository analyses and creates the derived work items.
An optional --context file holds the project context object (description, goals,
techStack, milestones).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" || file == "" {
				return errors.New("--org and --file are required")
			}

			var repos []models.RepositoryAnalysis
			if err := readJSONFile(file, &repos); err != nil {
				return err
			}
			var projectContext *models.ProjectContext
			if contextFile != "" {
				projectContext = &models.ProjectContext{}
				if err := readJSONFile(contextFile, projectContext); err != nil {
					return err
				}
			}

			result, err := a.analyzer(cmd.Context()).AnalyzeAndGenerate(cmd.Context(), services.AnalyzeRequest{
				OrganizationID:  orgID,
				Repositories:    repos,
				ProjectContext:  projectContext,
				TargetProjectID: projectID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with repository analyses")
	cmd.Flags().StringVar(&contextFile, "context", "", "JSON file with the project context")
	cmd.Flags().StringVar(&projectID, "project", "", "project that receives bottlenecks and predictions")
	return cmd
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
