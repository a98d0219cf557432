package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"insight-engine/services"
)

func newSyncPRsCmd(a *app) *cobra.Command {
	var orgID, repoName, projectID string
	cmd := &cobra.Command{
		Use:   "sync-prs",
		Short: "Import the open pull requests of a GitHub repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" || repoName == "" {
				return errors.New("--org and --repo are required")
			}
			owner, repo, err := services.ParseRepoFullName(repoName)
			if err != nil {
				return err
			}

			client := services.NewGitHubClient(a.cfg.GitHub.Token)
			n, err := services.SyncPullRequests(cmd.Context(), a.store, client, orgID, optionalString(projectID), owner, repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d open pull requests from %s/%s\n", n, owner, repo)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&repoName, "repo", "", "repository as owner/name")
	cmd.Flags().StringVar(&projectID, "project", "", "project the pull requests belong to")
	return cmd
}
