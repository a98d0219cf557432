package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"

	"insight-engine/datastore"
	"insight-engine/models"
)

// NewGitHubClient returns an authenticated client, or an anonymous one when token is empty.
func NewGitHubClient(token string) *github.Client {
	if token == "" {
		slog.Warn("github token is not set, using anonymous client")
		return github.NewClient(nil)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return github.NewClient(tc)
}

// ParseRepoFullName splits "owner/repo".
func ParseRepoFullName(fullName string) (owner string, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name: %q (expected owner/repo)", fullName)
	}
	return parts[0], parts[1], nil
}

// GetDisplayName prefers the user's name and falls back to the login.
func GetDisplayName(user *github.User) string {
	if user == nil {
		return ""
	}
	if user.Name != nil && *user.Name != "" {
		return *user.Name
	}
	if user.Login != nil {
		return *user.Login
	}
	return ""
}

// PullRequestFromGitHub converts a GitHub pull request into the stored record.
func PullRequestFromGitHub(orgID string, projectID *string, repoFullName string, pr *github.PullRequest) models.PullRequest {
	state := pr.GetState()
	if pr.MergedAt != nil {
		state = models.PullRequestStateMerged
	}
	record := models.PullRequest{
		OrganizationID: orgID,
		ProjectID:      projectID,
		Repo:           repoFullName,
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		URL:            pr.GetHTMLURL(),
		Author:         pr.GetUser().GetLogin(),
		AuthorName:     GetDisplayName(pr.GetUser()),
		State:          state,
		Draft:          pr.GetDraft(),
		OpenedAt:       pr.GetCreatedAt().UTC(),
	}
	if pr.MergedAt != nil {
		t := pr.GetMergedAt().UTC()
		record.MergedAt = &t
	}
	if pr.ClosedAt != nil {
		t := pr.GetClosedAt().UTC()
		record.ClosedAt = &t
	}
	if record.OpenedAt.IsZero() {
		record.OpenedAt = time.Now().UTC()
	}
	return record
}

// SyncPullRequests pulls every open pull request of owner/repo into the datastore.
// Stored pull requests still marked open that GitHub no longer lists as open are
// fetched one by one so their merged or closed state is recorded.
func SyncPullRequests(ctx context.Context, store datastore.Gateway, client *github.Client, orgID string, projectID *string, owner, repo string) (int, error) {
	fullName := fmt.Sprintf("%s/%s", owner, repo)
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	synced := 0
	listed := map[int]bool{}
	for {
		prs, resp, err := client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return synced, fmt.Errorf("failed to list pull requests for %s: %w", fullName, err)
		}
		for _, pr := range prs {
			listed[pr.GetNumber()] = true
			record := PullRequestFromGitHub(orgID, projectID, fullName, pr)
			if err := store.UpsertPullRequest(ctx, &record); err != nil {
				slog.Warn("pull request upsert failed", "repo", fullName, "number", pr.GetNumber(), "err", err)
				continue
			}
			synced++
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	refreshed, err := refreshClosedPullRequests(ctx, store, client, orgID, projectID, owner, repo, listed)
	synced += refreshed
	if err != nil {
		return synced, err
	}

	slog.Info("pull requests synced", "org", orgID, "repo", fullName, "count", synced, "refreshed", refreshed)
	return synced, nil
}

func refreshClosedPullRequests(ctx context.Context, store datastore.Gateway, client *github.Client, orgID string, projectID *string, owner, repo string, listed map[int]bool) (int, error) {
	fullName := fmt.Sprintf("%s/%s", owner, repo)
	stored, err := store.ListPullRequests(ctx, orgID, datastore.PullRequestFilter{Repo: fullName, State: models.PullRequestStateOpen})
	if err != nil {
		return 0, fmt.Errorf("failed to load stored pull requests for %s: %w", fullName, err)
	}

	refreshed := 0
	for _, existing := range stored {
		if listed[existing.Number] {
			continue
		}
		pr, _, err := client.PullRequests.Get(ctx, owner, repo, existing.Number)
		if err != nil {
			slog.Warn("pull request refresh failed", "repo", fullName, "number", existing.Number, "err", err)
			continue
		}
		pid := projectID
		if pid == nil {
			pid = existing.ProjectID
		}
		record := PullRequestFromGitHub(orgID, pid, fullName, pr)
		if err := store.UpsertPullRequest(ctx, &record); err != nil {
			slog.Warn("pull request upsert failed", "repo", fullName, "number", existing.Number, "err", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
