package conflict

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
)

// maxPerPage is the largest page size the GitHub list endpoints accept.
const maxPerPage = 100

// restClient implements the client's GitHub surface over the REST API.
type restClient struct {
	client *github.Client
	logger *slog.Logger
}

// openPullRequests lists the repository's open pull requests, most recently
// updated first. Pages are requested until a short page ends the listing.
func (r *restClient) openPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var open []PullRequest
	page := 1

	for {
		opts := &github.PullRequestListOptions{
			State:       "open",
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: github.ListOptions{Page: page, PerPage: maxPerPage},
		}
		prs, _, err := r.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}

		for _, pr := range prs {
			open = append(open, PullRequest{
				Number: pr.GetNumber(),
				Title:  pr.GetTitle(),
				Draft:  pr.GetDraft(),
			})
		}

		if len(prs) < maxPerPage {
			break
		}
		page++
	}

	r.logger.DebugContext(ctx, "listed open pull requests",
		"owner", owner, "repo", repo, "count", len(open), "pages", page)
	return open, nil
}

// pullRequestFiles lists every file the pull request touches. Pages are
// concatenated in request order and entries pass through exactly as
// reported, duplicates included.
func (r *restClient) pullRequestFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error) {
	var files []FileChange
	page := 1

	for {
		opts := &github.ListOptions{Page: page, PerPage: maxPerPage}
		commitFiles, _, err := r.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}

		for _, cf := range commitFiles {
			files = append(files, FileChange{
				Filename: cf.GetFilename(),
				Status:   cf.GetStatus(),
			})
		}

		if len(commitFiles) < maxPerPage {
			break
		}
		page++
	}

	r.logger.DebugContext(ctx, "listed pull request files",
		"pr", number, "count", len(files), "pages", page)
	return files, nil
}

// createComment posts an issue comment on the pull request.
func (r *restClient) createComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.String(body)}
	_, _, err := r.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	return err
}

// IsPermissionError reports whether err is the GitHub API rejecting the
// token's access level, as opposed to a transient or unrelated failure.
func IsPermissionError(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	if ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusForbidden {
		return true
	}
	return strings.Contains(ghErr.Message, "Resource not accessible")
}
