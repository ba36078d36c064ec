// Package action runs the merge-conflict check as a GitHub Action: it reads
// the workflow inputs and event payload, scans the repository's other open
// pull requests for file overlap, and reports the result through step
// outputs, the job summary and an optional pull request comment.
package action

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/sethvargo/go-githubactions"

	"github.com/darcymccoy/merge-conflict-action/pkg/conflict"
)

// Client is the part of the conflict scanner the runner drives.
type Client interface {
	Scan(ctx context.Context, owner, repo string, number int, includeDrafts bool) (*conflict.Result, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
}

// errNotPullRequest is returned when the workflow event carries no pull
// request. The wording is part of the action's contract.
var errNotPullRequest = errors.New("This action must be triggered by a pull_request event")

// Run executes one conflict scan for the pull request that triggered the
// workflow. It fails only when the event carries no pull request or the scan
// itself cannot complete; reporting problems degrade to warnings.
func Run(ctx context.Context, a *githubactions.Action, gc *githubactions.GitHubContext, cfg *Config, client Client) error {
	number, ok := pullRequestNumber(gc)
	if !ok {
		return errNotPullRequest
	}
	owner, repo := gc.Repo()
	if owner == "" || repo == "" {
		return errors.New("GITHUB_REPOSITORY is not set")
	}

	result, err := client.Scan(ctx, owner, repo, number, cfg.IncludeDrafts)
	if err != nil {
		return err
	}

	report(ctx, a, cfg, client, owner, repo, number, result)
	return nil
}

// pullRequestNumber extracts the pull request number from the event payload.
// pull_request and pull_request_target payloads carry one; other events
// (push, schedule, workflow_dispatch) do not.
func pullRequestNumber(gc *githubactions.GitHubContext) (int, bool) {
	pr, ok := gc.Event["pull_request"].(map[string]any)
	if !ok {
		return 0, false
	}
	number, ok := pr["number"].(float64)
	if !ok {
		return 0, false
	}
	return int(number), true
}

// report publishes the scan result. Outputs are written before the comment
// attempt so a failed post can never mask a computed result.
func report(ctx context.Context, a *githubactions.Action, cfg *Config, client Client, owner, repo string, number int, result *conflict.Result) {
	count := len(result.Conflicts)
	a.SetOutput("has-conflicts", strconv.FormatBool(count > 0))
	a.SetOutput("conflict-count", strconv.Itoa(count))
	a.Infof("Current PR modifies %d files", result.ModifiedFiles)

	if count == 0 {
		a.Infof("No potential merge conflicts detected")
		return
	}

	for _, r := range result.Conflicts {
		a.Warningf("PR #%d may have conflicts: %d overlapping files", r.Number, len(r.Files))
	}

	payload, err := json.Marshal(result.Conflicts)
	if err != nil {
		a.Warningf("Could not encode conflicts output: %v", err)
	} else {
		a.SetOutput("conflicts", string(payload))
	}

	summary := conflict.Summary(result.Conflicts)
	a.AddStepSummary(summary)

	if !cfg.PostComments {
		return
	}
	if err := client.CreateComment(ctx, owner, repo, number, summary); err != nil {
		if conflict.IsPermissionError(err) {
			a.Warningf("Could not post comment: the token needs the 'pull-requests: write' permission")
		} else {
			a.Warningf("Could not post comment: %v", err)
		}
		return
	}
	a.Infof("Posted conflict summary to PR #%d", number)
}
