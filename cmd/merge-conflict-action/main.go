// The merge-conflict-action command is the GitHub Actions entrypoint. It
// scans the repository's open pull requests for file overlap with the pull
// request that triggered the workflow and reports what it finds.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sethvargo/go-githubactions"

	"github.com/darcymccoy/merge-conflict-action/pkg/action"
	"github.com/darcymccoy/merge-conflict-action/pkg/conflict"
)

func main() {
	ctx := context.Background()
	a := githubactions.New()

	// The runner sets RUNNER_DEBUG when a workflow is re-run with debug
	// logging enabled.
	level := slog.LevelInfo
	if os.Getenv("RUNNER_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	gc, err := a.Context()
	if err != nil {
		a.Fatalf("Failed to read workflow context: %v", err)
	}
	cfg, err := action.LoadConfig(ctx)
	if err != nil {
		a.Fatalf("Failed to read inputs: %v", err)
	}

	opts := []conflict.Option{conflict.WithLogger(logger)}
	if gc.APIURL != "" {
		opts = append(opts, conflict.WithBaseURL(gc.APIURL))
	}
	client, err := conflict.NewClient(cfg.GitHubToken, opts...)
	if err != nil {
		a.Fatalf("Failed to create client: %v", err)
	}

	if err := action.Run(ctx, a, gc, cfg, client); err != nil {
		a.Fatalf("%v", err)
	}
}
