// Package main provides the conflicts command-line tool for spotting open
// pull requests that touch the same files as a given pull request.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"

	"github.com/darcymccoy/merge-conflict-action/pkg/conflict"
)

const (
	runTimeout       = 5 * time.Minute
	expectedURLParts = 4
	pullPathIndex    = 2
	pullPathValue    = "pull"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	includeDrafts := flag.Bool("include-drafts", false, "Also check draft pull requests")
	asJSON := flag.Bool("json", false, "Emit the result as JSON instead of markdown")
	versioninfo.AddFlag(nil)
	flag.Parse()

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [--debug] [--include-drafts] [--json] <pull-request-url>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s https://github.com/golang/go/pull/12345\n", os.Args[0])
		os.Exit(1)
	}

	owner, repo, prNumber, err := parsePRURL(flag.Arg(0))
	if err != nil {
		log.Printf("Invalid PR URL: %v", err)
		os.Exit(1)
	}

	token, err := githubToken()
	if err != nil {
		log.Printf("Failed to get GitHub token: %v", err)
		os.Exit(1)
	}

	var opts []conflict.Option
	if *debug {
		opts = append(opts, conflict.WithLogger(slog.Default()))
	}
	if apiURL := os.Getenv("GITHUB_API_URL"); apiURL != "" {
		opts = append(opts, conflict.WithBaseURL(apiURL))
	}

	client, err := conflict.NewClient(token, opts...)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := client.Scan(ctx, owner, repo, prNumber, *includeDrafts)
	if err != nil {
		log.Printf("Scan failed: %v", err)
		cancel()
		os.Exit(1) //nolint:gocritic // False positive: cancel() is called immediately before os.Exit()
	}

	if *asJSON {
		out := struct {
			Conflicts     []conflict.Record `json:"conflicts"`
			ConflictCount int               `json:"conflict_count"`
			ModifiedFiles int               `json:"modified_files"`
			HasConflicts  bool              `json:"has_conflicts"`
		}{
			Conflicts:     result.Conflicts,
			ConflictCount: len(result.Conflicts),
			ModifiedFiles: result.ModifiedFiles,
			HasConflicts:  len(result.Conflicts) > 0,
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			log.Printf("Failed to encode result: %v", err)
			cancel()
			os.Exit(1)
		}
		return
	}

	if len(result.Conflicts) == 0 {
		fmt.Printf("No overlapping pull requests found for #%d.\n", prNumber)
		return
	}
	fmt.Print(conflict.Summary(result.Conflicts))
}

// githubToken prefers GITHUB_TOKEN and falls back to the gh CLI.
func githubToken() (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	cmd := exec.CommandContext(context.Background(), "gh", "auth", "token")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to run 'gh auth token': %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("no token returned by 'gh auth token'")
	}

	return token, nil
}

// parsePRURL extracts owner, repo and number from a pull request URL such as
// https://github.com/owner/repo/pull/123.
func parsePRURL(prURL string) (owner, repo string, prNumber int, err error) { //nolint:revive // Function needs all 4 return values
	u, err := url.Parse(prURL)
	if err != nil {
		return "", "", 0, err
	}

	if u.Host != "github.com" {
		return "", "", 0, errors.New("not a github.com URL")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != expectedURLParts || parts[pullPathIndex] != pullPathValue {
		return "", "", 0, errors.New("expected https://github.com/<owner>/<repo>/pull/<number>")
	}

	prNumber, err = strconv.Atoi(parts[expectedURLParts-1])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid pull request number: %w", err)
	}

	return parts[0], parts[1], prNumber, nil
}
