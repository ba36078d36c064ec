package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// HTTP client configuration constants.
const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
	requestTimeout      = 30 * time.Second
)

// Client scans a repository's open pull requests for file overlap with one
// pull request.
type Client struct {
	github interface {
		openPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error)
		pullRequestFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error)
		createComment(ctx context.Context, owner, repo string, number int, body string) error
	}
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client. The caller owns authentication;
// the transport is wrapped with retry logic if it is not already.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient.Transport == nil {
			httpClient.Transport = &RetryTransport{Base: http.DefaultTransport}
		} else if _, ok := httpClient.Transport.(*RetryTransport); !ok {
			httpClient.Transport = &RetryTransport{Base: httpClient.Transport}
		}
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at a different API endpoint, such as a
// GitHub Enterprise installation or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a client that authenticates with the given token. Unless
// WithHTTPClient supplies one, requests go through a pooled HTTP client with
// retries for rate limits and server errors.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
		}
		c.httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
				Base:   &RetryTransport{Base: transport},
			},
			Timeout: requestTimeout,
		}
	}

	gh := github.NewClient(c.httpClient)
	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
		}
		gh.BaseURL = u
	}
	c.github = &restClient{client: gh, logger: c.logger}
	return c, nil
}

// Scan checks every other open pull request in owner/repo for file overlap
// with pull request number. Candidates are fetched one at a time in the
// most-recently-updated-first order the listing returns; the first listing
// or fetch error aborts the scan and is returned as-is.
func (c *Client) Scan(ctx context.Context, owner, repo string, number int, includeDrafts bool) (*Result, error) {
	c.logger.InfoContext(ctx, "scanning for file overlap",
		"owner", owner, "repo", repo, "pr", number, "include_drafts", includeDrafts)

	current, err := c.github.pullRequestFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "fetched current pull request files",
		"pr", number, "files", len(current))

	open, err := c.github.openPullRequests(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	result := &Result{ModifiedFiles: modifiedCount(current)}
	for _, candidate := range candidates(open, number, includeDrafts) {
		files, err := c.github.pullRequestFiles(ctx, owner, repo, candidate.Number)
		if err != nil {
			return nil, err
		}
		overlap := Detect(current, files)
		if len(overlap) == 0 {
			c.logger.DebugContext(ctx, "no overlap", "pr", candidate.Number, "files", len(files))
			continue
		}
		c.logger.WarnContext(ctx, "pull request may have conflicts",
			"pr", candidate.Number, "overlapping_files", len(overlap))
		result.Conflicts = append(result.Conflicts, Record{
			Number: candidate.Number,
			Title:  candidate.Title,
			Files:  overlap,
		})
	}

	c.logger.InfoContext(ctx, "scan complete",
		"pr", number, "open_prs", len(open), "conflicts", len(result.Conflicts))
	return result, nil
}

// CreateComment posts body as an issue comment on the pull request.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	return c.github.createComment(ctx, owner, repo, number, body)
}

// candidates filters the open pull requests down to the ones worth fetching:
// the current pull request is dropped by number, and drafts are dropped
// unless includeDrafts is set. Listing order is preserved.
func candidates(open []PullRequest, current int, includeDrafts bool) []PullRequest {
	kept := make([]PullRequest, 0, len(open))
	for _, pr := range open {
		if pr.Number == current {
			continue
		}
		if pr.Draft && !includeDrafts {
			continue
		}
		kept = append(kept, pr)
	}
	return kept
}

// modifiedCount counts the distinct filenames that qualify as conflict
// sources. Paginated listings can repeat a file, so names are deduplicated.
func modifiedCount(files []FileChange) int {
	seen := make(map[string]bool, len(files))
	for _, fc := range files {
		if conflictSource(fc.Status) {
			seen[fc.Filename] = true
		}
	}
	return len(seen)
}
