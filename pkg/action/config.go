package action

import (
	"context"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the action's inputs. The Actions runner exposes every input
// declared in action.yml as an INPUT_* environment variable, preserving any
// hyphen in the input's name.
type Config struct {
	// GitHubToken authenticates API access. The workflow's GITHUB_TOKEN is
	// enough for scanning; posting comments additionally needs the
	// pull-requests: write permission.
	GitHubToken string `env:"INPUT_GITHUB_TOKEN, required"`

	// IncludeDrafts also checks pull requests still marked as drafts.
	IncludeDrafts bool `env:"INPUT_INCLUDE_DRAFTS, default=false"`

	// PostComments posts the conflict summary as a comment on the pull
	// request that triggered the run.
	PostComments bool `env:"INPUT_POST_COMMENTS, default=false"`
}

// LoadConfig reads the action's inputs from the environment.
func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: inputLookuper{next: lookuper}}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// inputLookuper resolves workflow inputs against the runner's environment.
// An input named "include-drafts" arrives as INPUT_INCLUDE-DRAFTS, but
// envconfig rejects hyphens in struct tag keys, so the tags carry the
// underscore form and a miss retries the hyphenated name.
type inputLookuper struct {
	next envconfig.Lookuper
}

// Lookup implements envconfig.Lookuper.
func (l inputLookuper) Lookup(key string) (string, bool) {
	if value, ok := l.next.Lookup(key); ok {
		return value, true
	}
	name, ok := strings.CutPrefix(key, "INPUT_")
	if !ok {
		return "", false
	}
	return l.next.Lookup("INPUT_" + strings.ReplaceAll(name, "_", "-"))
}
