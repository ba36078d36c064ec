package action

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadConfig(t *testing.T) {
	// The hyphenated keys mirror what the runner actually exports for inputs
	// like include-drafts; the underscore cases cover direct tag-key hits.
	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "hyphenated runner variables",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN":   "ghs_testtoken",
				"INPUT_INCLUDE-DRAFTS": "true",
				"INPUT_POST-COMMENTS":  "true",
			},
			want: Config{
				GitHubToken:   "ghs_testtoken",
				IncludeDrafts: true,
				PostComments:  true,
			},
		},
		{
			name: "underscore variables",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN":   "ghs_testtoken",
				"INPUT_INCLUDE_DRAFTS": "true",
				"INPUT_POST_COMMENTS":  "true",
			},
			want: Config{
				GitHubToken:   "ghs_testtoken",
				IncludeDrafts: true,
				PostComments:  true,
			},
		},
		{
			name: "underscore form wins over hyphenated",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN":   "ghs_testtoken",
				"INPUT_INCLUDE_DRAFTS": "true",
				"INPUT_INCLUDE-DRAFTS": "false",
			},
			want: Config{GitHubToken: "ghs_testtoken", IncludeDrafts: true},
		},
		{
			name: "defaults when only token set",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN": "ghs_testtoken",
			},
			want: Config{GitHubToken: "ghs_testtoken"},
		},
		{
			name: "explicit false",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN":   "ghs_testtoken",
				"INPUT_INCLUDE-DRAFTS": "false",
				"INPUT_POST-COMMENTS":  "false",
			},
			want: Config{GitHubToken: "ghs_testtoken"},
		},
		{
			name:    "missing token",
			env:     map[string]string{"INPUT_INCLUDE-DRAFTS": "true"},
			wantErr: true,
		},
		{
			name: "malformed boolean",
			env: map[string]string{
				"INPUT_GITHUB_TOKEN":  "ghs_testtoken",
				"INPUT_POST-COMMENTS": "yes please",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(tt.env))
			if tt.wantErr {
				if err == nil {
					t.Fatal("loadConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("loadConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}
