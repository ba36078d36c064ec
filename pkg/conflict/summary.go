package conflict

import (
	"fmt"
	"strings"
)

// maxListedFiles caps how many overlapping files the summary lists per pull
// request before eliding the rest.
const maxListedFiles = 10

// Summary renders the conflict records as the markdown document published to
// the workflow step summary and, optionally, posted as a pull request
// comment.
func Summary(records []Record) string {
	var b strings.Builder
	b.WriteString("## Potential Merge Conflicts Detected\n\n")
	b.WriteString("The following PRs modify the same files and may have conflicts when this PR is merged:\n\n")

	for _, r := range records {
		fmt.Fprintf(&b, "### PR #%d: %s\n", r.Number, r.Title)
		fmt.Fprintf(&b, "**Overlapping files (%d):**\n", len(r.Files))
		for i, file := range r.Files {
			if i == maxListedFiles {
				fmt.Fprintf(&b, "- ... and %d more\n", len(r.Files)-maxListedFiles)
				break
			}
			fmt.Fprintf(&b, "- `%s`\n", file)
		}
		b.WriteString("\n")
	}

	b.WriteString("> **Note:** This is a heuristic check based on file overlap. Actual merge conflicts may or may not occur.\n")
	return b.String()
}
