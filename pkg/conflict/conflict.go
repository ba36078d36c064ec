// Package conflict flags open pull requests that touch the same files as a
// given pull request. The check is a coarse file-overlap heuristic: it only
// compares which files each pull request modifies or removes, never diff
// contents, so it warns about likely merge conflicts without proving them.
package conflict

// File change statuses reported by the GitHub API.
const (
	StatusAdded     = "added"
	StatusRemoved   = "removed"
	StatusModified  = "modified"
	StatusRenamed   = "renamed"
	StatusCopied    = "copied"
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
)

// FileChange is a single file touched by a pull request, as reported by the
// GitHub API. It is a snapshot; the scan never mutates it.
type FileChange struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// PullRequest carries the candidate metadata the scan needs.
type PullRequest struct {
	Title  string
	Number int
	Draft  bool
}

// Record describes one open pull request whose changes overlap the current
// one, with the overlapping filenames in detection order.
type Record struct {
	Number int      `json:"prNumber"`
	Title  string   `json:"prTitle"`
	Files  []string `json:"conflictingFiles"`
}

// Result aggregates one scan over a repository's open pull requests.
type Result struct {
	// Conflicts holds one record per overlapping pull request, in the order
	// the candidates were listed (most recently updated first).
	Conflicts []Record

	// ModifiedFiles counts the distinct files the current pull request
	// modifies or removes; only those can flag an overlap.
	ModifiedFiles int
}

// conflictSource reports whether a file with the given status counts as a
// conflict source. Only files a pull request actively edits or deletes do;
// added, renamed, copied, changed and unchanged files never flag overlap.
func conflictSource(status string) bool {
	return status == StatusModified || status == StatusRemoved
}

// Detect returns the filenames that both pull requests modify or remove. The
// result preserves the order of other and keeps duplicates, so a filename
// listed twice upstream is reported twice.
func Detect(current, other []FileChange) []string {
	if len(current) == 0 || len(other) == 0 {
		return nil
	}

	touched := make(map[string]bool, len(current))
	for _, fc := range current {
		if conflictSource(fc.Status) {
			touched[fc.Filename] = true
		}
	}

	var files []string
	for _, fc := range other {
		if conflictSource(fc.Status) && touched[fc.Filename] {
			files = append(files, fc.Filename)
		}
	}
	return files
}
