package target

import "github.com/go-git/go-git/v5"

// Revision identifies the commit a plugin tree was checked out at.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
}

// String renders the revision as "<short commit> (<branch>)".
func (r Revision) String() string {
	commit := r.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if r.Branch == "" {
		return commit
	}
	return commit + " (" + r.Branch + ")"
}

// DescribeRevision reports HEAD of the git repository enclosing root.
// The boolean is false when root is not inside a repository or HEAD is unborn.
func DescribeRevision(root string) (Revision, bool) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Revision{}, false
	}

	// fails on an unborn HEAD as well
	head, err := repo.Head()
	if err != nil {
		return Revision{}, false
	}

	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	return rev, true
}
