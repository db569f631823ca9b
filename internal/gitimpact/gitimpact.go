// Package gitimpact backs the Filter & Partition (C9) "affected specs"
// predicate: it diffs the working tree against a git ref and reports which
// files changed, so internal/filter.Affected can skip specs whose script
// files are untouched. Grounded on the teacher's internal/git package (the
// same go-git-first, PlainOpenWithOptions/DetectDotGit approach), narrowed
// to the single concern SPEC_FULL.md §4.8 needs: a changed-file set.
package gitimpact

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for gitimpact operations.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens the git repository containing the current working
// directory, walking up to find .git the way the teacher's openRepo does.
func openRepo() (*git.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	repo, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", cwd, err)
	}
	return repo, nil
}

// ChangedPredicate adapts ChangedFiles into the func(path string) bool shape
// filter.Affected expects, so internal/cli can wire
// filter.Affected(gitimpact.ChangedPredicate(ref)) directly.
func ChangedPredicate(ref string) (func(path string) bool, error) {
	changed, err := ChangedFiles(ref)
	if err != nil {
		return nil, err
	}
	return func(path string) bool { return changed[path] }, nil
}

// IsGitRepository reports whether the current directory is within a git
// repository.
func IsGitRepository() bool {
	_, err := openRepo()
	return err == nil
}

// ChangedFiles returns the set of repository-relative paths that differ
// between ref and the current worktree (committed diff plus uncommitted
// changes), used to drive filter.Affected. ref is resolved via go-git's
// revision parser, so branch names, tags, and short hashes all work.
func ChangedFiles(ref string) (map[string]bool, error) {
	repo, err := openRepo()
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool)

	baseTree, err := refTree(repo, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving ref %q: %w", ref, err)
	}

	headTree, err := refTree(repo, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	changes, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("diffing %q against HEAD: %w", ref, err)
	}
	for _, c := range changes {
		if c.From.Name != "" {
			changed[c.From.Name] = true
		}
		if c.To.Name != "" {
			changed[c.To.Name] = true
		}
	}

	if err := addWorktreeStatus(repo, changed); err != nil {
		logDebug("[gitimpact] worktree status unavailable: %v", err)
	}

	logDebug("[gitimpact] ChangedFiles(%s): %d files", ref, len(changed))
	return changed, nil
}

// refTree resolves ref to its commit tree.
func refTree(repo *git.Repository, ref string) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

// addWorktreeStatus folds uncommitted changes (staged or not) into changed,
// so a spec whose backing script is dirty but uncommitted still counts as
// affected.
func addWorktreeStatus(repo *git.Repository, changed map[string]bool) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	status, err := wt.Status()
	if err != nil {
		return err
	}
	for path, s := range status {
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			changed[path] = true
		}
	}
	return nil
}
