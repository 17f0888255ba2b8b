// Package git locates the repository a vault command is run from. It is
// the only piece of the CLI layer that talks to a git repository directly
// — the storage engine itself (internal/domain, internal/usecase) never
// imports this package and has no notion of commits or branches.
package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ErrNotGitRepository is returned when dir is not inside a git working
// tree (including worktrees), per go-git's DetectDotGit search.
var ErrNotGitRepository = errors.New("not inside a git repository")

// Client resolves paths relative to a repository's root.
type Client struct {
	repoRoot string
}

// NewClient detects the repository containing dir by walking upward for a
// .git entry (go-git's PlainOpenWithOptions with DetectDotGit), the same
// dependency and option the teacher uses for its own repo-root discovery.
func NewClient(dir string) (*Client, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotGitRepository
		}
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}

	return &Client{repoRoot: wt.Filesystem.Root()}, nil
}

// RepoRoot returns the absolute path to the repository's working tree
// root, the base every vault path and .git-vault/ directory is resolved
// against.
func (c *Client) RepoRoot() string { return c.repoRoot }
