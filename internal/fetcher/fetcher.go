// Package fetcher clones a repository working tree so it can be inventoried
// like a submitted bundle archive.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	vcsurl "github.com/gitsight/go-vcsurl"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-hclog"
)

// Fetcher clones repositories into throwaway folders.
type Fetcher struct {
	branch string
	logger hclog.Logger
}

// New creates a Fetcher. branch may be empty to take the remote default.
func New(branch string, logger hclog.Logger) *Fetcher {
	return &Fetcher{branch: branch, logger: logger}
}

// Fetch clones repoURL into a temp folder and returns the checkout path plus
// a cleanup function. The clone is shallow: the scan only needs the tree.
func (f *Fetcher) Fetch(ctx context.Context, repoURL string) (string, func(), error) {
	name := "bundle"
	if info, err := vcsurl.Parse(repoURL); err == nil && info.Name != "" {
		name = info.Name
	}

	tempRoot, err := os.MkdirTemp("", "bundlescan-fetch-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp folder: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(tempRoot); err != nil {
			f.logger.Warn("failed to remove temp checkout", "path", tempRoot, "error", err)
		}
	}

	targetFolder := filepath.Join(tempRoot, name)
	f.logger.Debug("cloning repository", "url", repoURL, "target", targetFolder)

	cloneOptions := &git.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	}
	if f.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(f.branch)
		cloneOptions.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, targetFolder, false, cloneOptions); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone %q: %w", repoURL, err)
	}

	return targetFolder, cleanup, nil
}
