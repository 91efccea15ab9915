package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/go-github/github"
	"golang.org/x/oauth2"

	"repoinsight/packages/config"
	"repoinsight/types"
)

// Fetcher acquires a repository's file tree through a temporary shallow
// checkout. The checkout directory is removed on every exit path.
type Fetcher struct {
	cfg    *config.Config
	github *github.Client
}

// NewFetcher creates a Fetcher. A GitHub token in the config enables
// authenticated API lookups; without one, public lookups still work.
func NewFetcher(cfg *config.Config) *Fetcher {
	var httpClient *http.Client
	if cfg.GitHubToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &Fetcher{
		cfg:    cfg,
		github: github.NewClient(httpClient),
	}
}

// Fetch returns every readable text file in the repository, in sorted path
// order. It fails with ErrRepositoryNotFound when the repository does not
// exist or is private, and with *FetchError on network or clone failures.
func (f *Fetcher) Fetch(ctx context.Context, ref RepoRef) ([]types.FileEntry, error) {
	repo, resp, err := f.github.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, ref)
		}
		return nil, &FetchError{Op: "lookup " + ref.String(), Err: err}
	}

	cloneURL := repo.GetCloneURL()
	if cloneURL == "" {
		cloneURL = ref.CloneURL()
	}

	tempDir, err := os.MkdirTemp("", "repoinsight-*")
	if err != nil {
		return nil, &FetchError{Op: "create checkout dir", Err: err}
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			slog.Warn("Failed to remove checkout dir", "dir", tempDir, "error", rmErr)
		}
	}()

	slog.Info("Cloning repository", "repo", ref.String(), "dir", tempDir)

	cloneOptions := &git.CloneOptions{
		URL:   cloneURL,
		Depth: 1,
	}
	if branch := repo.GetDefaultBranch(); branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(branch)
		cloneOptions.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, tempDir, false, cloneOptions); err != nil {
		return nil, &FetchError{Op: "clone " + ref.String(), Err: err}
	}

	w := newWalker(tempDir, f.cfg.IgnoreRulesEnabled(), f.cfg.Repository.MaxFileSizeBytes)
	entries, err := w.collect()
	if err != nil {
		return nil, &FetchError{Op: "enumerate files", Err: err}
	}

	slog.Info("Repository fetched", "repo", ref.String(), "files", len(entries))
	return entries, nil
}
