package repository

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidRepoURL marks a repo_url that is not a GitHub repository URL.
// It is detected before any network call.
var ErrInvalidRepoURL = errors.New("invalid GitHub repository URL")

// repoURLPattern accepts https://github.com/<owner>/<name> with an optional
// .git suffix and optional trailing slash, nothing else.
var repoURLPattern = regexp.MustCompile(`^https://github\.com/([\w-]+)/([\w.-]+?)(?:\.git)?/?$`)

// RepoRef identifies a repository by owner and name on github.com.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns the "owner/name" form used in responses and logs.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// CloneURL returns the HTTPS clone URL for the repository.
func (r RepoRef) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Name)
}

// ParseRepoURL validates raw and extracts the owner/name pair. It is pure:
// no network access, so handlers can reject bad input immediately.
func ParseRepoURL(raw string) (RepoRef, error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return RepoRef{}, fmt.Errorf("%w: %q must be of the form https://github.com/owner/name", ErrInvalidRepoURL, raw)
	}
	return RepoRef{Owner: m[1], Name: m[2]}, nil
}
