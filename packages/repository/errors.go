package repository

import (
	"errors"
	"fmt"
)

// ErrRepositoryNotFound marks a repository that does not exist or is not
// publicly accessible.
var ErrRepositoryNotFound = errors.New("repository not found or not accessible")

// FetchError wraps a network or clone failure while acquiring the repository.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
