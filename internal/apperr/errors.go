// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrStoreNotFound = errors.New("cache store not found")
	ErrInstallFailed = errors.New("install failed")
	ErrFetchFailed   = errors.New("fetch failed")
)
