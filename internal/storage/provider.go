// Package storage defines read access to the static asset directory.
package storage

import "io/fs"

// Provider is the interface for static asset lookups.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Stat returns file info for path (relative to the root).
	Stat(path string) (fs.FileInfo, error)
	// Abs resolves path against the root, rejecting traversal.
	Abs(path string) (string, error)
}
