package domain

import (
	"os"
	"sync"
)

// FetchResult is a successfully fetched media file sitting in a private
// temporary directory. The holder owns the file exclusively until Discard
// is called; Discard must be called on every exit path and is safe to call
// more than once.
type FetchResult struct {
	// Path is the absolute path of the downloaded file.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Source is the classified URL this file was fetched from.
	Source ClassifiedURL

	// dir is the private temp directory holding Path.
	dir string

	once sync.Once
	err  error
}

// NewFetchResult wraps a downloaded file and the private temp directory
// that contains it.
func NewFetchResult(src ClassifiedURL, path string, size int64, dir string) *FetchResult {
	return &FetchResult{
		Path:   path,
		Size:   size,
		Source: src,
		dir:    dir,
	}
}

// Discard deletes the temporary file and its directory. Only the first
// call performs the removal; subsequent calls return the first call's
// result.
func (r *FetchResult) Discard() error {
	r.once.Do(func() {
		r.err = os.RemoveAll(r.dir)
	})
	return r.err
}
