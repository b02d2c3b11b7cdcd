// Package lockedfile guards shared on-disk state against concurrent
// repobuild processes with an advisory file lock.
package lockedfile

import (
	"fmt"
	"os"
)

// Mutex is an advisory lock keyed by a file path. The zero value is
// not usable; create one with MutexAt.
type Mutex struct {
	path string
}

// MutexAt returns a Mutex backed by the file at path. The file is
// created if absent and never removed.
func MutexAt(path string) *Mutex {
	return &Mutex{path: path}
}

// Lock acquires the lock, blocking until it is free, and returns the
// function that releases it.
func (mu *Mutex) Lock() (unlock func(), err error) {
	f, err := os.OpenFile(mu.path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", mu.path, err)
	}
	return func() {
		unlockFile(f)
		f.Close()
	}, nil
}
