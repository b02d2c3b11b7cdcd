// Package distsource materializes pinned external source trees into
// the workspace on demand. The workspace config lists each tree's
// path, repository URL, and exact ref; a tree is cloned the first time
// something needs a BUILD file under its path.
package distsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/mattn/go-isatty"
	"github.com/qiniu/x/log"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/internal/lockedfile"
)

// Source resolves workspace paths against the configured dist_sources
// table and fetches missing trees.
type Source struct {
	in       *env.Input
	progress io.Writer
}

// New returns a Source for the workspace. Clone progress is shown only
// when stderr is a terminal.
func New(in *env.Input) *Source {
	s := &Source{in: in}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		s.progress = os.Stderr
	}
	return s
}

// lookup finds the configured source owning rel, if any.
func (s *Source) lookup(rel string) *env.DistSource {
	for i := range s.in.DistSources {
		ds := &s.in.DistSources[i]
		if rel == ds.Path || strings.HasPrefix(rel, ds.Path+"/") {
			return ds
		}
	}
	return nil
}

// Ensure makes the tree owning the workspace path rel present on disk.
// It reports false when no configured source covers rel.
func (s *Source) Ensure(ctx context.Context, rel string) (bool, error) {
	ds := s.lookup(rel)
	if ds == nil {
		return false, nil
	}
	if err := s.fetch(ctx, ds); err != nil {
		return true, err
	}
	return true, nil
}

// FetchAll materializes every configured source tree.
func (s *Source) FetchAll(ctx context.Context) error {
	for i := range s.in.DistSources {
		if err := s.fetch(ctx, &s.in.DistSources[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) fetch(ctx context.Context, ds *env.DistSource) error {
	dir := s.in.AbsPath(ds.Path)
	if present(dir) {
		return nil
	}

	// Concurrent repobuild runs may race to clone the same tree.
	unlock, err := lockedfile.MutexAt(dir + ".lock").Lock()
	if err != nil {
		return err
	}
	defer unlock()
	if present(dir) {
		return nil
	}

	log.Infof("fetching %s@%s into %s", ds.URL, ds.Ref, ds.Path)
	if err := s.clone(ctx, dir, ds); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("fetch %s: %w", ds.Path, err)
	}
	return nil
}

// present reports whether the tree has already been materialized.
func present(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// clone checks out exactly ds.Ref: a shallow single-branch clone for
// tag and branch names, a full clone plus hash checkout for pinned
// commits.
func (s *Source) clone(ctx context.Context, dir string, ds *env.DistSource) error {
	if isCommitHash(ds.Ref) {
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:      ds.URL,
			Progress: s.progress,
		})
		if err != nil {
			return err
		}
		wt, err := repo.Worktree()
		if err != nil {
			return err
		}
		return wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(ds.Ref)})
	}

	// The ref may name a tag or a branch; try the tag form first.
	opts := git.CloneOptions{
		URL:           ds.URL,
		Progress:      s.progress,
		SingleBranch:  true,
		Depth:         1,
		ReferenceName: plumbing.NewTagReferenceName(ds.Ref),
	}
	_, err := git.PlainCloneContext(ctx, dir, false, &opts)
	if err == nil {
		return nil
	}
	os.RemoveAll(dir)
	opts.ReferenceName = plumbing.NewBranchReferenceName(ds.Ref)
	_, err = git.PlainCloneContext(ctx, dir, false, &opts)
	return err
}

func isCommitHash(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
