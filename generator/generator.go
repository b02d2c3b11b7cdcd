// Package generator drives one compilation: phase 1 loads and parses
// every reachable BUILD file into nodes (parallel across directories),
// phase 2 orders the graph and reduces each node's rule fragments into
// a single deduplicated Makefile. No output is written unless the
// whole run succeeds.
package generator

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/qiniu/x/log"
	"golang.org/x/sync/errgroup"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/nodes"
	"github.com/vandevoorde/repobuild/reader"
)

// Ensurer materializes an absent workspace subtree before its BUILD
// file is read. distsource.Source implements it.
type Ensurer interface {
	Ensure(ctx context.Context, rel string) (bool, error)
}

// Options configures a Generator.
type Options struct {
	// Registry supplies the node kinds; nil means the built-in set.
	Registry *nodes.Registry

	// Source fetches missing external trees; nil disables fetching.
	Source Ensurer
}

// Generator owns every node for the duration of one compilation.
type Generator struct {
	in  *env.Input
	reg *nodes.Registry
	src Ensurer

	mu       sync.Mutex
	byID     map[env.TargetInfo]nodes.Node
	regOrder []nodes.Node
	roots    []env.TargetInfo

	order    []nodes.Node
	trans    map[env.TargetInfo][]env.TargetInfo
	resolved bool
}

// New returns a Generator for the workspace described by in.
func New(in *env.Input, opts Options) *Generator {
	reg := opts.Registry
	if reg == nil {
		reg = nodes.NewRegistry()
	}
	return &Generator{
		in:   in,
		reg:  reg,
		src:  opts.Source,
		byID: make(map[env.TargetInfo]nodes.Node),
	}
}

// Load runs phase 1: starting from the requested targets, it loads
// each needed BUILD file exactly once (directories of one wave load in
// parallel), instantiates and parses every declared node, then checks
// the graph for unresolved dependencies and cycles and fixes the
// dependency order. After Load returns, no node is mutated again.
func (g *Generator) Load(ctx context.Context, roots []env.TargetInfo) error {
	g.roots = roots

	loaded := make(map[string]bool)
	var pending []string
	queue := func(dir string) {
		if !loaded[dir] {
			loaded[dir] = true
			pending = append(pending, dir)
		}
	}
	for _, t := range roots {
		queue(t.Dir)
	}

	scanned := 0
	for len(pending) > 0 {
		wave := pending
		pending = nil
		sort.Strings(wave)
		grp, ctx := errgroup.WithContext(ctx)
		for _, dir := range wave {
			dir := dir
			grp.Go(func() error {
				return g.loadDir(ctx, dir)
			})
		}
		if err := grp.Wait(); err != nil {
			return err
		}
		// Nodes registered by this wave may reference directories not
		// yet loaded; scan only the newly registered ones.
		all := g.registered()
		for _, n := range all[scanned:] {
			for _, dep := range n.DepInfos() {
				queue(dep.Dir)
			}
		}
		scanned = len(all)
	}
	log.Debugf("loaded %d targets from %d directories", len(g.byID), len(loaded))

	return g.resolve()
}

// loadDir reads one directory's BUILD file and registers its nodes. A
// missing file is not an error here: the resolver reports it against
// whichever target referenced the directory.
func (g *Generator) loadDir(ctx context.Context, dir string) error {
	buildFile := g.in.AbsPath(path.Join(dir, reader.FileName))
	if _, err := os.Stat(buildFile); os.IsNotExist(err) && g.src != nil {
		covered, err := g.src.Ensure(ctx, dir)
		if err != nil {
			return err
		}
		if !covered {
			return nil
		}
	}
	if _, err := os.Stat(buildFile); os.IsNotExist(err) {
		return nil
	}
	file, err := reader.Load(buildFile, dir)
	if err != nil {
		return err
	}
	for _, decl := range file.Decls {
		name, err := decl.RequiredString("name")
		if err != nil {
			return &nodes.ConfigError{
				Target: env.TargetInfo{Dir: dir, Name: "?"},
				Field:  "name",
				Reason: fmt.Sprintf("%s declaration: %v", decl.Kind, err),
			}
		}
		t := env.TargetInfo{Dir: dir, Name: name}
		n, err := g.reg.New(decl.Kind, t, g.in)
		if err != nil {
			return err
		}
		if err := n.Parse(decl); err != nil {
			return err
		}
		if err := g.register(t, n); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) register(t env.TargetInfo, n nodes.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.byID[t]; ok {
		return fmt.Errorf("duplicate target %s", t)
	}
	g.byID[t] = n
	g.regOrder = append(g.regOrder, n)
	return nil
}

// registered snapshots the nodes in registration order. The order only
// feeds directory discovery (a set), so wave-internal races cannot leak
// into the output.
func (g *Generator) registered() []nodes.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]nodes.Node(nil), g.regOrder...)
}

// Node returns the parsed node for t, if it exists.
func (g *Generator) Node(t env.TargetInfo) (nodes.Node, bool) {
	n, ok := g.byID[t]
	return n, ok
}
