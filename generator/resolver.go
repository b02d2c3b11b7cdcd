package generator

import (
	"fmt"
	"strings"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/nodes"
)

// UnresolvedDependencyError reports a target reference with no parsed
// node behind it.
type UnresolvedDependencyError struct {
	// Referrer is the target whose deps list names the missing target;
	// zero when the missing target was requested directly.
	Referrer env.TargetInfo
	Missing  env.TargetInfo
}

func (e *UnresolvedDependencyError) Error() string {
	if e.Referrer == (env.TargetInfo{}) {
		return fmt.Sprintf("requested target %s: no such target", e.Missing)
	}
	return fmt.Sprintf("%s: dependency %s: no such target", e.Referrer, e.Missing)
}

// CycleError reports a dependency cycle, listing its member targets in
// reference order (the first member is referenced again by the last).
type CycleError struct {
	Members []env.TargetInfo
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Members)+1)
	for _, t := range e.Members {
		parts = append(parts, t.String())
	}
	if len(e.Members) > 0 {
		parts = append(parts, e.Members[0].String())
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

const (
	unvisited = iota
	visiting
	visited
)

// resolve checks the graph from the requested roots and computes the
// dependency order (every node after all of its dependencies) plus
// each node's transitive dependency list. Traversal follows declared
// dep order, never map order, so results are deterministic.
func (g *Generator) resolve() error {
	state := make(map[env.TargetInfo]int)
	g.trans = make(map[env.TargetInfo][]env.TargetInfo)
	var stack []env.TargetInfo

	var visit func(t env.TargetInfo, referrer env.TargetInfo) error
	visit = func(t, referrer env.TargetInfo) error {
		n, ok := g.byID[t]
		if !ok {
			return &UnresolvedDependencyError{Referrer: referrer, Missing: t}
		}
		switch state[t] {
		case visited:
			return nil
		case visiting:
			for i, member := range stack {
				if member == t {
					return &CycleError{Members: append([]env.TargetInfo(nil), stack[i:]...)}
				}
			}
			return &CycleError{Members: []env.TargetInfo{t}}
		}
		state[t] = visiting
		stack = append(stack, t)
		for _, dep := range n.DepInfos() {
			if err := visit(dep, t); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[t] = visited

		// Transitive list: each direct dep's closure, then the dep
		// itself, deduplicated in first-reference order.
		var closure []env.TargetInfo
		seen := make(map[env.TargetInfo]bool)
		add := func(x env.TargetInfo) {
			if !seen[x] {
				seen[x] = true
				closure = append(closure, x)
			}
		}
		for _, dep := range n.DepInfos() {
			for _, x := range g.trans[dep] {
				add(x)
			}
			add(dep)
		}
		g.trans[t] = closure

		g.order = append(g.order, n)
		return nil
	}

	for _, root := range g.roots {
		if err := visit(root, env.TargetInfo{}); err != nil {
			return err
		}
	}
	g.resolved = true
	return nil
}

// transNodes maps a node's transitive dependency infos to their parsed
// nodes, in the stable order resolve computed.
func (g *Generator) transNodes(n nodes.Node) []nodes.Node {
	infos := g.trans[n.Info()]
	out := make([]nodes.Node, len(infos))
	for i, t := range infos {
		out[i] = g.byID[t]
	}
	return out
}

// Deps returns the transitive dependency closure of t in dependency
// order, for read-only inspection.
func (g *Generator) Deps(t env.TargetInfo) ([]env.TargetInfo, error) {
	if _, ok := g.byID[t]; !ok {
		return nil, &UnresolvedDependencyError{Missing: t}
	}
	return append([]env.TargetInfo(nil), g.trans[t]...), nil
}
