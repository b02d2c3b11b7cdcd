// Package nodes defines the build-node hierarchy: the Node contract
// every target kind implements, the Base behavior shared by all kinds,
// and the concrete kinds (cc_library, cc_shared_library, cc_binary,
// autoconf, make). A node is configured exactly once by Parse and is
// read-only afterward; Makefile emission queries parsed state only.
package nodes

import (
	"fmt"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
	"github.com/vandevoorde/repobuild/reader"
)

// Language tags a set of compiled objects by source language.
type Language string

const (
	LangC   Language = "c"
	LangCPP Language = "c++"
)

// ConfigError reports a malformed or missing declaration field. It
// always aborts the run before any Makefile text is produced.
type ConfigError struct {
	Target env.TargetInfo
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Target, e.Field, e.Reason)
}

// configErrf builds a ConfigError for a target field.
func configErrf(t env.TargetInfo, field, format string, args ...any) error {
	return &ConfigError{Target: t, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Node is the contract every target kind implements.
type Node interface {
	// Info returns the node's immutable identity.
	Info() env.TargetInfo

	// DepInfos returns the declared direct dependencies in declaration
	// order. Order matters for link-order stability.
	DepInfos() []env.TargetInfo

	// Parse configures the node from its declaration body. Called
	// exactly once, before any other query.
	Parse(decl *reader.Declaration) error

	// ObjectFiles returns the node's own compiled objects for lang, for
	// dependents that absorb objects directly. Pure query.
	ObjectFiles(lang Language) []env.Resource

	// Outputs returns the node's primary output resources: the real
	// files a dependent rule or the user-facing alias waits on.
	Outputs() []env.Resource

	// WriteMakefile appends the node's build rules. allDeps is the
	// node's fully parsed transitive dependency list in stable order.
	WriteMakefile(allDeps []Node, out *makefile.Makefile) error

	// WriteMakeInstall appends the node's install actions to the shared
	// install rule. No-op for nodes with nothing to install.
	WriteMakeInstall(base *makefile.Makefile, install *makefile.Rule) error
}

// Base carries the state and behavior common to every node kind:
// identity, workspace input, the declared dependency list, and the
// user-facing alias rule. Concrete kinds embed it.
type Base struct {
	Target env.TargetInfo
	Input  *env.Input

	deps []env.TargetInfo
}

// NewBase initializes the shared node state.
func NewBase(t env.TargetInfo, in *env.Input) Base {
	return Base{Target: t, Input: in}
}

func (b *Base) Info() env.TargetInfo { return b.Target }

func (b *Base) DepInfos() []env.TargetInfo { return b.deps }

// Parse reads the fields common to all kinds. Concrete kinds call it
// first from their own Parse.
func (b *Base) Parse(decl *reader.Declaration) error {
	refs, err := decl.Strings("deps")
	if err != nil {
		return configErrf(b.Target, "deps", "%v", err)
	}
	for _, ref := range refs {
		dep, err := env.ParseTarget(ref, b.Target.Dir)
		if err != nil {
			return configErrf(b.Target, "deps", "%v", err)
		}
		b.deps = append(b.deps, dep)
	}
	return nil
}

// ObjectFiles is empty for kinds without compiled objects.
func (b *Base) ObjectFiles(Language) []env.Resource { return nil }

// Outputs is empty for kinds without produced files.
func (b *Base) Outputs() []env.Resource { return nil }

// directDeps selects a node's direct dependencies from its resolved
// transitive dependency list, in declaration order.
func directDeps(infos []env.TargetInfo, all []Node) []Node {
	byID := make(map[env.TargetInfo]Node, len(all))
	for _, n := range all {
		byID[n.Info()] = n
	}
	out := make([]Node, 0, len(infos))
	for _, t := range infos {
		if n, ok := byID[t]; ok {
			out = append(out, n)
		}
	}
	return out
}

// WriteMakeInstall is a no-op for kinds with nothing to install.
func (b *Base) WriteMakeInstall(*makefile.Makefile, *makefile.Rule) error { return nil }

// WriteBaseUserTarget emits the phony alias rule users type on the make
// command line: the target's MakePath, depending on the node's primary
// outputs plus every direct dependency's alias.
func (b *Base) WriteBaseUserTarget(outs []env.Resource, out *makefile.Makefile) error {
	r := out.StartRule(b.Target.MakePath())
	r.Phony = true
	r.Comment = b.Target.String()
	for _, o := range outs {
		r.AddPrereq(o.Path())
	}
	for _, dep := range b.deps {
		r.AddPrereq(dep.MakePath())
	}
	return out.FinishRule(r)
}
