package nodes

import "github.com/vandevoorde/repobuild/env"

// Factory builds an unparsed node of one kind.
type Factory func(t env.TargetInfo, in *env.Input) Node

// Registry maps node-kind strings (the single key of each BUILD
// declaration) to factories. New kinds register here; the graph
// resolver never switches on kinds.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in kinds installed.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("cc_library", func(t env.TargetInfo, in *env.Input) Node {
		return NewCCLibrary(t, in)
	})
	r.Register("cc_shared_library", func(t env.TargetInfo, in *env.Input) Node {
		return NewCCSharedLibrary(t, in)
	})
	r.Register("cc_binary", func(t env.TargetInfo, in *env.Input) Node {
		return NewCCBinary(t, in)
	})
	r.Register("autoconf", func(t env.TargetInfo, in *env.Input) Node {
		return NewAutoconf(t, in)
	})
	r.Register("make", func(t env.TargetInfo, in *env.Input) Node {
		return NewMake(t, in)
	})
	return r
}

// Register installs a factory for kind, replacing any previous one.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// New instantiates a node of the given kind. An unknown kind is a
// ConfigError naming the kind.
func (r *Registry) New(kind string, t env.TargetInfo, in *env.Input) (Node, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, configErrf(t, "kind", "unknown node kind %q", kind)
	}
	return f(t, in), nil
}
