package env

import "path"

// Resource is a logical build output (or input) with a deterministic
// workspace-relative path. Resources are values: equality is structural,
// so the same output derived by two different nodes compares equal and
// deduplicates cleanly.
type Resource struct {
	Dir  string
	Base string
}

// NewResource builds a Resource from a directory and a basename. The
// directory is normalized ("" for the workspace root) so that equal
// outputs are structurally equal however they were derived.
func NewResource(dir, base string) Resource {
	cleaned := path.Clean("./" + dir)
	if cleaned == "." {
		cleaned = ""
	}
	return Resource{Dir: cleaned, Base: base}
}

// FromPath splits a slash-separated path into a Resource.
func FromPath(p string) Resource {
	return NewResource(path.Dir(p), path.Base(p))
}

// Path returns the slash-separated workspace-relative path.
func (r Resource) Path() string {
	if r.Dir == "" || r.Dir == "." {
		return r.Base
	}
	return r.Dir + "/" + r.Base
}

func (r Resource) String() string { return r.Path() }

// WithSuffix returns a sibling resource whose basename carries an extra
// suffix (e.g. ".o", ".so.2").
func (r Resource) WithSuffix(suffix string) Resource {
	return Resource{Dir: r.Dir, Base: r.Base + suffix}
}

// ResourceSet is an insertion-ordered set of Resources. Order is the
// order of first insertion, which keeps recipe lines stable no matter how
// many dependency paths reach the same resource.
type ResourceSet struct {
	order []Resource
	seen  map[Resource]struct{}
}

// Add inserts r and reports whether it was not already present.
func (s *ResourceSet) Add(r Resource) bool {
	if s.seen == nil {
		s.seen = make(map[Resource]struct{})
	}
	if _, ok := s.seen[r]; ok {
		return false
	}
	s.seen[r] = struct{}{}
	s.order = append(s.order, r)
	return true
}

// AddAll inserts every resource in rs, keeping first-insertion order.
func (s *ResourceSet) AddAll(rs []Resource) {
	for _, r := range rs {
		s.Add(r)
	}
}

// Resources returns the members in first-insertion order.
func (s *ResourceSet) Resources() []Resource {
	out := make([]Resource, len(s.order))
	copy(out, s.order)
	return out
}

// Paths returns the members' paths in first-insertion order.
func (s *ResourceSet) Paths() []string {
	out := make([]string, len(s.order))
	for i, r := range s.order {
		out[i] = r.Path()
	}
	return out
}

// Len reports the number of members.
func (s *ResourceSet) Len() int { return len(s.order) }
