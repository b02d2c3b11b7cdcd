package env

import (
	"reflect"
	"testing"
)

func TestResourcePath(t *testing.T) {
	tests := []struct {
		dir, base, want string
	}{
		{"lib", "libfoo.a", "lib/libfoo.a"},
		{"", "Makefile", "Makefile"},
		{".", "Makefile", "Makefile"},
		{"a/./b", "x", "a/b/x"},
	}
	for _, tt := range tests {
		r := NewResource(tt.dir, tt.base)
		if got := r.Path(); got != tt.want {
			t.Errorf("NewResource(%q, %q).Path() = %q, want %q", tt.dir, tt.base, got, tt.want)
		}
	}
}

func TestResourceEquality(t *testing.T) {
	a := NewResource("x/y", "f.o")
	b := FromPath("x/y/f.o")
	if a != b {
		t.Errorf("structurally identical resources differ: %v vs %v", a, b)
	}
}

func TestResourceWithSuffix(t *testing.T) {
	r := NewResource("lib", "libz.so")
	if got, want := r.WithSuffix(".1.2").Path(), "lib/libz.so.1.2"; got != want {
		t.Errorf("WithSuffix = %q, want %q", got, want)
	}
}

func TestResourceSetOrderAndDedup(t *testing.T) {
	var s ResourceSet
	a := FromPath("obj/a.o")
	b := FromPath("obj/b.o")
	if !s.Add(a) {
		t.Error("first Add(a) reported duplicate")
	}
	if !s.Add(b) {
		t.Error("first Add(b) reported duplicate")
	}
	if s.Add(a) {
		t.Error("second Add(a) not deduplicated")
	}
	s.AddAll([]Resource{b, a, FromPath("obj/c.o")})

	want := []string{"obj/a.o", "obj/b.o", "obj/c.o"}
	if got := s.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestResourceSetStableAcrossInsertionPatterns(t *testing.T) {
	// Two traversal orders reaching the same first-insertion sequence
	// must produce the same output order.
	mk := func(paths ...string) []string {
		var s ResourceSet
		for _, p := range paths {
			s.Add(FromPath(p))
		}
		return s.Paths()
	}
	one := mk("o/a.o", "o/b.o", "o/a.o", "o/c.o")
	two := mk("o/a.o", "o/b.o", "o/c.o", "o/b.o")
	if !reflect.DeepEqual(one, two) {
		t.Errorf("orders differ: %v vs %v", one, two)
	}
}
