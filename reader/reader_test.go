package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleBuild = `
# Libraries for the strings package.
[
  {"cc_library": {
    "name": "strings",
    "srcs": ["strutil.cc"],
    "hdrs": ["strutil.h"],
    "whole": true
  }},
  {"cc_shared_library": {
    "name": "strings_shared",
    "deps": [":strings"],
    "major_version": "2"
  }}
]
`

func TestParse(t *testing.T) {
	f, err := Parse("common/strings", []byte(sampleBuild))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(f.Decls))
	}
	if got := f.Decls[0].Kind; got != "cc_library" {
		t.Errorf("Decls[0].Kind = %q, want cc_library", got)
	}
	if got := f.Decls[1].Kind; got != "cc_shared_library" {
		t.Errorf("Decls[1].Kind = %q, want cc_shared_library", got)
	}
	if got := f.Decls[0].Dir; got != "common/strings" {
		t.Errorf("Decls[0].Dir = %q, want common/strings", got)
	}
}

func TestFieldAccess(t *testing.T) {
	f, err := Parse("", []byte(sampleBuild))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := f.Decls[0]

	if name, err := d.RequiredString("name"); err != nil || name != "strings" {
		t.Errorf("RequiredString(name) = %q, %v", name, err)
	}
	if srcs, err := d.Strings("srcs"); err != nil || !reflect.DeepEqual(srcs, []string{"strutil.cc"}) {
		t.Errorf("Strings(srcs) = %v, %v", srcs, err)
	}
	if whole, err := d.Bool("whole"); err != nil || !whole {
		t.Errorf("Bool(whole) = %v, %v", whole, err)
	}

	// Absent fields yield zero values without error.
	if s, err := d.String("missing"); err != nil || s != "" {
		t.Errorf("String(missing) = %q, %v", s, err)
	}
	if l, err := d.Strings("missing"); err != nil || l != nil {
		t.Errorf("Strings(missing) = %v, %v", l, err)
	}
	if d.Has("missing") {
		t.Error("Has(missing) = true")
	}

	// Type mismatches are errors.
	if _, err := d.String("srcs"); err == nil {
		t.Error("String(srcs): expected type error")
	}
	if _, err := d.Strings("name"); err == nil {
		t.Error("Strings(name): expected type error")
	}
	if _, err := d.Bool("name"); err == nil {
		t.Error("Bool(name): expected type error")
	}
	if _, err := d.RequiredString("missing"); err == nil {
		t.Error("RequiredString(missing): expected error")
	}
}

func TestParseErrors(t *testing.T) {
	bad := map[string]string{
		"not JSON":      `{`,
		"not an array":  `{"cc_library": {"name": "x"}}`,
		"two kinds":     `[{"cc_library": {}, "cc_binary": {}}]`,
		"body not obj":  `[{"cc_library": ["x"]}]`,
		"trailing text": `[] []`,
	}
	for name, text := range bad {
		if _, err := Parse("", []byte(text)); err == nil {
			t.Errorf("%s: expected error, got none", name)
		}
	}
}

func TestParseOverlongLine(t *testing.T) {
	// A line past the scanner's buffer limit must surface as an error,
	// not silently truncate the file.
	text := "[]\n# " + strings.Repeat("x", 2<<20)
	if _, err := Parse("", []byte(text)); err == nil {
		t.Error("expected error for an overlong line, got none")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "BUILD"), ""); !os.IsNotExist(err) {
		t.Errorf("expected IsNotExist, got %v", err)
	}
}

func TestGlob(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lib")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.cc", "a.cc", "sub/c.cc", "sub/d.h"} {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := Parse("lib", []byte(`[{"cc_library": {"name": "l"}}]`))
	if err != nil {
		t.Fatal(err)
	}
	d := f.Decls[0]

	got, err := d.Glob(root, []string{"**/*.cc", "literal.cc", "a.cc"})
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	// Glob matches sorted, literals verbatim, duplicates dropped.
	want := []string{"a.cc", "b.cc", "sub/c.cc", "literal.cc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Glob = %v, want %v", got, want)
	}
}
