package env

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		ref    string
		relDir string
		want   TargetInfo
	}{
		{"//common/strings:strings", "", TargetInfo{"common/strings", "strings"}},
		{"//:init", "", TargetInfo{"", "init"}},
		{":helper", "common/base", TargetInfo{"common/base", "helper"}},
		{":helper", "", TargetInfo{"", "helper"}},
		{"//a/b/../c:x", "", TargetInfo{"a/c", "x"}},
		{"//./lib:x", "", TargetInfo{"lib", "x"}},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.ref, tt.relDir)
		if err != nil {
			t.Errorf("ParseTarget(%q, %q): %v", tt.ref, tt.relDir, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q, %q) = %v, want %v", tt.ref, tt.relDir, got, tt.want)
		}
	}
}

func TestParseTargetErrors(t *testing.T) {
	bad := []string{
		"",
		"name",            // bare names are ambiguous with files
		"//a/b",           // no :name
		"//a/b:",          // empty name
		"//a:b:c",         // name with colon
		"//a:b/c",         // name with slash
		"//../escape:x",   // escapes the workspace
		"//a\\b:x",        // backslash
		"/absolute:name",  // single slash
		"a/relative:name", // relative dirs need :
	}
	for _, ref := range bad {
		if _, err := ParseTarget(ref, "sub"); err == nil {
			t.Errorf("ParseTarget(%q): expected error, got none", ref)
		}
	}
}

func TestTargetInfoStrings(t *testing.T) {
	ti := TargetInfo{Dir: "third_party/zlib", Name: "z"}
	if got, want := ti.String(), "//third_party/zlib:z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := ti.MakePath(), "third_party/zlib/z"; got != want {
		t.Errorf("MakePath() = %q, want %q", got, want)
	}

	root := TargetInfo{Name: "all"}
	if got, want := root.String(), "//:all"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := root.MakePath(), "all"; got != want {
		t.Errorf("MakePath() = %q, want %q", got, want)
	}
}

func TestTargetInfoAsMapKey(t *testing.T) {
	a, err := ParseTarget("//lib:a", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseTarget(":a", "lib")
	if err != nil {
		t.Fatal(err)
	}
	m := map[TargetInfo]int{a: 1}
	if m[b] != 1 {
		t.Errorf("equal targets %v and %v do not collide as map keys", a, b)
	}
}
