package nodes

import (
	"strings"
	"testing"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
)

func TestAutoconfRules(t *testing.T) {
	in := testInput(t)
	dep := NewCCLibrary(env.TargetInfo{Dir: "base", Name: "init"}, in)
	if err := dep.Parse(parseDecl(t, "base",
		`{"cc_library": {"name": "init", "srcs": ["init.cc"]}}`)); err != nil {
		t.Fatalf("Parse dep: %v", err)
	}

	n := NewAutoconf(env.TargetInfo{Dir: "third_party/pcre", Name: "pcre"}, in)
	decl := parseDecl(t, "third_party/pcre", `{"autoconf": {
		"name": "pcre",
		"configure_args": ["--disable-cpp"],
		"outs": ["lib/libpcre.a"],
		"deps": ["//base:init"]
	}}`)
	if err := n.Parse(decl); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := n.ObjectFiles(LangC); got != nil {
		t.Errorf("ObjectFiles = %v, want none: internals are opaque", got)
	}

	out := makefile.New()
	if err := n.WriteMakefile([]Node{dep}, out); err != nil {
		t.Fatalf("WriteMakefile: %v", err)
	}

	stamp := out.Rule(".gen-files/third_party/pcre/pcre.done")
	if stamp == nil {
		t.Fatal("missing external build rule")
	}
	// The stamp is a real file: it must depend on the dependency's
	// output file, never its phony alias, or the external build would
	// re-run on every make invocation.
	if len(stamp.Prereqs) != 1 || stamp.Prereqs[0] != ".gen-obj/base/libinit.a" {
		t.Errorf("stamp prereqs = %v, want [.gen-obj/base/libinit.a]", stamp.Prereqs)
	}
	for _, p := range stamp.Prereqs {
		if p == "base/init" {
			t.Errorf("stamp depends on phony alias %q", p)
		}
	}
	joined := strings.Join(stamp.Commands(), "\n")
	for _, want := range []string{
		"cd third_party/pcre &&",
		"./configure --prefix=$(CURDIR)/.gen-files/third_party/pcre/pcre --disable-cpp",
		"$(MAKE) && $(MAKE) install",
		"touch $@",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("recipe missing %q:\n%s", want, joined)
		}
	}

	// The phony alias keeps the alias-level linkage to its deps.
	alias := out.Rule("third_party/pcre/pcre")
	if alias == nil || !alias.Phony {
		t.Fatal("missing phony alias rule")
	}
	if len(alias.Prereqs) != 2 || alias.Prereqs[1] != "base/init" {
		t.Errorf("alias prereqs = %v", alias.Prereqs)
	}
}

func TestMakeRules(t *testing.T) {
	n := NewMake(env.TargetInfo{Dir: "vendor/lua", Name: "lua"}, testInput(t))
	decl := parseDecl(t, "vendor/lua", `{"make": {
		"name": "lua",
		"make_targets": ["linux"]
	}}`)
	if err := n.Parse(decl); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := makefile.New()
	if err := n.WriteMakefile(nil, out); err != nil {
		t.Fatalf("WriteMakefile: %v", err)
	}
	stamp := out.Rule(".gen-files/vendor/lua/lua.done")
	if stamp == nil {
		t.Fatal("missing external build rule")
	}
	if cmds := stamp.Commands(); !strings.Contains(strings.Join(cmds, "\n"), "$(MAKE) -C vendor/lua linux") {
		t.Errorf("recipe = %v", cmds)
	}
}
