package nodes

import (
	"strings"
	"testing"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
)

func TestCCLibraryObjects(t *testing.T) {
	n := NewCCLibrary(env.TargetInfo{Dir: "common/strings", Name: "strings"}, testInput(t))
	decl := parseDecl(t, "common/strings", `{"cc_library": {
		"name": "strings",
		"srcs": ["strutil.cc", "ascii.c"],
		"hdrs": ["strutil.h"]
	}}`)
	if err := n.Parse(decl); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cpp := n.ObjectFiles(LangCPP)
	if len(cpp) != 1 || cpp[0].Path() != ".gen-obj/common/strings/strutil.cc.o" {
		t.Errorf("ObjectFiles(c++) = %v", cpp)
	}
	c := n.ObjectFiles(LangC)
	if len(c) != 1 || c[0].Path() != ".gen-obj/common/strings/ascii.c.o" {
		t.Errorf("ObjectFiles(c) = %v", c)
	}
	if got, want := n.OutArchive().Path(), ".gen-obj/common/strings/libstrings.a"; got != want {
		t.Errorf("OutArchive = %q, want %q", got, want)
	}
}

func TestCCLibraryWriteMakefile(t *testing.T) {
	n := NewCCLibrary(env.TargetInfo{Dir: "lib", Name: "base"}, testInput(t))
	decl := parseDecl(t, "lib", `{"cc_library": {
		"name": "base",
		"srcs": ["base.cc"],
		"hdrs": ["base.h"],
		"copts": ["-O2"],
		"deps": ["//other:dep"]
	}}`)
	if err := n.Parse(decl); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := makefile.New()
	if err := n.WriteMakefile(nil, out); err != nil {
		t.Fatalf("WriteMakefile: %v", err)
	}

	obj := out.Rule(".gen-obj/lib/base.cc.o")
	if obj == nil {
		t.Fatal("missing compile rule")
	}
	if got := obj.Prereqs; len(got) != 2 || got[0] != "lib/base.cc" || got[1] != "lib/base.h" {
		t.Errorf("compile prereqs = %v", got)
	}
	if cmds := obj.Commands(); !strings.Contains(cmds[1], "$(CXX) $(CXXFLAGS) -I. -O2 -c lib/base.cc -o $@") {
		t.Errorf("compile recipe = %v", cmds)
	}

	ar := out.Rule(".gen-obj/lib/libbase.a")
	if ar == nil {
		t.Fatal("missing archive rule")
	}
	if cmds := ar.Commands(); !strings.Contains(cmds[1], "$(AR) rcs $@ $^") {
		t.Errorf("archive recipe = %v", cmds)
	}

	alias := out.Rule("lib/base")
	if alias == nil || !alias.Phony {
		t.Fatal("missing phony alias rule")
	}
	if got := alias.Prereqs; len(got) != 2 || got[0] != ".gen-obj/lib/libbase.a" || got[1] != "other/dep" {
		t.Errorf("alias prereqs = %v", got)
	}
}

func TestCCLibraryBadSourceExtension(t *testing.T) {
	n := NewCCLibrary(env.TargetInfo{Dir: "lib", Name: "x"}, testInput(t))
	decl := parseDecl(t, "lib", `{"cc_library": {"name": "x", "srcs": ["readme.txt"]}}`)
	err := n.Parse(decl)
	var cfg *ConfigError
	if !asConfigError(err, &cfg) {
		t.Fatalf("Parse = %v, want ConfigError", err)
	}
	if cfg.Field != "srcs" {
		t.Errorf("Field = %q, want srcs", cfg.Field)
	}
}

func TestCCBinaryLinksAbsorbedObjects(t *testing.T) {
	in := testInput(t)

	dep := NewCCLibrary(env.TargetInfo{Dir: "lib", Name: "base"}, in)
	if err := dep.Parse(parseDecl(t, "lib",
		`{"cc_library": {"name": "base", "srcs": ["base.cc"]}}`)); err != nil {
		t.Fatalf("Parse dep: %v", err)
	}

	bin := NewCCBinary(env.TargetInfo{Dir: "tools", Name: "run"}, in)
	if err := bin.Parse(parseDecl(t, "tools",
		`{"cc_binary": {"name": "run", "srcs": ["main.cc"], "deps": ["//lib:base"]}}`)); err != nil {
		t.Fatalf("Parse bin: %v", err)
	}

	out := makefile.New()
	if err := bin.WriteMakefile([]Node{dep}, out); err != nil {
		t.Fatalf("WriteMakefile: %v", err)
	}
	link := out.Rule(".gen-obj/tools/run")
	if link == nil {
		t.Fatal("missing link rule")
	}
	wantPrereqs := []string{".gen-obj/tools/main.cc.o", ".gen-obj/lib/base.cc.o"}
	if len(link.Prereqs) != 2 || link.Prereqs[0] != wantPrereqs[0] || link.Prereqs[1] != wantPrereqs[1] {
		t.Errorf("link prereqs = %v, want %v", link.Prereqs, wantPrereqs)
	}

	install := out.StartRule("install")
	if err := bin.WriteMakeInstall(out, install); err != nil {
		t.Fatalf("WriteMakeInstall: %v", err)
	}
	cmds := install.Commands()
	if len(cmds) != 2 || !strings.Contains(cmds[1], "$(DESTDIR)$(PREFIX)/bin/run") {
		t.Errorf("install commands = %v", cmds)
	}
}

func TestCCBinaryNoInstall(t *testing.T) {
	bin := NewCCBinary(env.TargetInfo{Dir: "tools", Name: "bench"}, testInput(t))
	if err := bin.Parse(parseDecl(t, "tools",
		`{"cc_binary": {"name": "bench", "srcs": ["bench.cc"], "no_install": true}}`)); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := makefile.New()
	install := out.StartRule("install")
	if err := bin.WriteMakeInstall(out, install); err != nil {
		t.Fatalf("WriteMakeInstall: %v", err)
	}
	if len(install.Commands()) != 0 || len(install.Prereqs) != 0 {
		t.Errorf("no_install target contributed install actions: %v %v",
			install.Prereqs, install.Commands())
	}
}
