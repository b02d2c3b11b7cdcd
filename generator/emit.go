package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/vandevoorde/repobuild/makefile"
)

// Generate runs phase 2: every node, visited exactly once in
// dependency order, appends its rule fragments to one accumulator, and
// the install pass fills the aggregated install rule. Phase 1 must
// have completed; all node state is read-only here.
func (g *Generator) Generate() (*makefile.Makefile, error) {
	if !g.resolved {
		return nil, fmt.Errorf("generate: graph not loaded")
	}
	mk := makefile.New()
	g.writeHead(mk)

	all := mk.StartRule("all")
	all.Phony = true
	for _, t := range g.roots {
		all.AddPrereq(t.MakePath())
	}
	if err := mk.FinishRule(all); err != nil {
		return nil, err
	}

	for _, n := range g.order {
		if err := n.WriteMakefile(g.transNodes(n), mk); err != nil {
			return nil, fmt.Errorf("emit %s: %w", n.Info(), err)
		}
	}

	install := mk.StartRule("install")
	install.Phony = true
	for _, n := range g.order {
		if err := n.WriteMakeInstall(mk, install); err != nil {
			return nil, fmt.Errorf("emit install %s: %w", n.Info(), err)
		}
	}
	if err := mk.FinishRule(install); err != nil {
		return nil, err
	}

	clean := mk.StartRule("clean")
	clean.Phony = true
	clean.WriteCommand("rm -rf $(OBJ_DIR) $(GEN_DIR)")
	if err := mk.FinishRule(clean); err != nil {
		return nil, err
	}

	log.Debugf("emitted %d rules", len(mk.Targets()))
	return mk, nil
}

// writeHead emits the variable preamble the rule recipes refer to.
// Every assignment is overridable from the make command line.
func (g *Generator) writeHead(mk *makefile.Makefile) {
	mk.Comment("Generated by repobuild. Do not edit.")
	mk.DefineDefault("CC", g.in.CC)
	mk.DefineDefault("CXX", g.in.CXX)
	mk.DefineDefault("AR", g.in.AR)
	mk.DefineDefault("LD", g.in.LD)
	mk.DefineDefault("CFLAGS", strings.Join(g.in.CFlags, " "))
	mk.DefineDefault("CXXFLAGS", strings.Join(g.in.CXXFlags, " "))
	mk.DefineDefault("LDFLAGS", strings.Join(g.in.LDFlags, " "))
	mk.DefineDefault("PREFIX", g.in.InstallPrefix)
	mk.DefineDefault("DESTDIR", "")
	mk.Define("OBJ_DIR", g.in.ObjectDir)
	mk.Define("GEN_DIR", g.in.GenfileDir)
}

// WriteFile generates the Makefile and writes it atomically: the
// output path is untouched unless the whole run succeeds.
func (g *Generator) WriteFile(path string) error {
	mk, err := g.Generate()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".repobuild-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := mk.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
