package nodes

import (
	"strings"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
	"github.com/vandevoorde/repobuild/reader"
)

// Autoconf wraps an autoconf-style subproject as a single graph node.
// The build runs configure with --prefix into the target's genfile
// tree, then make and make install. The subproject's internals stay
// opaque: declared outs are recorded for dependents to reference but
// never inspected, and ObjectFiles is empty.
type Autoconf struct {
	Base

	configureArgs []string
	outs          []env.Resource
}

// NewAutoconf returns an unparsed autoconf node.
func NewAutoconf(t env.TargetInfo, in *env.Input) *Autoconf {
	return &Autoconf{Base: NewBase(t, in)}
}

func (n *Autoconf) Parse(decl *reader.Declaration) error {
	if err := n.Base.Parse(decl); err != nil {
		return err
	}
	var err error
	if n.configureArgs, err = decl.Strings("configure_args"); err != nil {
		return configErrf(n.Target, "configure_args", "%v", err)
	}
	outs, err := decl.Strings("outs")
	if err != nil {
		return configErrf(n.Target, "outs", "%v", err)
	}
	for _, o := range outs {
		n.outs = append(n.outs, env.FromPath(n.Input.GenDir(n.Target)+"/"+o))
	}
	return nil
}

// stamp marks a completed external build; the external tool's own
// outputs are not modeled as make targets.
func (n *Autoconf) stamp() env.Resource {
	return n.Input.GenPath(n.Target, n.Target.Name+".done")
}

func (n *Autoconf) Outputs() []env.Resource {
	return []env.Resource{n.stamp()}
}

// stampPrereqs lists the direct dependencies' output files. The stamp
// is a real file target; depending on the deps' phony aliases instead
// would mark it permanently out of date and re-run the external build
// on every make invocation.
func stampPrereqs(r *makefile.Rule, depInfos []env.TargetInfo, allDeps []Node) {
	for _, dep := range directDeps(depInfos, allDeps) {
		for _, o := range dep.Outputs() {
			r.AddPrereq(o.Path())
		}
	}
}

func (n *Autoconf) WriteMakefile(allDeps []Node, out *makefile.Makefile) error {
	srcDir := n.Target.Dir
	if srcDir == "" {
		srcDir = "."
	}
	r := out.StartRule(n.stamp().Path())
	stampPrereqs(r, n.DepInfos(), allDeps)
	r.WriteMkdir()
	r.WriteSilentCommand("mkdir -p " + n.Input.GenDir(n.Target))
	cmd := []string{
		"cd " + srcDir + " &&",
		"./configure", "--prefix=$(CURDIR)/" + n.Input.GenDir(n.Target),
	}
	cmd = append(cmd, n.configureArgs...)
	cmd = append(cmd, "&& $(MAKE) && $(MAKE) install")
	r.WriteCommand(strings.Join(cmd, " "))
	r.WriteSilentCommand("touch $@")
	if err := out.FinishRule(r); err != nil {
		return err
	}
	return n.WriteBaseUserTarget(n.Outputs(), out)
}

// Make wraps a plain make-driven subproject: one rule running make in
// the target directory on the declared targets.
type Make struct {
	Base

	makeTargets []string
}

// NewMake returns an unparsed make node.
func NewMake(t env.TargetInfo, in *env.Input) *Make {
	return &Make{Base: NewBase(t, in)}
}

func (n *Make) Parse(decl *reader.Declaration) error {
	if err := n.Base.Parse(decl); err != nil {
		return err
	}
	var err error
	if n.makeTargets, err = decl.Strings("make_targets"); err != nil {
		return configErrf(n.Target, "make_targets", "%v", err)
	}
	return nil
}

func (n *Make) stamp() env.Resource {
	return n.Input.GenPath(n.Target, n.Target.Name+".done")
}

func (n *Make) Outputs() []env.Resource {
	return []env.Resource{n.stamp()}
}

func (n *Make) WriteMakefile(allDeps []Node, out *makefile.Makefile) error {
	dir := n.Target.Dir
	if dir == "" {
		dir = "."
	}
	r := out.StartRule(n.stamp().Path())
	stampPrereqs(r, n.DepInfos(), allDeps)
	r.WriteMkdir()
	cmd := []string{"$(MAKE)", "-C", dir}
	cmd = append(cmd, n.makeTargets...)
	r.WriteCommand(strings.Join(cmd, " "))
	r.WriteSilentCommand("touch $@")
	if err := out.FinishRule(r); err != nil {
		return err
	}
	return n.WriteBaseUserTarget(n.Outputs(), out)
}
