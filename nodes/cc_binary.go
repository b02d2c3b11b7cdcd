package nodes

import (
	"strings"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
	"github.com/vandevoorde/repobuild/reader"
)

// CCBinary links an executable from its own objects plus the absorbed
// objects of every compiled-library dependency, and installs it into
// the binary install dir unless no_install is set.
type CCBinary struct {
	CCLibrary

	noInstall bool
}

// NewCCBinary returns an unparsed cc_binary node.
func NewCCBinary(t env.TargetInfo, in *env.Input) *CCBinary {
	return &CCBinary{CCLibrary: *NewCCLibrary(t, in)}
}

func (n *CCBinary) Parse(decl *reader.Declaration) error {
	if err := n.CCLibrary.Parse(decl); err != nil {
		return err
	}
	var err error
	if n.noInstall, err = decl.Bool("no_install"); err != nil {
		return configErrf(n.Target, "no_install", "%v", err)
	}
	return nil
}

// OutBinary is the linked executable.
func (n *CCBinary) OutBinary() env.Resource {
	return n.Input.OutPath(n.Target, n.Target.Name)
}

func (n *CCBinary) Outputs() []env.Resource {
	return []env.Resource{n.OutBinary()}
}

func (n *CCBinary) WriteMakefile(allDeps []Node, out *makefile.Makefile) error {
	if err := n.writeCompileRules(out); err != nil {
		return err
	}
	var set env.ResourceSet
	set.AddAll(n.allObjects())
	for _, dep := range allDeps {
		set.AddAll(dep.ObjectFiles(LangC))
		set.AddAll(dep.ObjectFiles(LangCPP))
	}
	objs := set.Resources()

	r := out.StartRule(n.OutBinary().Path())
	for _, o := range objs {
		r.AddPrereq(o.Path())
	}
	r.WriteMkdir()
	cmd := []string{"$(LD)", "-o", "$@"}
	for _, o := range objs {
		cmd = append(cmd, o.Path())
	}
	cmd = append(cmd, "$(LDFLAGS)")
	r.WriteCommand(strings.Join(cmd, " "))
	if err := out.FinishRule(r); err != nil {
		return err
	}
	return n.WriteBaseUserTarget(n.Outputs(), out)
}

func (n *CCBinary) WriteMakeInstall(base *makefile.Makefile, install *makefile.Rule) error {
	if n.noInstall {
		return nil
	}
	bin := n.OutBinary()
	install.AddPrereq(bin.Path())
	install.WriteCommand("install -d $(DESTDIR)$(PREFIX)/bin")
	install.WriteCommand("install -m 0755 " + bin.Path() + " $(DESTDIR)$(PREFIX)/bin/" + bin.Base)
	return nil
}
