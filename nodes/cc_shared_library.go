package nodes

import (
	"path"
	"strings"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
	"github.com/vandevoorde/repobuild/reader"
)

// CCSharedLibrary links a shared object from its own objects plus the
// objects of every compiled-library dependency (objects, not archives:
// the shared object is self-contained, at the cost of duplicating an
// object that two shared libraries both absorb). An optional version
// triple turns the output into a soname chain of symlinks ending at the
// fully versioned real file.
type CCSharedLibrary struct {
	CCLibrary

	majorVersion   string
	minorVersion   string
	releaseVersion string

	installStripPrefix string
	noInstall          bool

	exportedSymbols    env.Resource
	hasExportedSymbols bool
}

// NewCCSharedLibrary returns an unparsed cc_shared_library node.
func NewCCSharedLibrary(t env.TargetInfo, in *env.Input) *CCSharedLibrary {
	return &CCSharedLibrary{CCLibrary: *NewCCLibrary(t, in)}
}

func (n *CCSharedLibrary) Parse(decl *reader.Declaration) error {
	if err := n.CCLibrary.Parse(decl); err != nil {
		return err
	}
	var err error
	if n.majorVersion, err = versionField(decl, n.Target, "major_version"); err != nil {
		return err
	}
	if n.minorVersion, err = versionField(decl, n.Target, "minor_version"); err != nil {
		return err
	}
	if n.releaseVersion, err = versionField(decl, n.Target, "release_version"); err != nil {
		return err
	}
	if n.minorVersion != "" && n.majorVersion == "" {
		return configErrf(n.Target, "minor_version", "requires major_version")
	}
	if n.releaseVersion != "" && n.minorVersion == "" {
		return configErrf(n.Target, "release_version", "requires minor_version")
	}
	if sym, err := decl.String("exported_symbols"); err != nil {
		return configErrf(n.Target, "exported_symbols", "%v", err)
	} else if sym != "" {
		n.exportedSymbols = env.FromPath(path.Join(n.Target.Dir, sym))
		n.hasExportedSymbols = true
	}
	if n.installStripPrefix, err = decl.String("install_strip_prefix"); err != nil {
		return configErrf(n.Target, "install_strip_prefix", "%v", err)
	}
	if n.noInstall, err = decl.Bool("no_install"); err != nil {
		return configErrf(n.Target, "no_install", "%v", err)
	}
	// Surface a bad strip prefix now, before anything is emitted.
	if _, err := n.DestInstallDir(n.OutLinkedObj()); err != nil {
		return err
	}
	return nil
}

// versionField reads one version component; components must be bare
// digit strings so derived filenames are deterministic.
func versionField(decl *reader.Declaration, t env.TargetInfo, field string) (string, error) {
	v, err := decl.String(field)
	if err != nil {
		return "", configErrf(t, field, "%v", err)
	}
	if v == "" {
		return "", nil
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return "", configErrf(t, field, "must be digits, got %q", v)
		}
	}
	return v, nil
}

// chainLink is one filename in the soname chain. Prereq is the
// next-more-specific basename the file symlinks to; empty for the chain
// terminus (the real linked file).
type chainLink struct {
	Name   string
	Prereq string
}

// versionChain derives the soname chain from the plain basename and the
// version components, most specific first. It is the single source of
// truth for both the build rules and the install rules; computing the
// chain twice risks the two drifting apart.
func versionChain(base, major, minor, release string) []chainLink {
	if major == "" {
		return []chainLink{{Name: base}}
	}
	names := []string{base, base + "." + major}
	if minor != "" {
		names = append(names, names[len(names)-1]+"."+minor)
		if release != "" {
			names = append(names, names[len(names)-1]+"."+release)
		}
	}
	chain := []chainLink{{Name: names[len(names)-1]}}
	for i := len(names) - 2; i >= 0; i-- {
		chain = append(chain, chainLink{Name: names[i], Prereq: names[i+1]})
	}
	return chain
}

// soBase is the plain unversioned shared-object basename.
func (n *CCSharedLibrary) soBase() string {
	return "lib" + n.Target.Name + ".so"
}

// chain returns the node's soname chain, most specific first.
func (n *CCSharedLibrary) chain() []chainLink {
	return versionChain(n.soBase(), n.majorVersion, n.minorVersion, n.releaseVersion)
}

// soname is the name recorded in the shared object's dynamic section:
// the major-suffixed name when versioned, the plain name otherwise.
func (n *CCSharedLibrary) soname() string {
	if n.majorVersion == "" {
		return n.soBase()
	}
	return n.soBase() + "." + n.majorVersion
}

// OutLinkedObj is the real linked file, the chain terminus.
func (n *CCSharedLibrary) OutLinkedObj() env.Resource {
	return n.Input.OutPath(n.Target, n.chain()[0].Name)
}

// Outputs is the whole chain, terminus first.
func (n *CCSharedLibrary) Outputs() []env.Resource {
	var outs []env.Resource
	for _, link := range n.chain() {
		outs = append(outs, n.Input.OutPath(n.Target, link.Name))
	}
	return outs
}

// linkedObjects is the full link input: own objects first, then every
// dependency's own objects, deduplicated in first-reference order.
func (n *CCSharedLibrary) linkedObjects(allDeps []Node) []env.Resource {
	var set env.ResourceSet
	set.AddAll(n.allObjects())
	for _, dep := range allDeps {
		set.AddAll(dep.ObjectFiles(LangC))
		set.AddAll(dep.ObjectFiles(LangCPP))
	}
	return set.Resources()
}

func (n *CCSharedLibrary) WriteMakefile(allDeps []Node, out *makefile.Makefile) error {
	if err := n.writeCompileRules(out); err != nil {
		return err
	}
	if err := n.writeLink(allDeps, out); err != nil {
		return err
	}
	if err := n.writeSymlinks(out); err != nil {
		return err
	}
	return n.WriteBaseUserTarget(n.Outputs(), out)
}

// writeLink emits the single link rule producing the chain terminus.
func (n *CCSharedLibrary) writeLink(allDeps []Node, out *makefile.Makefile) error {
	objs := n.linkedObjects(allDeps)
	r := out.StartRule(n.OutLinkedObj().Path())
	for _, o := range objs {
		r.AddPrereq(o.Path())
	}
	if n.hasExportedSymbols {
		r.AddPrereq(n.exportedSymbols.Path())
	}
	r.WriteMkdir()
	cmd := []string{"$(LD)", "-shared", "-Wl,-soname," + n.soname()}
	if n.hasExportedSymbols {
		cmd = append(cmd, "-Wl,--version-script="+n.exportedSymbols.Path())
	}
	cmd = append(cmd, "-o", "$@")
	for _, o := range objs {
		cmd = append(cmd, o.Path())
	}
	cmd = append(cmd, "$(LDFLAGS)")
	r.WriteCommand(strings.Join(cmd, " "))
	return out.FinishRule(r)
}

// writeSymlinks emits one rule per chain symlink, each with the
// next-more-specific file as its sole prerequisite so make refreshes
// the chain without relinking.
func (n *CCSharedLibrary) writeSymlinks(out *makefile.Makefile) error {
	for _, link := range n.chain()[1:] {
		r := out.StartRule(
			n.Input.OutPath(n.Target, link.Name).Path(),
			n.Input.OutPath(n.Target, link.Prereq).Path(),
		)
		r.WriteMkdir()
		r.WriteCommand("ln -sf " + link.Prereq + " $@")
		if err := out.FinishRule(r); err != nil {
			return err
		}
	}
	return nil
}

// DestInstallDir computes the install destination for source: its
// directory with the configured strip prefix removed, rooted under the
// library install dir. A strip prefix that is not actually a prefix of
// the path is a ConfigError.
func (n *CCSharedLibrary) DestInstallDir(source env.Resource) (string, error) {
	dir := source.Dir
	if p := n.installStripPrefix; p != "" {
		switch {
		case dir == p:
			dir = ""
		case strings.HasPrefix(dir, p+"/"):
			dir = dir[len(p)+1:]
		default:
			return "", configErrf(n.Target, "install_strip_prefix",
				"%q is not a prefix of %q", p, dir)
		}
	}
	return path.Join("$(DESTDIR)$(PREFIX)/lib", dir), nil
}

// WriteMakeInstall installs the chain terminus and recreates every
// symlink at the destination. The same chain drives both this and the
// build rules, so the installed set can never diverge from the built
// set.
func (n *CCSharedLibrary) WriteMakeInstall(base *makefile.Makefile, install *makefile.Rule) error {
	if n.noInstall {
		return nil
	}
	real := n.OutLinkedObj()
	dest, err := n.DestInstallDir(real)
	if err != nil {
		return err
	}
	install.AddPrereq(real.Path())
	install.WriteCommand("install -d " + dest)
	install.WriteCommand("install -m 0755 " + real.Path() + " " + dest + "/" + real.Base)
	for _, link := range n.chain()[1:] {
		install.WriteCommand("ln -sf " + link.Prereq + " " + dest + "/" + link.Name)
	}
	return nil
}
