package nodes

import (
	"path"
	"strings"

	"github.com/vandevoorde/repobuild/env"
	"github.com/vandevoorde/repobuild/makefile"
	"github.com/vandevoorde/repobuild/reader"
)

// CCLibrary collects C/C++ sources, compiles each into an object under
// the object root, and aggregates all objects into one static archive.
// Dependents absorb the objects through ObjectFiles.
type CCLibrary struct {
	Base

	srcs  []env.Resource
	hdrs  []env.Resource
	copts []string
}

// NewCCLibrary returns an unparsed cc_library node.
func NewCCLibrary(t env.TargetInfo, in *env.Input) *CCLibrary {
	return &CCLibrary{Base: NewBase(t, in)}
}

// languageOf classifies a source file by extension.
func languageOf(base string) (Language, bool) {
	switch path.Ext(base) {
	case ".c":
		return LangC, true
	case ".cc", ".cpp", ".cxx":
		return LangCPP, true
	}
	return "", false
}

func (n *CCLibrary) Parse(decl *reader.Declaration) error {
	if err := n.Base.Parse(decl); err != nil {
		return err
	}
	patterns, err := decl.Strings("srcs")
	if err != nil {
		return configErrf(n.Target, "srcs", "%v", err)
	}
	files, err := decl.Glob(n.Input.Root, patterns)
	if err != nil {
		return configErrf(n.Target, "srcs", "%v", err)
	}
	for _, f := range files {
		if _, ok := languageOf(f); !ok {
			return configErrf(n.Target, "srcs", "unsupported source extension in %q", f)
		}
		n.srcs = append(n.srcs, env.FromPath(path.Join(n.Target.Dir, f)))
	}
	hdrPatterns, err := decl.Strings("hdrs")
	if err != nil {
		return configErrf(n.Target, "hdrs", "%v", err)
	}
	hdrs, err := decl.Glob(n.Input.Root, hdrPatterns)
	if err != nil {
		return configErrf(n.Target, "hdrs", "%v", err)
	}
	for _, h := range hdrs {
		n.hdrs = append(n.hdrs, env.FromPath(path.Join(n.Target.Dir, h)))
	}
	if n.copts, err = decl.Strings("copts"); err != nil {
		return configErrf(n.Target, "copts", "%v", err)
	}
	return nil
}

// ObjectFiles returns this node's own objects for lang, in source
// declaration order.
func (n *CCLibrary) ObjectFiles(lang Language) []env.Resource {
	var objs []env.Resource
	for _, src := range n.srcs {
		if l, _ := languageOf(src.Base); l == lang {
			objs = append(objs, n.Input.ObjectPath(src))
		}
	}
	return objs
}

// OutArchive is the node's static-archive output.
func (n *CCLibrary) OutArchive() env.Resource {
	return n.Input.OutPath(n.Target, "lib"+n.Target.Name+".a")
}

func (n *CCLibrary) Outputs() []env.Resource {
	return []env.Resource{n.OutArchive()}
}

// allObjects is every own object across languages, in source order.
func (n *CCLibrary) allObjects() []env.Resource {
	var objs []env.Resource
	for _, src := range n.srcs {
		objs = append(objs, n.Input.ObjectPath(src))
	}
	return objs
}

func (n *CCLibrary) WriteMakefile(allDeps []Node, out *makefile.Makefile) error {
	if err := n.writeCompileRules(out); err != nil {
		return err
	}
	if err := n.writeArchive(out); err != nil {
		return err
	}
	return n.WriteBaseUserTarget(n.Outputs(), out)
}

// writeCompileRules emits one source-to-object rule per source file.
// Headers are listed as prerequisites so edits retrigger compilation.
func (n *CCLibrary) writeCompileRules(out *makefile.Makefile) error {
	for _, src := range n.srcs {
		lang, _ := languageOf(src.Base)
		compiler, flags := "$(CC)", "$(CFLAGS)"
		if lang == LangCPP {
			compiler, flags = "$(CXX)", "$(CXXFLAGS)"
		}
		r := out.StartRule(n.Input.ObjectPath(src).Path(), src.Path())
		for _, h := range n.hdrs {
			r.AddPrereq(h.Path())
		}
		r.WriteMkdir()
		cmd := []string{compiler, flags, "-I."}
		cmd = append(cmd, n.copts...)
		cmd = append(cmd, "-c", src.Path(), "-o", "$@")
		r.WriteCommand(strings.Join(cmd, " "))
		if err := out.FinishRule(r); err != nil {
			return err
		}
	}
	return nil
}

// writeArchive emits the objects-to-archive aggregation rule.
func (n *CCLibrary) writeArchive(out *makefile.Makefile) error {
	objs := n.allObjects()
	r := out.StartRule(n.OutArchive().Path())
	for _, o := range objs {
		r.AddPrereq(o.Path())
	}
	r.WriteMkdir()
	r.WriteCommand("$(AR) rcs $@ $^")
	return out.FinishRule(r)
}
