package env

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional workspace configuration file name.
const ConfigFile = "repobuild.yaml"

// Config mirrors repobuild.yaml. Every field is optional; zero values are
// replaced by defaults when the Input is built.
type Config struct {
	CC       string   `yaml:"cc"`
	CXX      string   `yaml:"cxx"`
	AR       string   `yaml:"ar"`
	LD       string   `yaml:"ld"`
	CFlags   []string `yaml:"cflags"`
	CXXFlags []string `yaml:"cxxflags"`
	LDFlags  []string `yaml:"ldflags"`

	ObjectDir     string `yaml:"object_dir"`
	GenfileDir    string `yaml:"genfile_dir"`
	InstallPrefix string `yaml:"install_prefix"`

	DistSources []DistSource `yaml:"dist_sources"`
}

// DistSource pins one external source tree: the workspace path it
// occupies, the repository URL it comes from, and the exact ref to check
// out. Refs are pinned so two runs over the same workspace see the same
// tree.
type DistSource struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	Ref  string `yaml:"ref"`
}

// LoadConfig reads a repobuild.yaml. A missing file is not an error; it
// yields an empty Config so defaults apply.
func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return &cfg, nil
}

// Input is the resolved per-run environment: workspace root, output
// roots, and the toolchain settings the emitted Makefile advertises.
type Input struct {
	// Root is the absolute workspace root directory.
	Root string

	// ObjectDir and GenfileDir are the workspace-relative output roots
	// for compiled outputs and for external-tool install trees.
	ObjectDir  string
	GenfileDir string

	CC       string
	CXX      string
	AR       string
	LD       string
	CFlags   []string
	CXXFlags []string
	LDFlags  []string

	InstallPrefix string

	DistSources []DistSource
}

// NewInput builds an Input for root, applying cfg over the defaults.
func NewInput(root string, cfg *Config) (*Input, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	in := &Input{
		Root:          abs,
		ObjectDir:     orDefault(cfg.ObjectDir, ".gen-obj"),
		GenfileDir:    orDefault(cfg.GenfileDir, ".gen-files"),
		CC:            orDefault(cfg.CC, "gcc"),
		CXX:           orDefault(cfg.CXX, "g++"),
		AR:            orDefault(cfg.AR, "ar"),
		LD:            orDefault(cfg.LD, "$(CXX)"),
		CFlags:        cfg.CFlags,
		CXXFlags:      cfg.CXXFlags,
		LDFlags:       cfg.LDFlags,
		InstallPrefix: orDefault(cfg.InstallPrefix, "/usr/local"),
		DistSources:   cfg.DistSources,
	}
	return in, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ObjectPath maps a source resource to its object file under ObjectDir.
// The whole source basename is kept ("lex.c" -> "lex.c.o") so same-stem
// sources in different languages cannot collide.
func (in *Input) ObjectPath(src Resource) Resource {
	return NewResource(path.Join(in.ObjectDir, src.Dir), src.Base+".o")
}

// OutPath maps a target plus an output basename into the target's output
// directory under ObjectDir.
func (in *Input) OutPath(t TargetInfo, base string) Resource {
	return NewResource(path.Join(in.ObjectDir, t.Dir), base)
}

// GenPath maps a target plus a basename into the target's genfile
// directory, where external build tools deposit their results.
func (in *Input) GenPath(t TargetInfo, base string) Resource {
	return NewResource(path.Join(in.GenfileDir, t.Dir), base)
}

// GenDir is the per-target genfile root ("<genfiles>/<dir>/<name>"),
// handed to external build tools as their install prefix.
func (in *Input) GenDir(t TargetInfo) string {
	return path.Join(in.GenfileDir, t.Dir, t.Name)
}

// AbsPath resolves a workspace-relative slash path on disk.
func (in *Input) AbsPath(rel string) string {
	return filepath.Join(in.Root, filepath.FromSlash(rel))
}
