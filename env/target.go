// Package env holds the workspace model shared by every stage of the
// compiler: target identities, logical output resources, and the Input
// describing where the workspace lives and which toolchain it uses.
package env

import (
	"fmt"
	"path"
	"strings"
)

// TargetInfo identifies one declared target: the BUILD file directory
// (workspace-relative, slash-separated, "" for the root) plus the target
// name. Two equal TargetInfos always refer to the same node.
type TargetInfo struct {
	Dir  string
	Name string
}

// ParseTarget resolves a target reference against the directory of the
// BUILD file it appears in. References are either workspace-absolute
// ("//dir/subdir:name") or local (":name").
func ParseTarget(ref, relDir string) (TargetInfo, error) {
	var dir, rest string
	switch {
	case strings.HasPrefix(ref, "//"):
		body := ref[2:]
		i := strings.IndexByte(body, ':')
		if i < 0 {
			return TargetInfo{}, fmt.Errorf("target reference %q: missing \":name\"", ref)
		}
		dir, rest = body[:i], body[i+1:]
	case strings.HasPrefix(ref, ":"):
		dir, rest = relDir, ref[1:]
	default:
		return TargetInfo{}, fmt.Errorf("target reference %q: must start with %q or %q", ref, "//", ":")
	}
	if rest == "" {
		return TargetInfo{}, fmt.Errorf("target reference %q: empty target name", ref)
	}
	if strings.ContainsAny(rest, "/:") {
		return TargetInfo{}, fmt.Errorf("target reference %q: invalid name %q", ref, rest)
	}
	dir, err := cleanTargetDir(ref, dir)
	if err != nil {
		return TargetInfo{}, err
	}
	return TargetInfo{Dir: dir, Name: rest}, nil
}

func cleanTargetDir(ref, dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if strings.Contains(dir, "\\") {
		return "", fmt.Errorf("target reference %q: use forward slashes", ref)
	}
	cleaned := path.Clean(dir)
	if cleaned == "." {
		return "", nil
	}
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("target reference %q: directory escapes the workspace", ref)
	}
	return cleaned, nil
}

// String returns the canonical workspace-absolute form, "//dir:name".
func (t TargetInfo) String() string {
	return "//" + t.Dir + ":" + t.Name
}

// MakePath is the user-facing Makefile alias for the target ("dir/name",
// or just "name" for root-directory targets).
func (t TargetInfo) MakePath() string {
	if t.Dir == "" {
		return t.Name
	}
	return t.Dir + "/" + t.Name
}
