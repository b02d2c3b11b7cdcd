// Package reader parses BUILD files: one file per workspace directory,
// holding a JSON array of target declarations. Each array element is a
// one-key object whose key names the node kind and whose value is the
// declaration body. Full lines starting with '#' are comments.
package reader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the build-definition file looked up in every directory.
const FileName = "BUILD"

// BuildFile is one parsed BUILD file.
type BuildFile struct {
	// Dir is the workspace-relative directory holding the file ("" for
	// the workspace root).
	Dir string

	// Decls are the declarations in file order.
	Decls []*Declaration
}

// Declaration is one target declaration: its node kind plus the
// generically-typed body the node's Parse method reads fields from.
type Declaration struct {
	Kind string
	Dir  string

	body map[string]json.RawMessage
}

// Load reads and parses the BUILD file at path, declared to live in the
// workspace directory dir.
func Load(path, dir string) (*BuildFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(dir, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses BUILD file text for the workspace directory dir.
func Parse(dir string, data []byte) (*BuildFile, error) {
	text, err := stripComments(data)
	if err != nil {
		return nil, fmt.Errorf("read BUILD text: %w", err)
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(text, &raw); err != nil {
		return nil, fmt.Errorf("invalid BUILD syntax: %w", err)
	}
	f := &BuildFile{Dir: dir}
	for i, obj := range raw {
		if len(obj) != 1 {
			return nil, fmt.Errorf("declaration #%d: want exactly one node kind, got %d keys", i+1, len(obj))
		}
		for kind, body := range obj {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(body, &fields); err != nil {
				return nil, fmt.Errorf("declaration #%d (%s): body must be an object: %w", i+1, kind, err)
			}
			f.Decls = append(f.Decls, &Declaration{Kind: kind, Dir: dir, body: fields})
		}
	}
	return f, nil
}

// stripComments removes full-line '#' comments so the rest decodes as
// plain JSON. A scanner failure (a line past the buffer limit) must not
// silently truncate the file.
func stripComments(data []byte) ([]byte, error) {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			out.WriteByte('\n')
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Has reports whether the declaration body carries the field.
func (d *Declaration) Has(field string) bool {
	_, ok := d.body[field]
	return ok
}

// String reads an optional string field; absent yields "".
func (d *Declaration) String(field string) (string, error) {
	raw, ok := d.body[field]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: expected a string", field)
	}
	return s, nil
}

// RequiredString reads a string field that must be present and non-empty.
func (d *Declaration) RequiredString(field string) (string, error) {
	if !d.Has(field) {
		return "", fmt.Errorf("field %q: required", field)
	}
	s, err := d.String(field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("field %q: must not be empty", field)
	}
	return s, nil
}

// Strings reads an optional string-list field; absent yields nil.
func (d *Declaration) Strings(field string) ([]string, error) {
	raw, ok := d.body[field]
	if !ok {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("field %q: expected a list of strings", field)
	}
	return list, nil
}

// Bool reads an optional bool field; absent yields false.
func (d *Declaration) Bool(field string) (bool, error) {
	raw, ok := d.body[field]
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("field %q: expected a bool", field)
	}
	return b, nil
}

// Glob expands a list of source patterns against the declaration's
// directory under root (the absolute workspace root). Entries without
// glob metacharacters pass through verbatim, so a missing plain file
// surfaces as a make-time error instead of silently vanishing. Matches
// are sorted; the result keeps pattern order, deduplicated.
func (d *Declaration) Glob(root string, patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}
	dirFS := os.DirFS(strings.TrimSuffix(root+"/"+d.Dir, "/"))
	for _, pat := range patterns {
		if !strings.ContainsAny(pat, "*?[{") {
			add(pat)
			continue
		}
		matches, err := doublestar.Glob(dirFS, pat)
		if err != nil {
			return nil, fmt.Errorf("field pattern %q: %w", pat, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
