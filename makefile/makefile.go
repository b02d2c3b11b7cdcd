// Package makefile accumulates build rules and serializes them into one
// Makefile. The accumulator owns the two output invariants: a physical
// rule target is emitted at most once, and two different recipes for the
// same target are a fatal conflict rather than a silent overwrite.
package makefile

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Rule is a single Makefile rule: one target, its prerequisites, and a
// recipe of tab-indented commands.
type Rule struct {
	Target  string
	Prereqs []string
	Phony   bool
	Comment string

	commands []string
}

// WriteCommand appends a recipe line.
func (r *Rule) WriteCommand(cmd string) {
	r.commands = append(r.commands, cmd)
}

// WriteSilentCommand appends a recipe line that make does not echo.
func (r *Rule) WriteSilentCommand(cmd string) {
	r.commands = append(r.commands, "@"+cmd)
}

// WriteMkdir appends the output-directory creation line shared by every
// rule that writes into the generated tree.
func (r *Rule) WriteMkdir() {
	r.WriteSilentCommand("mkdir -p $(dir $@)")
}

// AddPrereq appends a prerequisite unless it is already listed.
func (r *Rule) AddPrereq(p string) {
	if !slices.Contains(r.Prereqs, p) {
		r.Prereqs = append(r.Prereqs, p)
	}
}

// Commands returns the recipe lines appended so far.
func (r *Rule) Commands() []string {
	return slices.Clone(r.commands)
}

func (r *Rule) equal(o *Rule) bool {
	return r.Target == o.Target &&
		r.Phony == o.Phony &&
		slices.Equal(r.Prereqs, o.Prereqs) &&
		slices.Equal(r.commands, o.commands)
}

// ConflictError reports two distinct recipes computed for one rule
// target. This is always a path-derivation bug in a node implementation,
// so it aborts the run instead of letting the later rule win. Existing
// is the accepted rule, New the rejected one.
type ConflictError struct {
	Target   string
	Existing *Rule
	New      *Rule
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting rules for makefile target %q: have %v %v, got %v %v",
		e.Target, e.Existing.Prereqs, e.Existing.commands, e.New.Prereqs, e.New.commands)
}

// Makefile is the shared accumulator every node appends rules to.
type Makefile struct {
	preamble []string
	rules    []*Rule
	byTarget map[string]*Rule
}

// New returns an empty accumulator.
func New() *Makefile {
	return &Makefile{byTarget: make(map[string]*Rule)}
}

// Comment appends a comment line to the preamble.
func (m *Makefile) Comment(text string) {
	m.preamble = append(m.preamble, "# "+text)
}

// DefineDefault appends a "NAME ?= value" preamble assignment.
func (m *Makefile) DefineDefault(name, value string) {
	m.preamble = append(m.preamble, name+" ?= "+value)
}

// Define appends a "NAME := value" preamble assignment.
func (m *Makefile) Define(name, value string) {
	m.preamble = append(m.preamble, name+" := "+value)
}

// StartRule begins a rule for target. The rule is not part of the output
// until FinishRule accepts it.
func (m *Makefile) StartRule(target string, prereqs ...string) *Rule {
	return &Rule{Target: target, Prereqs: slices.Clone(prereqs)}
}

// FinishRule adds a completed rule. A rule identical to one already
// accepted for the same target is dropped silently (many nodes may reach
// a shared dependency); a differing rule is a ConflictError.
func (m *Makefile) FinishRule(r *Rule) error {
	if prev, ok := m.byTarget[r.Target]; ok {
		if prev.equal(r) {
			return nil
		}
		return &ConflictError{Target: r.Target, Existing: prev, New: r}
	}
	m.byTarget[r.Target] = r
	m.rules = append(m.rules, r)
	return nil
}

// WriteRule is the one-shot form of StartRule+FinishRule.
func (m *Makefile) WriteRule(target string, prereqs []string, commands ...string) error {
	r := m.StartRule(target, prereqs...)
	for _, c := range commands {
		r.WriteCommand(c)
	}
	return m.FinishRule(r)
}

// Rule returns the accepted rule for target, or nil.
func (m *Makefile) Rule(target string) *Rule {
	return m.byTarget[target]
}

// Targets returns every accepted rule target in emission order.
func (m *Makefile) Targets() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.Target
	}
	return out
}

// WriteTo serializes the accumulated document: preamble, rules in
// acceptance order, then a single .PHONY declaration.
func (m *Makefile) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, line := range m.preamble {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if len(m.preamble) > 0 {
		sb.WriteByte('\n')
	}
	var phony []string
	for _, r := range m.rules {
		if r.Comment != "" {
			sb.WriteString("# ")
			sb.WriteString(r.Comment)
			sb.WriteByte('\n')
		}
		sb.WriteString(r.Target)
		sb.WriteByte(':')
		for _, p := range r.Prereqs {
			sb.WriteByte(' ')
			sb.WriteString(p)
		}
		sb.WriteByte('\n')
		for _, c := range r.commands {
			sb.WriteByte('\t')
			sb.WriteString(c)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
		if r.Phony {
			phony = append(phony, r.Target)
		}
	}
	if len(phony) > 0 {
		sb.WriteString(".PHONY:")
		for _, p := range phony {
			sb.WriteByte(' ')
			sb.WriteString(p)
		}
		sb.WriteByte('\n')
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the serialized document.
func (m *Makefile) String() string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}
