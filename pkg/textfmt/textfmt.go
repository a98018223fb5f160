// Package textfmt is the text query/edit boundary: a line-oriented rendering
// of one network that external tooling can read, diff, and write back.
//
// The format is one block per node,
//
//	ball = sphere {
//	    radius = 2.5
//	    center = vec31
//	}
//
// where a right-hand side naming another node is a wire and anything else is
// a configuration literal, followed by optional "display <name>" and
// "output <name>" statements. Serialize is a pure function of graph state;
// Apply edits a network from the same syntax.
package textfmt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// Serialize renders the network in text format. Nodes appear in id order, so
// output is stable across calls for an unchanged graph.
func Serialize(nw *graph.NodeNetwork, reg *registry.Registry) string {
	var b strings.Builder
	for _, n := range nw.SortedNodes() {
		fmt.Fprintf(&b, "%s = %s {\n", n.DisplayName(), n.TypeName)
		if tc, ok := n.Data.(graph.TextConfigurable); ok {
			for _, prop := range tc.TextProperties() {
				fmt.Fprintf(&b, "    %s = %s\n", prop.Name, prop.Value)
			}
		}
		if base := reg.Lookup(n.TypeName); base != nil {
			eff := n.EffectiveType(base)
			for i, arg := range n.Args {
				if len(arg.Wires) == 0 || i >= len(eff.Parameters) {
					continue
				}
				fmt.Fprintf(&b, "    %s = %s\n", eff.Parameters[i].Name, formatSources(nw, arg))
			}
		}
		b.WriteString("}\n")
	}
	for _, id := range nw.DisplayedNodes() {
		if n := nw.Node(id); n != nil {
			fmt.Fprintf(&b, "display %s\n", n.DisplayName())
		}
	}
	if ret := nw.Node(nw.ReturnNode); ret != nil {
		fmt.Fprintf(&b, "output %s\n", ret.DisplayName())
	}
	return b.String()
}

func formatSources(nw *graph.NodeNetwork, arg graph.Argument) string {
	names := make([]string, 0, len(arg.Wires))
	for _, w := range arg.Wires {
		if src := nw.Node(w.Source); src != nil {
			names = append(names, src.DisplayName())
		}
	}
	if len(names) == 1 {
		return names[0]
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// EditResult reports what one Apply call did.
type EditResult struct {
	Created     []string `json:"created,omitempty"`
	Updated     []string `json:"updated,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Connections int      `json:"connections"`
	Warnings    []string `json:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

func (r *EditResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *EditResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// nodeStmt is one parsed node block.
type nodeStmt struct {
	name     string
	typeName string
	props    []propLine
	line     int
}

type propLine struct {
	key   string
	value string
	line  int
}

// connSpec is a deferred wire assignment: slot paramName of dest gets
// exactly the named sources.
type connSpec struct {
	dest      string
	paramName string
	sources   []string
	line      int
}

// Apply edits the network from text. Each node block either creates a node
// (unknown name) or updates one; a block naming an unknown type is rejected
// whole. Wires are resolved after every block has been processed, so blocks
// may reference nodes defined later in the same text. With replace set,
// nodes not mentioned in the text are deleted. Apply never leaves dangling
// ids, arity mismatches, or cycles behind: each rejected piece is skipped
// with the rest applied best-effort.
func Apply(nw *graph.NodeNetwork, reg *registry.Registry, text string, replace bool) *EditResult {
	res := &EditResult{}
	stmts, displays, deletes, output, parseErrs := parse(text)
	res.Errors = append(res.Errors, parseErrs...)

	mentioned := make(map[string]bool)
	var conns []connSpec

	for _, st := range stmts {
		mentioned[st.name] = true
		base := reg.Lookup(st.typeName)
		if base == nil {
			res.errorf("line %d: unknown node type %q", st.line, st.typeName)
			continue
		}
		n := nw.NodeByName(st.name)
		created := false
		if n == nil {
			var data graph.NodeData
			if b := reg.Builtin(st.typeName); b != nil && b.NewData != nil {
				data = b.NewData()
			} else if base.Subnetwork && reg.SubnetData != nil {
				data = reg.SubnetData()
			}
			n = nw.AddNode(st.typeName, len(base.Parameters), data, graph.Position{})
			n.Custom = st.name
			created = true
		} else if n.TypeName != st.typeName {
			res.errorf("line %d: node %q is a %s, not a %s", st.line, st.name, n.TypeName, st.typeName)
			continue
		}

		for _, p := range st.props {
			if looksLikeParam(n, base, p.key) && isWireValue(p.value) {
				conns = append(conns, connSpec{dest: st.name, paramName: p.key, sources: splitSources(p.value), line: p.line})
				continue
			}
			tc, ok := n.Data.(graph.TextConfigurable)
			if !ok {
				res.warnf("line %d: %s has no configurable properties", p.line, st.name)
				continue
			}
			if err := tc.SetTextProperty(p.key, p.value); err != nil {
				res.errorf("line %d: %v", p.line, err)
			}
		}
		graph.EnsureArgCount(n, len(n.EffectiveType(base).Parameters))

		if created {
			res.Created = append(res.Created, st.name)
		} else {
			res.Updated = append(res.Updated, st.name)
		}
	}

	for _, c := range conns {
		applyConnection(nw, reg, c, res)
	}

	for _, d := range deletes {
		n := nw.NodeByName(d.name)
		if n == nil {
			res.warnf("line %d: delete of unknown node %q", d.line, d.name)
			continue
		}
		if err := nw.DeleteNode(n.ID); err != nil {
			res.errorf("line %d: %v", d.line, err)
			continue
		}
		res.Deleted = append(res.Deleted, d.name)
	}

	if replace {
		for _, n := range nw.SortedNodes() {
			if !mentioned[n.DisplayName()] {
				name := n.DisplayName()
				if err := nw.DeleteNode(n.ID); err == nil {
					res.Deleted = append(res.Deleted, name)
				}
			}
		}
	}

	for _, d := range displays {
		n := nw.NodeByName(d.name)
		if n == nil {
			res.warnf("line %d: display of unknown node %q", d.line, d.name)
			continue
		}
		if err := nw.SetDisplay(n.ID, true); err != nil {
			res.errorf("line %d: %v", d.line, err)
		}
	}
	if output != nil {
		n := nw.NodeByName(output.name)
		if n == nil {
			res.errorf("line %d: output names unknown node %q", output.line, output.name)
		} else if err := nw.SetReturnNode(n.ID); err != nil {
			res.errorf("line %d: %v", output.line, err)
		}
	}
	sort.Strings(res.Deleted)
	return res
}

// applyConnection replaces one argument slot with the named sources. The
// whole assignment is validated first, so a bad source name or incompatible
// type leaves the slot untouched.
func applyConnection(nw *graph.NodeNetwork, reg *registry.Registry, c connSpec, res *EditResult) {
	dst := nw.NodeByName(c.dest)
	if dst == nil {
		res.errorf("line %d: unknown node %q", c.line, c.dest)
		return
	}
	base := reg.Lookup(dst.TypeName)
	if base == nil {
		res.errorf("line %d: node %q has unknown type %q", c.line, c.dest, dst.TypeName)
		return
	}
	eff := dst.EffectiveType(base)
	idx := eff.ParamIndex(c.paramName)
	if idx < 0 {
		res.errorf("line %d: %s has no input %q", c.line, c.dest, c.paramName)
		return
	}
	want := eff.Parameters[idx].Type

	srcs := make([]*graph.Node, 0, len(c.sources))
	for _, name := range c.sources {
		src := nw.NodeByName(name)
		if src == nil {
			res.errorf("line %d: unknown source node %q", c.line, name)
			return
		}
		srcBase := reg.Lookup(src.TypeName)
		if srcBase == nil {
			res.errorf("line %d: source %q has unknown type %q", c.line, name, src.TypeName)
			return
		}
		got := src.EffectiveType(srcBase).OutputType
		if !got.ConvertibleTo(want) {
			res.errorf("line %d: cannot wire %s (%s) into %s.%s (%s)",
				c.line, name, got, c.dest, c.paramName, want)
			return
		}
		srcs = append(srcs, src)
	}

	prev := dst.Args[idx].Clone()
	dst.Args[idx] = graph.Argument{}
	for _, src := range srcs {
		if err := nw.Connect(src.ID, 0, dst.ID, idx); err != nil {
			dst.Args[idx] = prev
			res.errorf("line %d: %v", c.line, err)
			return
		}
	}
	res.Connections += len(srcs)
}

// isWireValue reports whether value is a node name or bracketed list of node
// names, as opposed to a literal. Names may be defined by a later block in
// the same text, so this is purely syntactic.
func isWireValue(value string) bool {
	if isSourceList(value) {
		parts := splitSources(value)
		if len(parts) == 0 {
			return true
		}
		for _, p := range parts {
			if !isIdent(p) {
				return false
			}
		}
		return true
	}
	return isIdent(value)
}

func looksLikeParam(n *graph.Node, base *graph.NodeType, key string) bool {
	return n.EffectiveType(base).ParamIndex(key) >= 0
}

func isSourceList(value string) bool {
	return strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")
}

func splitSources(value string) []string {
	if isSourceList(value) {
		value = value[1 : len(value)-1]
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isIdent(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

type nameStmt struct {
	name string
	line int
}

// parse splits text into node blocks and trailing statements. Malformed
// lines are reported and skipped; everything parseable is returned.
func parse(text string) (stmts []nodeStmt, displays, deletes []nameStmt, output *nameStmt, errs []string) {
	var cur *nodeStmt
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if cur != nil {
			if line == "}" {
				stmts = append(stmts, *cur)
				cur = nil
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				errs = append(errs, fmt.Sprintf("line %d: expected \"key = value\" or \"}\"", lineNo))
				continue
			}
			cur.props = append(cur.props, propLine{
				key:   strings.TrimSpace(key),
				value: strings.TrimSpace(value),
				line:  lineNo,
			})
			continue
		}
		switch {
		case strings.HasPrefix(line, "output "):
			output = &nameStmt{name: strings.TrimSpace(strings.TrimPrefix(line, "output ")), line: lineNo}
		case strings.HasPrefix(line, "display "):
			displays = append(displays, nameStmt{name: strings.TrimSpace(strings.TrimPrefix(line, "display ")), line: lineNo})
		case strings.HasPrefix(line, "delete "):
			deletes = append(deletes, nameStmt{name: strings.TrimSpace(strings.TrimPrefix(line, "delete ")), line: lineNo})
		default:
			name, rest, ok := strings.Cut(line, "=")
			if !ok {
				errs = append(errs, fmt.Sprintf("line %d: unrecognized statement %q", lineNo, line))
				continue
			}
			typeName := strings.TrimSpace(rest)
			closed := false
			if strings.HasSuffix(typeName, "{}") {
				typeName = strings.TrimSpace(strings.TrimSuffix(typeName, "{}"))
				closed = true
			} else if strings.HasSuffix(typeName, "{") {
				typeName = strings.TrimSpace(strings.TrimSuffix(typeName, "{"))
			} else {
				errs = append(errs, fmt.Sprintf("line %d: node statement must open a block with {", lineNo))
				continue
			}
			st := nodeStmt{name: strings.TrimSpace(name), typeName: typeName, line: lineNo}
			if closed {
				stmts = append(stmts, st)
			} else {
				cur = &st
			}
		}
	}
	if cur != nil {
		errs = append(errs, fmt.Sprintf("line %d: unterminated block for %q", cur.line, cur.name))
	}
	return stmts, displays, deletes, output, errs
}
