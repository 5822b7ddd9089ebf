// Package render draws callgraphs as Graphviz DOT.
package render

import (
	"fmt"
	"strings"

	"github.com/zboralski/apt-dumper/apt/callgraph"
)

// Flat monochrome palette with two accents: blue for action blocks, red for
// callees defined outside the movie.
const (
	accent  = "#0B3D91"
	alert   = "#FC3D21"
	ink     = "#1A1A1A"
	muted   = "#9E9E9E"
	paper   = "#F5F5F5"
	strLit  = "#D84315"
	argText = "#00695C"
	font    = "Helvetica Neue,Helvetica,Arial"
)

// DOT renders the callgraph in Graphviz DOT format.
func DOT(g *callgraph.Graph, title string) string {
	var b strings.Builder
	b.WriteString("digraph callgraph {\n")
	b.WriteString("  rankdir=LR;\n  splines=true;\n  nodesep=0.4;\n  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", paper)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=white, color=%q, penwidth=0.5, fontname=%q, fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n", ink, font, ink)
	fmt.Fprintf(&b, "  edge [color=%q, penwidth=0.5, arrowsize=0.5, arrowhead=vee];\n", muted)
	if title != "" {
		b.WriteString("  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n", ink, dotEscape(title))
	}
	b.WriteByte('\n')

	defined := map[string]bool{}
	for _, n := range g.Nodes {
		defined[n] = true
		fmt.Fprintf(&b, "  %s [label=%q%s];\n", dotID(n), n, nodeStyle(g, n))
	}
	b.WriteByte('\n')

	external := map[string]bool{}
	for _, e := range g.Edges {
		attrs := edgeLabel(e.Args)
		if !defined[e.Callee] {
			if !external[e.Callee] {
				external[e.Callee] = true
				fmt.Fprintf(&b, "  %s [label=%q%s];\n", dotID(e.Callee), e.Callee, externalStyle(e.Callee))
			}
			attrs = append(externalEdge(e.Callee), attrs...)
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&b, "  %s -> %s;\n", dotID(e.Caller), dotID(e.Callee))
		} else {
			fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(e.Caller), dotID(e.Callee), strings.Join(attrs, ", "))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func nodeStyle(g *callgraph.Graph, name string) string {
	switch {
	case g.IsRoot(name):
		return fmt.Sprintf(", fillcolor=%q, fontcolor=white, penwidth=0", accent)
	case strings.HasPrefix(name, "anon#"):
		return fmt.Sprintf(", style=\"filled,dashed\", color=%q, fontcolor=%q", muted, muted)
	}
	return ""
}

// Player-provided callees are drawn quieter than movie functions.
func externalStyle(name string) string {
	if engineCall(name) {
		return fmt.Sprintf(", shape=plaintext, style=\"\", fillcolor=none, fontname=\"Courier,monospace\", fontcolor=%q, fontsize=7", muted)
	}
	return fmt.Sprintf(", shape=plaintext, style=\"\", fillcolor=none, fontcolor=%q, fontsize=8", alert)
}

func externalEdge(name string) []string {
	if engineCall(name) {
		return []string{fmt.Sprintf("color=%q", muted), "style=dotted", "penwidth=0.3"}
	}
	return []string{fmt.Sprintf("color=%q", alert), "style=dashed", "penwidth=0.4"}
}

// edgeLabel returns the label attribute for literal call arguments, with
// strings and keywords colored apart from numbers.
func edgeLabel(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, `label=<<font point-size="7" color="%s"> (`, argText)
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch {
		case strings.HasPrefix(arg, `"`):
			fmt.Fprintf(&b, `<font color="%s">%s</font>`, strLit, dotEscape(arg))
		case arg == "true" || arg == "false" || arg == "null" || arg == "undefined":
			fmt.Fprintf(&b, `<font color="%s">%s</font>`, accent, arg)
		default:
			b.WriteString(dotEscape(arg))
		}
	}
	b.WriteString(")</font>>")
	return []string{b.String()}
}
