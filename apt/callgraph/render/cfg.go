package render

import (
	"fmt"
	"strings"

	"github.com/zboralski/apt-dumper/apt/callgraph"
)

// maxBlockCalls limits how many calls to show in a single block label.
const maxBlockCalls = 10

// Ink-on-paper palette for control flow: one dark stroke, indigo for
// taken branches, vermillion for fallthrough-on-false.
const (
	sumi   = "#2D2D2D"
	indigo = "#2D4A7A"
	vermil = "#BF3F2F"
	kinari = "#FAF6F0"
	nezumi = "#8E8E8E"
)

// DOTCFG renders the CFG in Graphviz DOT format, one cluster per function.
func DOTCFG(g *callgraph.CFGGraph, title string) string {
	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=LR;\n  splines=true;\n  nodesep=0.5;\n  ranksep=0.6;\n  compound=true;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", kinari)
	fmt.Fprintf(&b, "  node [shape=rect, style=\"\", color=%q, penwidth=0.3, fontname=%q, fontsize=8, fontcolor=%q, height=0.3, margin=\"0.14,0.08\"];\n", nezumi, font, sumi)
	fmt.Fprintf(&b, "  edge [color=%q, penwidth=0.4, arrowsize=0.35, arrowhead=vee];\n", nezumi)
	if title != "" {
		b.WriteString("  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n", sumi, dotEscape(title))
	}
	b.WriteByte('\n')

	funcIndex := map[string]int{}
	for fi, f := range g.Funcs {
		if _, ok := funcIndex[f.Name]; !ok {
			funcIndex[f.Name] = fi
		}
	}
	external := map[string]bool{}

	for fi, f := range g.Funcs {
		visible := visibleBlocks(f)

		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", fi)
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n", sumi, dotEscape(f.Name))
		style := "dotted"
		if f.Root {
			style = "solid"
		}
		fmt.Fprintf(&b, "    style=%s;\n    color=%q;\n    penwidth=0.3;\n", style, nezumi)
		for _, blk := range f.Blocks {
			if visible[blk.ID] {
				fmt.Fprintf(&b, "    %s [%s];\n", blockNodeID(fi, blk.ID), blockAttrs(blk))
			}
		}
		for _, blk := range f.Blocks {
			if visible[blk.ID] {
				writeSuccs(&b, f, fi, blk, visible)
			}
		}
		b.WriteString("  }\n\n")

		for _, blk := range f.Blocks {
			if !visible[blk.ID] {
				continue
			}
			src := blockNodeID(fi, blk.ID)
			seen := map[string]bool{}
			for _, call := range blk.Calls {
				if ti, ok := funcIndex[call.Callee]; ok {
					dst := blockNodeID(ti, 0)
					if ti == fi || seen[dst] {
						continue
					}
					seen[dst] = true
					fmt.Fprintf(&b, "  %s -> %s [lhead=\"cluster_%d\", color=%q, penwidth=0.5];\n", src, dst, ti, indigo)
					continue
				}
				dst := dotID(call.Callee)
				if !external[call.Callee] {
					external[call.Callee] = true
					fmt.Fprintf(&b, "  %s [label=%q%s];\n", dst, call.Callee, externalStyle(call.Callee))
				}
				if seen[dst] {
					continue
				}
				seen[dst] = true
				fmt.Fprintf(&b, "  %s -> %s [%s];\n", src, dst, strings.Join(externalEdge(call.Callee), ", "))
			}
		}

		// Definitions hang off the entry block of the defining function.
		for _, ci := range f.Children {
			fmt.Fprintf(&b, "  %s -> %s [lhead=\"cluster_%d\", color=%q, style=dashed, penwidth=0.3];\n",
				blockNodeID(fi, 0), blockNodeID(ci, 0), ci, indigo)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// visibleBlocks selects the blocks worth drawing: the entry, blocks with
// calls, branch points and exits. Other blocks are folded into their edges.
func visibleBlocks(f *callgraph.FuncCFG) map[int]bool {
	v := map[int]bool{0: true}
	for _, blk := range f.Blocks {
		if len(blk.Calls) > 0 || len(blk.Succs) > 1 || (blk.Term && len(blk.Succs) == 0) {
			v[blk.ID] = true
		}
	}
	return v
}

func blockAttrs(blk *callgraph.BasicBlock) string {
	switch {
	case blk.ID == 0:
		return fmt.Sprintf("label=%s, style=filled, fillcolor=%q, fontcolor=%q, color=%q, penwidth=0", blockLabel(blk, true), sumi, kinari, sumi)
	case len(blk.Calls) > 0:
		return "label=" + blockLabel(blk, false)
	case len(blk.Succs) > 1:
		return fmt.Sprintf("label=\"\", shape=diamond, width=0.15, height=0.15, color=%q", sumi)
	case blk.Term:
		return fmt.Sprintf("label=\"ret\", shape=plaintext, fontcolor=%q", nezumi)
	}
	return "label=" + blockLabel(blk, false)
}

func writeSuccs(b *strings.Builder, f *callgraph.FuncCFG, fi int, blk *callgraph.BasicBlock, visible map[int]bool) {
	src := blockNodeID(fi, blk.ID)
	targets := make([]callgraph.Successor, 0, len(blk.Succs))
	for _, s := range blk.Succs {
		if t := resolveTarget(f, s.BlockID, visible); t >= 0 {
			targets = append(targets, callgraph.Successor{BlockID: t, Cond: s.Cond})
		}
	}
	// Both arms landing on the same block is one plain edge.
	if len(targets) == 2 && targets[0].BlockID == targets[1].BlockID {
		targets = []callgraph.Successor{{BlockID: targets[0].BlockID}}
	}
	seen := map[int]bool{}
	for _, t := range targets {
		if seen[t.BlockID] {
			continue
		}
		seen[t.BlockID] = true
		dst := blockNodeID(fi, t.BlockID)
		if t.Cond == "" {
			fmt.Fprintf(b, "    %s -> %s;\n", src, dst)
			continue
		}
		color := indigo
		if t.Cond == "F" {
			color = vermil
		}
		fmt.Fprintf(b, "    %s -> %s [color=%q, label=<<font point-size=\"8\" color=\"%s\">%s</font>>];\n", src, dst, color, color, t.Cond)
	}
}

// resolveTarget follows chains of hidden blocks to the next visible one.
func resolveTarget(f *callgraph.FuncCFG, id int, visible map[int]bool) int {
	visited := map[int]bool{}
	for !visible[id] {
		if visited[id] || id < 0 || id >= len(f.Blocks) {
			return -1
		}
		visited[id] = true
		blk := f.Blocks[id]
		if len(blk.Succs) == 0 {
			return -1
		}
		id = blk.Succs[0].BlockID
	}
	return id
}

func blockNodeID(fi, id int) string {
	return fmt.Sprintf("f%d_b%d", fi, id)
}

// blockLabel lists the calls of a block. dark selects light colors for the
// filled entry block.
func blockLabel(blk *callgraph.BasicBlock, dark bool) string {
	text, args, str, kw := sumi, "#8B7355", "#9B2335", indigo
	if dark {
		text, args, str, kw = kinari, "#D4C5A9", "#E8A0A0", "#8FAED4"
	}
	if len(blk.Calls) == 0 {
		if blk.ID == 0 {
			return fmt.Sprintf("<<font color=\"%s\">entry</font>>", text)
		}
		return fmt.Sprintf("<<font color=\"%s\">@%05X</font>>", text, blk.Offset)
	}

	var b strings.Builder
	b.WriteString("<<table border=\"0\" cellborder=\"0\" cellspacing=\"0\" cellpadding=\"2\">")
	for i, call := range blk.Calls {
		if i == maxBlockCalls {
			fmt.Fprintf(&b, "<tr><td align=\"left\"><font color=\"%s\">+%d more</font></td></tr>", args, len(blk.Calls)-maxBlockCalls)
			break
		}
		fmt.Fprintf(&b, "<tr><td align=\"left\"><font color=\"%s\">%s", text, dotEscape(call.Callee))
		if len(call.Args) > 0 {
			fmt.Fprintf(&b, " <font color=\"%s\">(", args)
			for j, arg := range call.Args {
				if j > 0 {
					b.WriteString(", ")
				}
				switch {
				case strings.HasPrefix(arg, `"`):
					fmt.Fprintf(&b, "<font color=\"%s\">%s</font>", str, dotEscape(arg))
				case arg == "true" || arg == "false" || arg == "null" || arg == "undefined":
					fmt.Fprintf(&b, "<font color=\"%s\">%s</font>", kw, arg)
				default:
					b.WriteString(dotEscape(arg))
				}
			}
			b.WriteString(")</font>")
		}
		b.WriteString("</font></td></tr>")
	}
	b.WriteString("</table>>")
	return b.String()
}
