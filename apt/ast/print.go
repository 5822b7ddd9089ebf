package ast

import "strings"

// Print renders an expression, parenthesizing children whose precedence is
// below what their slot accepts.
func Print(n *Node) string {
	if n == nil {
		return ""
	}
	children := make([]string, len(n.Children))
	for i, c := range n.Children {
		s := Print(c)
		if c.Precedence() < n.LowestPrecedence(i) {
			s = "(" + s + ")"
		}
		children[i] = s
	}
	return n.Render(children)
}

// Statement renders n as a statement. PlainCode is emitted as is; labels,
// comments and function definitions carry their own punctuation.
func Statement(n *Node) string {
	if n.Kind == PlainCode {
		return n.Text
	}
	return Print(n) + ";"
}

// Program renders statements one per line.
func Program(stmts []*Node) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(Statement(s))
		b.WriteByte('\n')
	}
	return b.String()
}

// Indent prefixes every non-empty line of s with prefix.
func Indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
