package decompile

import (
	"fmt"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/ast"
	"github.com/zboralski/apt-dumper/apt/value"
)

// BuildConstants resolves the parameters of a ConstantPool instruction into
// literal nodes. Integer parameters index the file-wide global pool; string
// parameters are inline constants.
func BuildConstants(params []value.Value, global *apt.GlobalPool) ([]*ast.Node, error) {
	nodes := make([]*ast.Node, 0, len(params))
	for i, p := range params {
		switch p.Kind {
		case value.KindInteger:
			s, err := global.Lookup(int(p.Int))
			if err != nil {
				return nil, fmt.Errorf("constant %d: %w", i, err)
			}
			nodes = append(nodes, ast.Lit(value.String(s)))
		case value.KindString:
			nodes = append(nodes, ast.Lit(p))
		default:
			return nil, fmt.Errorf("constant %d: unexpected %s parameter", i, p.Kind)
		}
	}
	return nodes, nil
}
