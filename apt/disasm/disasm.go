// Package disasm renders instruction listings as text, one instruction per
// line, with branch labels and nested function bodies indented.
package disasm

import (
	"fmt"
	"strings"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

const indentUnit = "  "

type printer struct {
	b     strings.Builder
	mode  apt.Mode
	diags []apt.Diagnostic
	anon  int
}

func (p *printer) invalid(fn string, index int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.mode == apt.Strict {
		return fmt.Errorf("%s: instruction %d: %s", fn, index, msg)
	}
	p.diags = append(p.diags, apt.Diagnostic{Index: index, Kind: apt.DiagInvalid, Msg: msg, Func: fn})
	return nil
}

func formatParams(ins bytecode.Instruction) string {
	parts := make([]string, len(ins.Params))
	for i, v := range ins.Params {
		parts[i] = v.Source()
	}
	return strings.Join(parts, ", ")
}

// code writes one instruction sequence. Offsets are printed when the
// listing carries them, indices otherwise.
func (p *printer) code(fn string, code []bytecode.Instruction, indent string, depth int) error {
	offsets := false
	for _, ins := range code {
		if ins.Offset != 0 {
			offsets = true
			break
		}
	}
	var labels map[int]struct{}
	if offsets {
		labels = bytecode.CollectLabels(code)
	}

	for i, ins := range code {
		pos := i
		if offsets {
			pos = ins.Offset
			if _, ok := labels[pos]; ok {
				fmt.Fprintf(&p.b, "%s%s:\n", indent, bytecode.Label(pos))
			}
		}
		name := ins.Type.String()
		if !ins.Type.Info().Known() {
			if err := p.invalid(fn, i, "unknown opcode %s", name); err != nil {
				return err
			}
		}
		line := fmt.Sprintf("%s%05X  %-22s%s", indent, pos, name, formatParams(ins))
		if offsets {
			if tgt, ok := bytecode.BranchTarget(ins, bytecode.BranchSize); ok {
				line += "  ; -> " + bytecode.Label(tgt)
			}
		}
		p.b.WriteString(strings.TrimRight(line, " "))
		p.b.WriteByte('\n')

		switch ins.Type {
		case bytecode.DefineFunction, bytecode.DefineFunction2:
			h, ok := bytecode.DecodeFunctionHeader(ins)
			if !ok {
				if err := p.invalid(fn, i, "malformed function header"); err != nil {
					return err
				}
				fmt.Fprintf(&p.b, "%s%s<malformed>\n", indent, indentUnit)
				continue
			}
			inner := h.Name
			if inner == "" {
				inner = fmt.Sprintf("anon#%d", p.anon)
				p.anon++
			}
			if depth >= apt.MaxDecodeDepth {
				if err := p.invalid(inner, i, "function nesting exceeds %d", apt.MaxDecodeDepth); err != nil {
					return err
				}
				continue
			}
			if err := p.code(inner, ins.Body, indent+indentUnit, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// DisasmActionOpt disassembles one action block.
func DisasmActionOpt(name string, code []bytecode.Instruction, opt apt.Options) (apt.Result[string], error) {
	p := &printer{mode: opt.Mode}
	fmt.Fprintf(&p.b, "; action %s\n", name)
	if err := p.code(name, code, "", 0); err != nil {
		return apt.Result[string]{Diags: p.diags}, err
	}
	return apt.Result[string]{Value: p.b.String(), Diags: p.diags}, nil
}

// DisasmScriptOpt disassembles every action of s, preceded by the global
// constant pool.
func DisasmScriptOpt(s *apt.Script, opt apt.Options) (apt.Result[string], error) {
	p := &printer{mode: opt.Mode}
	if s.Filename != "" {
		fmt.Fprintf(&p.b, "; %s\n", s.Filename)
	}
	if n := s.Global.Len(); n > 0 {
		fmt.Fprintf(&p.b, "; global pool (%d)\n", n)
		for i, e := range s.Global.Entries() {
			fmt.Fprintf(&p.b, ";   %4d  %q\n", i, e)
		}
	}
	for _, a := range s.Actions {
		p.b.WriteByte('\n')
		fmt.Fprintf(&p.b, "; action %s\n", a.Name)
		if err := p.code(a.Name, a.Code, "", 0); err != nil {
			return apt.Result[string]{Diags: p.diags}, err
		}
	}
	return apt.Result[string]{Value: p.b.String(), Diags: p.diags}, nil
}

// DisasmScript disassembles s in BestEffort mode.
func DisasmScript(s *apt.Script) string {
	res, _ := DisasmScriptOpt(s, apt.Options{Mode: apt.BestEffort})
	return res.Value
}
