package listing

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

type yamlScript struct {
	Filename string       `yaml:"filename,omitempty"`
	Pool     []string     `yaml:"pool,omitempty"`
	Actions  []yamlAction `yaml:"actions"`
}

type yamlAction struct {
	Name string            `yaml:"name"`
	Code []yamlInstruction `yaml:"code"`
}

type yamlInstruction struct {
	Op     string            `yaml:"op"`
	Offset int               `yaml:"offset,omitempty"`
	Params []value.Value     `yaml:"params,omitempty,flow"`
	Body   []yamlInstruction `yaml:"body,omitempty"`
}

// parseOp accepts a mnemonic or the OP_0xNN form used for unnamed codes.
func parseOp(s string) (bytecode.InstructionType, bool) {
	if t, ok := bytecode.Lookup(s); ok {
		return t, true
	}
	if hex, ok := strings.CutPrefix(s, "OP_0x"); ok {
		n, err := strconv.ParseUint(hex, 16, 8)
		if err == nil {
			return bytecode.InstructionType(n), true
		}
	}
	return 0, false
}

func (d *decoder) fromYAML(in []yamlInstruction) ([]bytecode.Instruction, error) {
	code := make([]bytecode.Instruction, 0, len(in))
	for i, y := range in {
		t, ok := parseOp(y.Op)
		if !ok {
			if err := d.invalid(i, "unknown mnemonic %q", y.Op); err != nil {
				return nil, err
			}
			continue
		}
		ins := bytecode.Instruction{Type: t, Offset: y.Offset, Params: y.Params}
		if len(y.Body) > 0 {
			body, err := d.fromYAML(y.Body)
			if err != nil {
				return nil, err
			}
			ins.Body = body
		}
		code = append(code, ins)
	}
	return code, nil
}

func decodeYAML(data []byte, opt apt.Options) (apt.Result[*apt.Script], error) {
	var ys yamlScript
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ys); err != nil {
		return apt.Result[*apt.Script]{}, fmt.Errorf("yaml listing: %w", err)
	}
	if err := checkPool(len(ys.Pool)); err != nil {
		return apt.Result[*apt.Script]{}, err
	}

	s := &apt.Script{Filename: ys.Filename, Global: apt.NewGlobalPool(ys.Pool)}
	d := &decoder{mode: opt.Mode}
	for _, ya := range ys.Actions {
		d.fn = ya.Name
		code, err := d.fromYAML(ya.Code)
		if err == nil {
			code, err = d.check(code, 0)
		}
		if err != nil {
			return apt.Result[*apt.Script]{Diags: d.diags}, err
		}
		s.Actions = append(s.Actions, apt.Action{Name: ya.Name, Code: code})
	}
	return apt.Result[*apt.Script]{Value: s, Diags: d.diags}, nil
}

func toYAML(code []bytecode.Instruction) []yamlInstruction {
	out := make([]yamlInstruction, len(code))
	for i, ins := range code {
		out[i] = yamlInstruction{
			Op:     ins.Type.String(),
			Offset: ins.Offset,
			Params: ins.Params,
			Body:   toYAML(ins.Body),
		}
	}
	return out
}

// EncodeYAML writes s as a YAML listing.
func EncodeYAML(s *apt.Script) ([]byte, error) {
	ys := yamlScript{Filename: s.Filename, Pool: s.Global.Entries()}
	for _, a := range s.Actions {
		ys.Actions = append(ys.Actions, yamlAction{Name: a.Name, Code: toYAML(a.Code)})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ys); err != nil {
		return nil, fmt.Errorf("yaml listing: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
