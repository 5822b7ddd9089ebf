// Package listing reads and writes instruction listings: the decoded form
// of an APT movie (global constant pool plus action blocks) as YAML text or
// as a compact CBOR container.
package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// Format selects a listing encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatCBOR
)

// FormatFor picks the format from a file extension: .aptc is CBOR, anything
// else YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".aptc") {
		return FormatCBOR
	}
	return FormatYAML
}

// decoder accumulates diagnostics while converting a disk listing.
// In BestEffort mode invalid entries are dropped and recorded; in Strict
// mode the first one is an error.
type decoder struct {
	mode  apt.Mode
	diags []apt.Diagnostic
	fn    string
}

func (d *decoder) invalid(index int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if d.mode == apt.Strict {
		return fmt.Errorf("%s: entry %d: %s", d.fn, index, msg)
	}
	d.diags = append(d.diags, apt.Diagnostic{Index: index, Kind: apt.DiagInvalid, Msg: msg, Func: d.fn})
	return nil
}

// check validates decoded instructions: known opcodes and bounded nesting.
// It returns the instructions that survive.
func (d *decoder) check(code []bytecode.Instruction, depth int) ([]bytecode.Instruction, error) {
	out := code[:0]
	for i, ins := range code {
		if !ins.Type.Info().Known() {
			if err := d.invalid(i, "unknown opcode %s", ins.Type); err != nil {
				return nil, err
			}
			continue
		}
		if len(ins.Body) > 0 {
			if depth >= apt.MaxDecodeDepth {
				if err := d.invalid(i, "function nesting exceeds %d", apt.MaxDecodeDepth); err != nil {
					return nil, err
				}
				ins.Body = nil
			} else {
				body, err := d.check(ins.Body, depth+1)
				if err != nil {
					return nil, err
				}
				ins.Body = body
			}
		}
		out = append(out, ins)
	}
	return out, nil
}

func checkPool(n int) error {
	if n > apt.MaxGlobalPool {
		return fmt.Errorf("global pool has %d entries, limit %d", n, apt.MaxGlobalPool)
	}
	return nil
}

// DecodeOpt parses a listing in the given format.
func DecodeOpt(data []byte, format Format, opt apt.Options) (apt.Result[*apt.Script], error) {
	if format == FormatCBOR {
		return decodeCBOR(data, opt)
	}
	return decodeYAML(data, opt)
}

// DecodeFileOpt reads a listing file, picking the format from its extension.
func DecodeFileOpt(path string, opt apt.Options) (apt.Result[*apt.Script], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apt.Result[*apt.Script]{}, err
	}
	res, err := DecodeOpt(data, FormatFor(path), opt)
	if err == nil && res.Value.Filename == "" {
		res.Value.Filename = filepath.Base(path)
	}
	return res, err
}

// DecodeFile reads a listing file in Strict mode.
func DecodeFile(path string) (*apt.Script, error) {
	res, err := DecodeFileOpt(path, apt.DefaultOptions())
	return res.Value, err
}

// Encode writes s in the given format.
func Encode(s *apt.Script, format Format) ([]byte, error) {
	if format == FormatCBOR {
		return EncodeCBOR(s, "")
	}
	return EncodeYAML(s)
}
