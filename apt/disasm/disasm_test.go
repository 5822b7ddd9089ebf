package disasm

import (
	"strings"
	"testing"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

func TestListing(t *testing.T) {
	code := []bytecode.Instruction{
		{Type: bytecode.EA_PushString, Offset: 1, Params: []value.Value{value.String("a")}},
		{Type: bytecode.EA_BranchIfFalse, Offset: 4, Params: []value.Value{value.Integer(1)}},
		{Type: bytecode.Stop, Offset: 9},
		{Type: bytecode.Play, Offset: 10},
	}
	res, err := DisasmActionOpt("frame_1", code, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"; action frame_1",
		`00001  EA_PushString         "a"`,
		"00004  EA_BranchIfFalse      1  ; -> loc_0000A",
		"00009  Stop",
		"loc_0000A:",
		"0000A  Play",
		"",
	}, "\n")
	if res.Value != want {
		t.Errorf("got\n%s\nwant\n%s", res.Value, want)
	}
}

func TestUnknownOpcodeStrict(t *testing.T) {
	code := []bytecode.Instruction{{Type: 0xFF}}
	if _, err := DisasmActionOpt("a", code, apt.DefaultOptions()); err == nil {
		t.Fatal("Strict should error on unknown opcode")
	}
}

func TestUnknownOpcodeBestEffort(t *testing.T) {
	code := []bytecode.Instruction{{Type: 0xFF}}
	res, err := DisasmActionOpt("a", code, apt.Options{Mode: apt.BestEffort})
	if err != nil {
		t.Fatalf("BestEffort should not error: %v", err)
	}
	if !strings.Contains(res.Value, "OP_0xFF") {
		t.Errorf("expected OP_0xFF in output, got: %s", res.Value)
	}
	if len(res.Diags) == 0 {
		t.Error("expected invalid diagnostic")
	}
}

func nested(name string, body ...bytecode.Instruction) bytecode.Instruction {
	ins := bytecode.New(bytecode.DefineFunction, value.String(name), value.Integer(0))
	ins.Body = body
	return ins
}

func TestNestedBodyIndented(t *testing.T) {
	s := &apt.Script{
		Filename: "m.apt",
		Global:   apt.NewGlobalPool([]string{"x"}),
		Actions: []apt.Action{{Name: "init", Code: []bytecode.Instruction{
			nested("f", bytecode.New(bytecode.Stop)),
		}}},
	}
	got := DisasmScript(s)
	for _, want := range []string{"; m.apt\n", `;      0  "x"`, "00000  DefineFunction        \"f\", 0\n", "  00000  Stop\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestInnerFunctionErrorStrict(t *testing.T) {
	code := []bytecode.Instruction{nested("broken", bytecode.Instruction{Type: 0xFF})}
	if _, err := DisasmActionOpt("a", code, apt.DefaultOptions()); err == nil {
		t.Fatal("Strict should propagate error from inner function")
	}
}

func TestBestEffortDiagnosticFunc(t *testing.T) {
	t.Run("named", func(t *testing.T) {
		code := []bytecode.Instruction{nested("broken", bytecode.Instruction{Type: 0xFF})}
		res, err := DisasmActionOpt("a", code, apt.Options{Mode: apt.BestEffort})
		if err != nil {
			t.Fatalf("BestEffort should not error: %v", err)
		}
		if len(res.Diags) != 1 || res.Diags[0].Func != "broken" {
			t.Errorf("expected Func=\"broken\", got: %+v", res.Diags)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		code := []bytecode.Instruction{nested("", bytecode.Instruction{Type: 0xFF})}
		res, err := DisasmActionOpt("a", code, apt.Options{Mode: apt.BestEffort})
		if err != nil {
			t.Fatalf("BestEffort should not error: %v", err)
		}
		if len(res.Diags) != 1 || res.Diags[0].Func != "anon#0" {
			t.Errorf("expected Func=\"anon#0\", got: %+v", res.Diags)
		}
	})
}

func TestMalformedHeader(t *testing.T) {
	code := []bytecode.Instruction{bytecode.New(bytecode.DefineFunction2, value.Integer(1))}
	res, err := DisasmActionOpt("a", code, apt.Options{Mode: apt.BestEffort})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Value, "<malformed>") {
		t.Errorf("expected <malformed> in output, got: %s", res.Value)
	}
}
