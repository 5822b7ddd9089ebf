package listing

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
	"github.com/zboralski/apt-dumper/apt/value"
)

const sample = `
filename: menu.apt
pool: [play, "Café"]
actions:
  - name: frame_1
    code:
      - op: ConstantPool
        params: [0, 1]
      - op: PushData
        params: [1, 1]
      - op: Trace
      - op: DefineFunction
        params: ["f", 0]
        body:
          - op: Stop
`

func TestDecodeYAML(t *testing.T) {
	res, err := DecodeOpt([]byte(sample), FormatYAML, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	s := res.Value
	if s.Filename != "menu.apt" || s.Global.Len() != 2 {
		t.Fatalf("script = %+v", s)
	}
	if len(s.Actions) != 1 || len(s.Actions[0].Code) != 4 {
		t.Fatalf("actions = %+v", s.Actions)
	}
	code := s.Actions[0].Code
	if code[1].Type != bytecode.PushData || !code[1].Params[1].Equal(value.Integer(1)) {
		t.Errorf("PushData = %+v", code[1])
	}
	if len(code[3].Body) != 1 || code[3].Body[0].Type != bytecode.Stop {
		t.Errorf("function body = %+v", code[3].Body)
	}
}

func TestUnknownMnemonic(t *testing.T) {
	src := `
actions:
  - name: a
    code:
      - op: Play
      - op: Dance
      - op: OP_0xFE
`
	if _, err := DecodeOpt([]byte(src), FormatYAML, apt.DefaultOptions()); err == nil {
		t.Fatal("Strict should reject an unknown mnemonic")
	}
	res, err := DecodeOpt([]byte(src), FormatYAML, apt.Options{Mode: apt.BestEffort})
	if err != nil {
		t.Fatalf("BestEffort should not error: %v", err)
	}
	if got := len(res.Value.Actions[0].Code); got != 1 {
		t.Errorf("kept %d instructions, want 1", got)
	}
	if len(res.Diags) != 2 || res.Diags[0].Kind != apt.DiagInvalid || res.Diags[0].Func != "a" {
		t.Errorf("diagnostics = %+v", res.Diags)
	}
}

func TestUnknownField(t *testing.T) {
	src := "actions: []\ncolour: red\n"
	if _, err := DecodeOpt([]byte(src), FormatYAML, apt.Options{Mode: apt.BestEffort}); err == nil {
		t.Fatal("unknown top-level field should be rejected")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	res, err := DecodeOpt([]byte(sample), FormatYAML, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	out, err := EncodeYAML(res.Value)
	if err != nil {
		t.Fatal(err)
	}
	again, err := DecodeOpt(out, FormatYAML, apt.DefaultOptions())
	if err != nil {
		t.Fatalf("re-decode: %v\n%s", err, out)
	}
	if !sameScript(res.Value, again.Value) {
		t.Errorf("round trip changed the script:\n%s", out)
	}
}

func TestCBORRoundTrip(t *testing.T) {
	res, err := DecodeOpt([]byte(sample), FormatYAML, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeCBOR(res.Value, "")
	if err != nil {
		t.Fatal(err)
	}
	again, err := DecodeOpt(data, FormatCBOR, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !sameScript(res.Value, again.Value) {
		t.Error("CBOR round trip changed the script")
	}
	if got, _ := again.Value.Global.Lookup(1); got != "Café" {
		t.Errorf("pool entry = %q", got)
	}
}

func TestCBORNegativeZero(t *testing.T) {
	s := &apt.Script{
		Global: apt.NewGlobalPool(nil),
		Actions: []apt.Action{{Name: "frame_1", Code: []bytecode.Instruction{
			bytecode.New(bytecode.EA_PushFloat, value.Float(math.Copysign(0, -1))),
		}}},
	}
	data, err := EncodeCBOR(s, "")
	if err != nil {
		t.Fatal(err)
	}
	again, err := DecodeOpt(data, FormatCBOR, apt.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	p := again.Value.Actions[0].Code[0].Params[0]
	if p.Kind != value.KindFloat || p.Float != 0 || !math.Signbit(p.Float) {
		t.Errorf("param = %+v, want -0", p)
	}
}

func TestCBORCodePage(t *testing.T) {
	s := &apt.Script{Global: apt.NewGlobalPool([]string{"é"})}
	data, err := EncodeCBOR(s, "iso-8859-1")
	if err != nil {
		t.Fatal(err)
	}
	var cs cborScript
	if err := decMode.Unmarshal(data, &cs); err != nil {
		t.Fatal(err)
	}
	if len(cs.Pool) != 1 || len(cs.Pool[0]) != 1 || cs.Pool[0][0] != 0xE9 {
		t.Errorf("encoded pool = %x", cs.Pool)
	}
	if _, err := EncodeCBOR(&apt.Script{Global: apt.NewGlobalPool([]string{"→"})}, "iso-8859-1"); err == nil {
		t.Error("unrepresentable pool string should fail")
	}
	if _, err := EncodeCBOR(s, "ebcdic"); err == nil {
		t.Error("unknown encoding should fail")
	}
}

func TestCBORUnknownOpcode(t *testing.T) {
	s := &apt.Script{Actions: []apt.Action{{Name: "a", Code: []bytecode.Instruction{
		{Type: bytecode.Play},
		{Type: 0xFE},
	}}}}
	data, err := EncodeCBOR(s, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeOpt(data, FormatCBOR, apt.DefaultOptions()); err == nil {
		t.Error("Strict should reject unknown opcodes")
	}
	res, err := DecodeOpt(data, FormatCBOR, apt.Options{Mode: apt.BestEffort})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Value.Actions[0].Code) != 1 || len(res.Diags) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestDecodeFileNamesScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.yaml")
	if err := os.WriteFile(path, []byte("actions: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Filename != "intro.yaml" {
		t.Errorf("filename = %q", s.Filename)
	}
	if FormatFor("x.APTC") != FormatCBOR || FormatFor("x.yml") != FormatYAML {
		t.Error("FormatFor picked the wrong format")
	}
}

func sameScript(a, b *apt.Script) bool {
	if a.Filename != b.Filename || strings.Join(a.Global.Entries(), "\x00") != strings.Join(b.Global.Entries(), "\x00") {
		return false
	}
	if len(a.Actions) != len(b.Actions) {
		return false
	}
	for i := range a.Actions {
		if a.Actions[i].Name != b.Actions[i].Name || !sameCode(a.Actions[i].Code, b.Actions[i].Code) {
			return false
		}
	}
	return true
}

func sameCode(a, b []bytecode.Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Offset != b[i].Offset || len(a[i].Params) != len(b[i].Params) {
			return false
		}
		for j := range a[i].Params {
			if !a[i].Params[j].Equal(b[i].Params[j]) {
				return false
			}
		}
		if !sameCode(a[i].Body, b[i].Body) {
			return false
		}
	}
	return true
}
