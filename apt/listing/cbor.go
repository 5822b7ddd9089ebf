package listing

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// DefaultEncoding is the code page of pool strings in binary listings.
const DefaultEncoding = "windows-1252"

// Pool strings in a binary listing are raw 8-bit bytes in the code page
// named by the container; "utf-8" stores them unchanged.
var codePages = map[string]*charmap.Charmap{
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"macintosh":    charmap.Macintosh,
}

type cborScript struct {
	Filename string       `cbor:"1,keyasint,omitempty"`
	Encoding string       `cbor:"2,keyasint,omitempty"`
	Pool     [][]byte     `cbor:"3,keyasint,omitempty"`
	Actions  []cborAction `cbor:"4,keyasint"`
}

type cborAction struct {
	Name string                 `cbor:"1,keyasint"`
	Code []bytecode.Instruction `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{
		MaxNestedLevels:  4 * apt.MaxDecodeDepth,
		MaxArrayElements: apt.MaxGlobalPool,
		MaxMapPairs:      1 << 16,
	}).DecMode(); err != nil {
		panic(err)
	}
}

func decodePool(encoding string, raw [][]byte) ([]string, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	out := make([]string, len(raw))
	if encoding == "utf-8" {
		for i, b := range raw {
			out[i] = string(b)
		}
		return out, nil
	}
	cm, ok := codePages[encoding]
	if !ok {
		return nil, fmt.Errorf("unknown pool encoding %q", encoding)
	}
	dec := cm.NewDecoder()
	for i, b := range raw {
		s, err := dec.Bytes(b)
		if err != nil {
			return nil, fmt.Errorf("pool entry %d: %w", i, err)
		}
		out[i] = string(s)
	}
	return out, nil
}

func encodePool(encoding string, entries []string) ([][]byte, error) {
	out := make([][]byte, len(entries))
	if encoding == "utf-8" {
		for i, s := range entries {
			out[i] = []byte(s)
		}
		return out, nil
	}
	cm, ok := codePages[encoding]
	if !ok {
		return nil, fmt.Errorf("unknown pool encoding %q", encoding)
	}
	enc := cm.NewEncoder()
	for i, s := range entries {
		b, err := enc.Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("pool entry %d not representable in %s: %w", i, encoding, err)
		}
		out[i] = b
	}
	return out, nil
}

func decodeCBOR(data []byte, opt apt.Options) (apt.Result[*apt.Script], error) {
	var cs cborScript
	if err := decMode.Unmarshal(data, &cs); err != nil {
		return apt.Result[*apt.Script]{}, fmt.Errorf("cbor listing: %w", err)
	}
	if err := checkPool(len(cs.Pool)); err != nil {
		return apt.Result[*apt.Script]{}, err
	}
	pool, err := decodePool(cs.Encoding, cs.Pool)
	if err != nil {
		return apt.Result[*apt.Script]{}, err
	}

	s := &apt.Script{Filename: cs.Filename, Global: apt.NewGlobalPool(pool)}
	d := &decoder{mode: opt.Mode}
	for _, ca := range cs.Actions {
		d.fn = ca.Name
		code, err := d.check(ca.Code, 0)
		if err != nil {
			return apt.Result[*apt.Script]{Diags: d.diags}, err
		}
		s.Actions = append(s.Actions, apt.Action{Name: ca.Name, Code: code})
	}
	return apt.Result[*apt.Script]{Value: s, Diags: d.diags}, nil
}

// EncodeCBOR writes s as a canonical CBOR listing with pool strings in the
// given code page ("" uses DefaultEncoding).
func EncodeCBOR(s *apt.Script, encoding string) ([]byte, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	pool, err := encodePool(encoding, s.Global.Entries())
	if err != nil {
		return nil, err
	}
	cs := cborScript{Filename: s.Filename, Encoding: encoding, Pool: pool}
	for _, a := range s.Actions {
		cs.Actions = append(cs.Actions, cborAction{Name: a.Name, Code: a.Code})
	}
	return encMode.Marshal(cs)
}
