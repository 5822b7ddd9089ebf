// Package value models the literal values that appear in instruction
// parameters and constant pools.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindInteger
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable decompile-time literal. Only the field selected by
// Kind is meaningful.
type Value struct {
	Kind  Kind    `cbor:"1,keyasint"`
	Bool  bool    `cbor:"2,keyasint,omitempty"`
	Int   int32   `cbor:"3,keyasint,omitempty"`
	Float float64 `cbor:"4,keyasint"`
	Str   string  `cbor:"5,keyasint,omitempty"`
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{Kind: KindUndefined} }

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Integer returns a 32-bit integer value.
func Integer(i int32) Value { return Value{Kind: KindInteger, Int: i} }

// Float returns a float value. See Number for the normalizing form.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// NaN returns a Float holding NaN.
func NaN() Value { return Float(math.NaN()) }

// IsNumber reports whether v is an Integer or a Float.
func (v Value) IsNumber() bool { return v.Kind == KindInteger || v.Kind == KindFloat }

func (v Value) IsString() bool { return v.Kind == KindString }
func (v Value) IsNull() bool { return v.Kind == KindNull }
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }

// IsNaN reports whether v is a Float holding NaN.
func (v Value) IsNaN() bool {
	return v.Kind == KindFloat && math.IsNaN(v.Float)
}

// Number returns f as an Integer when it is integral and fits in 32 bits,
// otherwise as a Float. -0 stays a Float.
func Number(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 && !(f == 0 && math.Signbit(f)) {
		return Integer(int32(f))
	}
	return Float(f)
}

// ToFloat converts to a number following ECMAScript ToNumber.
func (v Value) ToFloat() float64 {
	switch v.Kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case KindInteger:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindString:
		return parseNumber(v.Str)
	default:
		return math.NaN()
	}
}

// ToInteger converts to a 32-bit integer, wrapping out-of-range values.
// NaN and infinities convert to 0.
func (v Value) ToInteger() int32 {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindBoolean:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return wrap32(v.ToFloat())
	}
}

func wrap32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	m := math.Mod(f, 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int32(uint32(m))
}

// ToBoolean converts following ECMAScript truthiness.
func (v Value) ToBoolean() bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.Bool
	case KindInteger:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case KindString:
		return v.Str != ""
	default:
		return false
	}
}

// ToString converts following ECMAScript ToString.
func (v Value) ToString() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInteger:
		return strconv.FormatInt(int64(v.Int), 10)
	case KindFloat:
		return formatNumber(v.Float)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Source renders v as a source-code literal.
func (v Value) Source() string {
	if v.Kind == KindString {
		return Quote(v.Str)
	}
	return v.ToString()
}

// String implements fmt.Stringer with the source form.
func (v Value) String() string {
	return v.Source()
}

// Equal reports whether two values have the same kind and payload.
// NaN equals NaN so that folded results compare predictably.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBoolean:
		return v.Bool == o.Bool
	case KindInteger:
		return v.Int == o.Int
	case KindFloat:
		if math.IsNaN(v.Float) {
			return math.IsNaN(o.Float)
		}
		return v.Float == o.Float
	case KindString:
		return v.Str == o.Str
	default:
		return true
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		return cleanExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cleanExponent turns Go's "1e-07" into "1e-7".
func cleanExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+2 > len(s) {
		return s
	}
	sign := s[i+1]
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+1] + string(sign) + exp
}

func parseNumber(s string) float64 {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0
	}
	if len(str) > 2 && (strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X")) {
		if i, err := strconv.ParseUint(str[2:], 16, 64); err == nil {
			return float64(i)
		}
		return math.NaN()
	}
	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// ParseFloat also accepts "inf" and "nan" spellings that ECMAScript rejects.
	lower := strings.ToLower(strings.TrimLeft(str, "+-"))
	if strings.HasPrefix(lower, "inf") || strings.HasPrefix(lower, "nan") {
		return math.NaN()
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return f
	}
	return math.NaN()
}

// Quote renders s as a double-quoted ECMAScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				b.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
