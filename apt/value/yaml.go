package value

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TagUndefined marks an undefined scalar in YAML listings.
const TagUndefined = "!undefined"

// UnmarshalYAML decodes a plain YAML scalar. Integers outside the 32-bit
// range become floats.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case TagUndefined:
		*v = Undefined()
	case "!!null":
		*v = Null()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		*v = Boolean(b)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			*v = Float(float64(i))
		} else {
			*v = Integer(int32(i))
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		*v = Float(f)
	case "!!str":
		*v = String(n.Value)
	default:
		return fmt.Errorf("line %d: unsupported value tag %s", n.Line, n.ShortTag())
	}
	return nil
}

// MarshalYAML encodes v as a tagged scalar so that floats with integral
// values and undefined survive a round trip.
func (v Value) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Kind {
	case KindUndefined:
		n.Tag = TagUndefined
	case KindNull:
		n.Tag, n.Value = "!!null", "null"
	case KindBoolean:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.Bool)
	case KindInteger:
		n.Tag, n.Value = "!!int", strconv.FormatInt(int64(v.Int), 10)
	case KindFloat:
		n.Tag = "!!float"
		switch {
		case math.IsNaN(v.Float):
			n.Value = ".nan"
		case math.IsInf(v.Float, 1):
			n.Value = ".inf"
		case math.IsInf(v.Float, -1):
			n.Value = "-.inf"
		default:
			n.Value = strconv.FormatFloat(v.Float, 'g', -1, 64)
		}
	case KindString:
		n.Tag, n.Value = "!!str", v.Str
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.Kind)
	}
	return n, nil
}
