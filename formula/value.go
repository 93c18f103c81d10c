package formula

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Kind is the runtime type of a Value.
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "str"
	case KindBool:
		return "bool"
	}
	return "NoneType"
}

// Value is a variable binding or an intermediate result. Numbers are
// always decimals; the zero Value is None.
type Value struct {
	kind Kind
	num  decimal.Decimal
	str  string
	b    bool
}

func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }
func Int(i int64) Value              { return Number(decimal.NewFromInt(i)) }
func String(s string) Value          { return Value{kind: KindString, str: s} }
func Bool(b bool) Value              { return Value{kind: KindBool, b: b} }

// Float converts through the shortest decimal representation of f, so
// Float(0.1) is exactly 0.1.
func Float(f float64) Value { return Number(decimal.NewFromFloat(f)) }

// ValueOf converts a host value (as produced by YAML or JSON decoding into
// interface{}) into a Value.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return v, nil
	case decimal.Decimal:
		return Number(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float32:
		return Number(decimal.NewFromFloat32(v)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("variable value must be finite")
		}
		return Float(v), nil
	case json.Number:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", v)
		}
		return Number(d), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	}
	return Value{}, fmt.Errorf("unsupported variable type %T", x)
}

func (v Value) Kind() Kind { return v.kind }

// Decimal returns the numeric value; booleans count as 0 and 1.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	}
	return decimal.Zero, false
}

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

func (v Value) truthy() bool {
	switch v.kind {
	case KindNumber:
		return !v.num.IsZero()
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return "None"
}

// Equal reports whether two values are equal under formula semantics.
func (v Value) Equal(o Value) bool {
	a, aok := v.Decimal()
	b, bok := o.Decimal()
	switch {
	case aok && bok:
		return a.Equal(b)
	case v.kind != o.kind:
		return false
	case v.kind == KindString:
		return v.str == o.str
	}
	return v.kind == KindNone
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON reads numbers from their literal text so no binary
// floating point is involved.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return fmt.Errorf("empty variable value")
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Bool(data[0] == 't')
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid variable value %s", data)
		}
		*v = Number(d)
	}
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindNumber:
		tag := "!!float"
		if v.num.IsInteger() {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.num.String()}, nil
	case KindString:
		return v.str, nil
	case KindBool:
		return v.b, nil
	}
	return nil, nil
}

func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: variable value must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			*v = Number(d)
			return nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("line %d: variable value must be finite", n.Line)
		}
		*v = Float(f)
	default:
		*v = String(n.Value)
	}
	return nil
}

// Vars binds variable names to values for one evaluation.
type Vars map[string]Value

// Merge returns a new binding where later layers override earlier ones.
func Merge(layers ...Vars) Vars {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	out := make(Vars, n)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
