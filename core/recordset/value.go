package recordset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single scalar cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func NullValue() Value           { return Value{} }
func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind             { return v.kind }
func (v Value) IsNull() bool           { return v.kind == KindNull }
func (v Value) Int() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// IsBlank reports whether the value is null or a string made only of whitespace.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.s) == ""
	default:
		return false
	}
}

// String renders the value as plain text. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return fmt.Sprintf("%.15g", v.f)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// FromAny converts a driver value into a Value.
// Integers and floats keep their numeric kind, everything else is stringified.
func FromAny(val any) Value {
	if val == nil {
		return NullValue()
	}

	switch v := val.(type) {
	case Value:
		return v
	case int:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case uint8:
		return IntValue(int64(v))
	case uint16:
		return IntValue(int64(v))
	case uint32:
		return IntValue(int64(v))
	case uint:
		return IntValue(int64(v))
	case uint64:
		return IntValue(int64(v))
	case float32:
		return FloatValue(float64(v))
	case float64:
		return FloatValue(v)
	case string:
		return StringValue(v)
	case []byte:
		return StringValue(string(v))
	case bool:
		return StringValue(strconv.FormatBool(v))
	case time.Time:
		return StringValue(v.Format("2006-01-02 15:04:05"))
	case fmt.Stringer:
		return StringValue(v.String())
	default:
		return StringValue(fmt.Sprintf("%v", v))
	}
}
