package tracediff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the category of a Value. The set is closed: every value in
// a trace tree is exactly one of these six, and the comparator switches
// exhaustively over them.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the lowercase name of the kind ("null", "bool", ...).
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an immutable JSON-like tree value: null, bool, number, string,
// sequence, or mapping. The zero Value is null. Numbers carry their original
// textual form so that values survive round-trips without floating-point
// artifacts.
//
// Values are never mutated after construction; all transforms build new trees.
type Value struct {
	kind Kind
	b    bool
	num  string // numeric literal text, e.g. "5", "21000", "1.5"
	str  string
	seq  []Value
	keys []string // mapping keys, sorted
	m    map[string]Value
}

// Null returns the null Value. Equivalent to the zero Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value from its literal text. The text is stored
// verbatim; it is not validated beyond being non-empty.
func Number(text string) Value { return Value{kind: KindNumber, num: text} }

// Int returns a numeric Value for an integer.
func Int(i int64) Value { return Number(strconv.FormatInt(i, 10)) }

// Float returns a numeric Value for a float, rendered with the shortest
// representation that round-trips.
func Float(f float64) Value {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Str returns a string Value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Sequence returns a sequence Value holding the given elements in order.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Mapping returns a mapping Value over the given entries. Key order in the
// input map is irrelevant; iteration via Keys is always sorted.
func Mapping(entries map[string]Value) Value {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: KindMapping, keys: keys, m: m}
}

// Kind returns the value's category.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. Valid only for KindBool.
func (v Value) AsBool() bool { return v.b }

// Text returns the scalar text of a number or string value. For other kinds
// it returns the empty string. This is the representation used by
// category-lenient comparison, where the number 5 and the string "5" are
// considered equal.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	}
	return ""
}

// Float64 parses a numeric value as float64. Returns false for non-numbers
// and unparseable literals.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Len returns the element count of a sequence or the entry count of a
// mapping, and 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.keys)
	}
	return 0
}

// Index returns the i-th element of a sequence. Valid only for KindSequence
// with i in range.
func (v Value) Index(i int) Value { return v.seq[i] }

// Elements returns the sequence's elements. The returned slice must not be
// modified.
func (v Value) Elements() []Value { return v.seq }

// Keys returns the mapping's keys in sorted order. The returned slice must
// not be modified.
func (v Value) Keys() []string { return v.keys }

// Get returns the value under key and whether it is present. Valid for any
// kind; non-mappings report absence.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	val, ok := v.m[key]
	return val, ok
}

// FromGo converts a decoded JSON value (nil, bool, float64, json.Number,
// string, []any, map[string]any) into a Value. Unrecognized Go types are
// treated as opaque string scalars so conversion is total.
func FromGo(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		return Number(x.String())
	case float64:
		return Float(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case string:
		return Str(x)
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = FromGo(e)
		}
		return Sequence(items...)
	case map[string]any:
		entries := make(map[string]Value, len(x))
		for k, e := range x {
			entries[k] = FromGo(e)
		}
		return Mapping(entries)
	case Value:
		return x
	default:
		return Str(fmt.Sprint(x))
	}
}

// ToGo converts a Value back into plain Go values: nil, bool, int64/float64,
// string, []any, map[string]any. Integral numbers become int64; others
// float64. Used for JSON-agnostic interop such as transform scripts.
func (v Value) ToGo() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if i, err := strconv.ParseInt(v.num, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.num, 64); err == nil {
			return f
		}
		return v.num
	case KindString:
		return v.str
	case KindSequence:
		items := make([]any, len(v.seq))
		for i, e := range v.seq {
			items[i] = e.ToGo()
		}
		return items
	case KindMapping:
		m := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			m[k] = v.m[k].ToGo()
		}
		return m
	}
	return nil
}

// Decode reads one JSON value from r. Numbers are decoded as json.Number so
// their literal text is preserved.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("tracediff: decode value: %w", err)
	}
	return FromGo(raw), nil
}

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// MarshalJSON renders the value as JSON. Mapping keys are emitted in sorted
// order, so output is deterministic.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		// Emit the literal if it is valid JSON; otherwise quote it.
		if json.Valid([]byte(v.num)) {
			buf.WriteString(v.num)
		} else {
			b, _ := json.Marshal(v.num)
			buf.Write(b)
		}
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.m[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes JSON into the Value, preserving numeric literals.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders the value as compact JSON, for debugging and reports.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return string(b)
}

// Pretty renders the value as indented JSON. Scalars render as their plain
// text without quoting, matching how reports display leaf values.
func (v Value) Pretty() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return string(b)
	}
	return out.String()
}

// Equal reports deep structural equality between two values. Numbers compare
// by literal text first, then numerically, so "5" and "5.0" are equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return numberEqual(v, other)
	case KindString:
		return v.str == other.str
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for _, k := range v.keys {
			ov, ok := other.m[k]
			if !ok || !v.m[k].Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func numberEqual(a, b Value) bool {
	if a.num == b.num {
		return true
	}
	af, aok := a.Float64()
	bf, bok := b.Float64()
	return aok && bok && af == bf
}

// hexLiteral reports whether s looks like a 0x-prefixed hex quantity.
func hexLiteral(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) > 2
}
