package tracediff

import "strings"

// Transform is a pure tree-to-tree pre-processing stage. Transforms compose
// explicitly in front of the comparator; none are applied implicitly.
type Transform func(Value) Value

// callFrameFields is the canonical field set of a call frame, in output
// order. "calls" is last and is the only recursive field.
var callFrameFields = []string{
	"from", "to", "type", "input", "output", "error", "revertReason",
	"gas", "gasUsed", "value", "calls",
}

// NormalizeCallFrame projects a call-frame mapping onto the canonical field
// subset, dropping null fields, extra fields, and empty call lists, and
// recursively normalizing nested calls. Non-mapping values pass through
// unchanged. Different clients emit null placeholders, internal-only fields,
// or empty collections; normalization removes that representational noise so
// "absent" and "explicitly empty" compare as equivalent.
//
// Idempotent: normalizing a normalized frame is a no-op.
func NormalizeCallFrame(v Value) Value {
	if v.Kind() != KindMapping {
		return v
	}

	entries := make(map[string]Value, len(callFrameFields))
	for _, field := range callFrameFields {
		fv, ok := v.Get(field)
		if !ok || fv.IsNull() {
			continue
		}
		if field == "calls" {
			if fv.Kind() != KindSequence || fv.Len() == 0 {
				continue
			}
			calls := make([]Value, fv.Len())
			for i, call := range fv.Elements() {
				calls[i] = NormalizeCallFrame(call)
			}
			entries["calls"] = Sequence(calls...)
			continue
		}
		entries[field] = fv
	}
	return Mapping(entries)
}

// NormalizeHex recursively rewrites 0x-prefixed hex strings to a canonical
// form with redundant leading zeros stripped: "0x0052" becomes "0x52" and
// "0x00" becomes "0x0". All other values are left untouched.
//
// This pass can mask genuine value differences, so it is never applied
// automatically; compose it deliberately via [WithTransforms].
func NormalizeHex(v Value) Value {
	switch v.Kind() {
	case KindString:
		return Str(normalizeHexString(v.Text()))
	case KindSequence:
		items := make([]Value, v.Len())
		for i, e := range v.Elements() {
			items[i] = NormalizeHex(e)
		}
		return Sequence(items...)
	case KindMapping:
		entries := make(map[string]Value, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			entries[k] = NormalizeHex(child)
		}
		return Mapping(entries)
	default:
		return v
	}
}

func normalizeHexString(s string) string {
	if !hexLiteral(s) {
		return s
	}
	stripped := strings.TrimLeft(s[2:], "0")
	if stripped == "" {
		stripped = "0"
	}
	return "0x" + stripped
}
