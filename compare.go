package tracediff

import "fmt"

// DiffKind classifies a single divergence between two trees.
type DiffKind string

const (
	MissingInLeft  DiffKind = "missing_in_left"
	MissingInRight DiffKind = "missing_in_right"
	ValueMismatch  DiffKind = "value_mismatch"
	TypeMismatch   DiffKind = "type_mismatch"
)

// diffKindOrder fixes the display order of kind groups in reports.
var diffKindOrder = []DiffKind{MissingInLeft, MissingInRight, ValueMismatch, TypeMismatch}

// Diff records one divergence point found during a comparison walk. A null
// Left or Right marks absence on that side. Diffs are never mutated after
// creation.
type Diff struct {
	Path  string   `json:"path"`
	Kind  DiffKind `json:"kind"`
	Left  Value    `json:"left"`
	Right Value    `json:"right"`
}

// String renders the diff as a single report line.
func (d Diff) String() string {
	switch d.Kind {
	case MissingInLeft:
		return fmt.Sprintf("%s: missing in left (right has: %s)", d.Path, d.Right)
	case MissingInRight:
		return fmt.Sprintf("%s: missing in right (left has: %s)", d.Path, d.Left)
	case TypeMismatch:
		return fmt.Sprintf("%s: type mismatch - left: %s vs right: %s",
			d.Path, d.Left.Kind(), d.Right.Kind())
	default:
		return fmt.Sprintf("%s: left=%s vs right=%s", d.Path, d.Left, d.Right)
	}
}

// Result is the outcome of one comparison: the ordered differences found
// during the walk plus the two trees as they were compared (after any
// normalization and transforms). Constructed once and immutable thereafter.
type Result struct {
	IsMatch bool   `json:"is_match"`
	Diffs   []Diff `json:"diffs"`
	Left    Value  `json:"left"`
	Right   Value  `json:"right"`
}

type compareConfig struct {
	normalize  bool
	transforms []Transform
}

// CompareOption configures a comparison.
type CompareOption func(*compareConfig)

// WithNormalize controls call-frame normalization before comparison.
// Enabled by default.
func WithNormalize(enabled bool) CompareOption {
	return func(c *compareConfig) { c.normalize = enabled }
}

// WithTransforms appends tree transforms applied to both sides after
// normalization and before the walk. Use this to opt in to passes such as
// [NormalizeHex] that are deliberately not applied automatically.
func WithTransforms(transforms ...Transform) CompareOption {
	return func(c *compareConfig) { c.transforms = append(c.transforms, transforms...) }
}

// Compare runs the full pipeline over two trace trees: optional call-frame
// normalization, any configured transforms, then the recursive walk starting
// at path "root". It is pure, synchronous, and total over well-formed trees;
// identical inputs always yield an identical ordered difference list.
func Compare(left, right Value, opts ...CompareOption) Result {
	cfg := compareConfig{normalize: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.normalize {
		left = NormalizeCallFrame(left)
		right = NormalizeCallFrame(right)
	}
	for _, t := range cfg.transforms {
		left = t(left)
		right = t(right)
	}

	var diffs []Diff
	compareValues(left, right, "root", &diffs)

	return Result{
		IsMatch: len(diffs) == 0,
		Diffs:   diffs,
		Left:    left,
		Right:   right,
	}
}

// compareValues walks two values in lockstep, appending a Diff for every
// divergence. Differences are appended in discovery order; mapping keys are
// visited sorted so the order is deterministic.
func compareValues(left, right Value, path string, sink *[]Diff) {
	// Null and absence cases first. A caller that substitutes null for a
	// missing key gets the same classification as an explicit null.
	switch {
	case left.IsNull() && right.IsNull():
		return
	case left.IsNull():
		*sink = append(*sink, Diff{Path: path, Kind: MissingInLeft, Right: right})
		return
	case right.IsNull():
		*sink = append(*sink, Diff{Path: path, Kind: MissingInRight, Left: left})
		return
	}

	if left.Kind() != right.Kind() {
		// Category-lenient case: a number on one side and a string on the
		// other compare by their text, so 5 and "5" are not a divergence.
		if textComparable(left) && textComparable(right) {
			if left.Text() != right.Text() {
				*sink = append(*sink, Diff{Path: path, Kind: ValueMismatch, Left: left, Right: right})
			}
			return
		}
		// Incompatible shapes. No recursion below a type mismatch.
		*sink = append(*sink, Diff{Path: path, Kind: TypeMismatch, Left: left, Right: right})
		return
	}

	switch left.Kind() {
	case KindMapping:
		for _, key := range unionKeys(left, right) {
			childPath := path + "." + key
			lv, lok := left.Get(key)
			rv, rok := right.Get(key)
			switch {
			case !lok:
				*sink = append(*sink, Diff{Path: childPath, Kind: MissingInLeft, Right: rv})
			case !rok:
				*sink = append(*sink, Diff{Path: childPath, Kind: MissingInRight, Left: lv})
			default:
				compareValues(lv, rv, childPath, sink)
			}
		}

	case KindSequence:
		if left.Len() != right.Len() {
			// One record for the length divergence; trailing elements beyond
			// the shorter side are covered by it and not visited.
			*sink = append(*sink, Diff{
				Path:  path + ".length",
				Kind:  ValueMismatch,
				Left:  Int(int64(left.Len())),
				Right: Int(int64(right.Len())),
			})
		}
		n := min(left.Len(), right.Len())
		for i := 0; i < n; i++ {
			compareValues(left.Index(i), right.Index(i), fmt.Sprintf("%s[%d]", path, i), sink)
		}

	case KindBool:
		if left.AsBool() != right.AsBool() {
			*sink = append(*sink, Diff{Path: path, Kind: ValueMismatch, Left: left, Right: right})
		}

	case KindNumber:
		if !numberEqual(left, right) {
			*sink = append(*sink, Diff{Path: path, Kind: ValueMismatch, Left: left, Right: right})
		}

	case KindString:
		if left.Text() != right.Text() {
			*sink = append(*sink, Diff{Path: path, Kind: ValueMismatch, Left: left, Right: right})
		}
	}
}

// textComparable reports whether a value participates in category-lenient
// text comparison: numbers and strings do, everything else does not.
func textComparable(v Value) bool {
	return v.Kind() == KindNumber || v.Kind() == KindString
}

// unionKeys merges the sorted key sets of two mappings, preserving sorted
// order and dropping duplicates.
func unionKeys(left, right Value) []string {
	lk, rk := left.Keys(), right.Keys()
	keys := make([]string, 0, len(lk)+len(rk))
	i, j := 0, 0
	for i < len(lk) && j < len(rk) {
		switch {
		case lk[i] == rk[j]:
			keys = append(keys, lk[i])
			i++
			j++
		case lk[i] < rk[j]:
			keys = append(keys, lk[i])
			i++
		default:
			keys = append(keys, rk[j])
			j++
		}
	}
	keys = append(keys, lk[i:]...)
	keys = append(keys, rk[j:]...)
	return keys
}
