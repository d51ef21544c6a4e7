package tracediff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CallNode is a decoded call frame in tree form, for visualization and
// gas analysis. Built from a raw or normalized trace Value via [CallTree].
type CallNode struct {
	Type         string      `json:"type"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Gas          string      `json:"gas"`
	GasUsed      string      `json:"gasUsed"`
	Value        string      `json:"value"`
	Input        string      `json:"input"`
	Output       string      `json:"output"`
	Error        string      `json:"error,omitempty"`
	RevertReason string      `json:"revertReason,omitempty"`
	Children     []*CallNode `json:"calls,omitempty"`
	Depth        int         `json:"depth"`
}

// CallTree decodes a call-frame mapping into a CallNode tree. Missing fields
// get the client default ("UNKNOWN" type, "0x0" gas values, "0x" data).
func CallTree(v Value) *CallNode {
	return callTreeAt(v, 0)
}

func callTreeAt(v Value, depth int) *CallNode {
	n := &CallNode{
		Type:         frameText(v, "type", "UNKNOWN"),
		From:         frameText(v, "from", ""),
		To:           frameText(v, "to", ""),
		Gas:          frameText(v, "gas", "0x0"),
		GasUsed:      frameText(v, "gasUsed", "0x0"),
		Value:        frameText(v, "value", "0x0"),
		Input:        frameText(v, "input", "0x"),
		Output:       frameText(v, "output", "0x"),
		Error:        frameText(v, "error", ""),
		RevertReason: frameText(v, "revertReason", ""),
		Depth:        depth,
	}
	if calls, ok := v.Get("calls"); ok && calls.Kind() == KindSequence {
		for _, call := range calls.Elements() {
			n.Children = append(n.Children, callTreeAt(call, depth+1))
		}
	}
	return n
}

func frameText(v Value, field, fallback string) string {
	fv, ok := v.Get(field)
	if !ok || fv.IsNull() {
		return fallback
	}
	return fv.Text()
}

// Render draws the call tree with two-space indentation per depth level,
// short addresses, and decoded gas integers.
func (n *CallNode) Render() string {
	var b strings.Builder
	n.render(&b)
	return strings.TrimRight(b.String(), "\n")
}

func (n *CallNode) render(b *strings.Builder) {
	prefix := strings.Repeat("  ", n.Depth)
	fmt.Fprintf(b, "%s- %s %s -> %s\n", prefix, n.Type, shortAddr(n.From), shortAddr(n.To))
	fmt.Fprintf(b, "%s  gas: %d (%s), used: %d (%s)\n",
		prefix, HexToInt(n.Gas), n.Gas, HexToInt(n.GasUsed), n.GasUsed)
	if n.Error != "" {
		fmt.Fprintf(b, "%s  error: %s\n", prefix, n.Error)
	}
	if n.RevertReason != "" {
		fmt.Fprintf(b, "%s  revert: %s\n", prefix, n.RevertReason)
	}
	for _, child := range n.Children {
		child.render(b)
	}
}

func shortAddr(addr string) string {
	if len(addr) > 12 {
		return addr[:10] + "..."
	}
	return addr
}

// HexToInt decodes a 0x-prefixed quantity, falling back to decimal parsing.
// Unparseable input decodes to 0.
func HexToInt(s string) int64 {
	if hexLiteral(s) {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return n
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// errorNormalizations maps client-specific error message patterns to
// canonical forms, so semantically equivalent failures compare equal across
// implementations. Applied to lowercased messages, first match wins.
var errorNormalizations = []struct {
	pattern    *regexp.Regexp
	normalized string
}{
	{regexp.MustCompile(`invalid input length.*expected \d+`), "invalid input length"},
	{regexp.MustCompile(`input length.*must be.*\d+`), "invalid input length"},
	{regexp.MustCompile(`point not on curve`), "point not on curve"},
	{regexp.MustCompile(`invalid point encoding`), "point not on curve"},
	{regexp.MustCompile(`out of gas`), "out of gas"},
	{regexp.MustCompile(`gas.*insufficient`), "out of gas"},
	{regexp.MustCompile(`execution reverted`), "execution reverted"},
	{regexp.MustCompile(`revert`), "execution reverted"},
}

// NormalizeErrorMessage maps an error message to its canonical cross-client
// form. Unrecognized messages are lowercased and returned as-is.
func NormalizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}
	lower := strings.ToLower(msg)
	for _, rule := range errorNormalizations {
		if rule.pattern.MatchString(lower) {
			return rule.normalized
		}
	}
	return lower
}

// ErrorComparison relates two clients' error messages.
type ErrorComparison struct {
	Left            string `json:"left"`
	Right           string `json:"right"`
	LeftNormalized  string `json:"left_normalized"`
	RightNormalized string `json:"right_normalized"`
	Exact           bool   `json:"exact_match"`
	Semantic        bool   `json:"semantic_match"`
}

// CompareErrors compares two error messages literally and after
// normalization.
func CompareErrors(left, right string) ErrorComparison {
	c := ErrorComparison{
		Left:            left,
		Right:           right,
		LeftNormalized:  NormalizeErrorMessage(left),
		RightNormalized: NormalizeErrorMessage(right),
		Exact:           left == right,
	}
	c.Semantic = c.LeftNormalized == c.RightNormalized
	return c
}

// GasDiscrepancy is a decoded gas difference at one point in the call tree.
type GasDiscrepancy struct {
	Path       string `json:"path"`
	Field      string `json:"field"`
	Left       int64  `json:"left"`
	Right      int64  `json:"right"`
	Difference int64  `json:"difference"` // right minus left
}

// GasDiscrepancies walks both call trees in lockstep and reports every gas
// or gasUsed field whose decoded integers differ. Nested calls beyond the
// shorter call list are not visited.
func GasDiscrepancies(left, right Value) []GasDiscrepancy {
	return gasDiscrepanciesAt(left, right, "root")
}

func gasDiscrepanciesAt(left, right Value, path string) []GasDiscrepancy {
	var out []GasDiscrepancy
	for _, field := range []string{"gas", "gasUsed"} {
		lv := HexToInt(frameText(left, field, "0x0"))
		rv := HexToInt(frameText(right, field, "0x0"))
		if lv != rv {
			out = append(out, GasDiscrepancy{
				Path:       path,
				Field:      field,
				Left:       lv,
				Right:      rv,
				Difference: rv - lv,
			})
		}
	}

	lc, _ := left.Get("calls")
	rc, _ := right.Get("calls")
	n := min(lc.Len(), rc.Len())
	for i := 0; i < n; i++ {
		out = append(out, gasDiscrepanciesAt(
			lc.Index(i), rc.Index(i), fmt.Sprintf("%s.calls[%d]", path, i))...)
	}
	return out
}

// FrameGas is one call frame's decoded gas figures.
type FrameGas struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	Gas     int64  `json:"gas"`
	GasUsed int64  `json:"gasUsed"`
}

// GasSummary walks the call tree and collects every frame's decoded gas and
// gasUsed, in depth-first order.
func GasSummary(v Value) []FrameGas {
	return gasSummaryAt(v, "root")
}

func gasSummaryAt(v Value, path string) []FrameGas {
	out := []FrameGas{{
		Path:    path,
		Type:    frameText(v, "type", "UNKNOWN"),
		Gas:     HexToInt(frameText(v, "gas", "0x0")),
		GasUsed: HexToInt(frameText(v, "gasUsed", "0x0")),
	}}
	if calls, ok := v.Get("calls"); ok && calls.Kind() == KindSequence {
		for i, call := range calls.Elements() {
			out = append(out, gasSummaryAt(call, fmt.Sprintf("%s.calls[%d]", path, i))...)
		}
	}
	return out
}

// CountCalls tallies call frames by type across the whole tree.
func CountCalls(v Value) map[string]int {
	counts := make(map[string]int)
	countCallsInto(v, counts)
	return counts
}

func countCallsInto(v Value, counts map[string]int) {
	counts[frameText(v, "type", "UNKNOWN")]++
	if calls, ok := v.Get("calls"); ok && calls.Kind() == KindSequence {
		for _, call := range calls.Elements() {
			countCallsInto(call, counts)
		}
	}
}

// TotalGasUsed decodes the root frame's gasUsed. Nested call gas is included
// in the parent by the tracer, so the root value is the transaction total.
func TotalGasUsed(v Value) int64 {
	return HexToInt(frameText(v, "gasUsed", "0x0"))
}
