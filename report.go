package tracediff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// displayLimit caps how many diffs Summary shows per kind group. Display
// policy only; the underlying Diffs slice is never truncated.
const displayLimit = 10

// Summary renders a grouped human-readable summary of the result: a single
// pass line when the trees match, otherwise a count header followed by
// differences grouped by kind, at most [displayLimit] per group with an
// overflow counter.
func (r Result) Summary() string {
	if r.IsMatch {
		return "PASS: results match exactly"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FAIL: found %d difference(s):\n", len(r.Diffs))

	byKind := make(map[DiffKind][]Diff)
	for _, d := range r.Diffs {
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}

	for _, kind := range diffKindOrder {
		diffs := byKind[kind]
		if len(diffs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  %s (%d):\n", kindTitle(kind), len(diffs))
		for i, d := range diffs {
			if i == displayLimit {
				fmt.Fprintf(&b, "    ... and %d more\n", len(diffs)-displayLimit)
				break
			}
			fmt.Fprintf(&b, "    - %s\n", d)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DetailedReport renders an exhaustive numbered listing of every difference
// with its path, kind, and both values. Structured values are pretty-printed.
// Unlike Summary it never truncates; intended for deep debugging.
func (r Result) DetailedReport() string {
	if r.IsMatch {
		return "results match exactly - no differences found"
	}

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nDETAILED COMPARISON REPORT\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total differences: %d\n\n", len(r.Diffs))

	for i, d := range r.Diffs {
		fmt.Fprintf(&b, "Difference #%d:\n", i+1)
		fmt.Fprintf(&b, "  Path: %s\n", d.Path)
		fmt.Fprintf(&b, "  Kind: %s\n", d.Kind)
		fmt.Fprintf(&b, "  Left: %s\n", indentTail(d.Left.Pretty(), "  "))
		fmt.Fprintf(&b, "  Right: %s\n", indentTail(d.Right.Pretty(), "  "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnifiedDiff renders a line-level unified diff of the two trees' sorted-key
// indented JSON. Useful as a whole-tree view next to the per-path diffs.
func UnifiedDiff(left, right Value, leftLabel, rightLabel string) (string, error) {
	leftJSON, err := indentJSON(left)
	if err != nil {
		return "", fmt.Errorf("tracediff: render left: %w", err)
	}
	rightJSON, err := indentJSON(right)
	if err != nil {
		return "", fmt.Errorf("tracediff: render right: %w", err)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(leftJSON),
		B:        difflib.SplitLines(rightJSON),
		FromFile: leftLabel,
		ToFile:   rightLabel,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("tracediff: unified diff: %w", err)
	}
	return text, nil
}

func indentJSON(v Value) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// kindTitle renders a DiffKind as a report heading: "missing_in_left"
// becomes "Missing In Left".
func kindTitle(kind DiffKind) string {
	words := strings.Split(string(kind), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// indentTail indents every line after the first, so multi-line pretty values
// align under their label.
func indentTail(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = prefix + "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}
