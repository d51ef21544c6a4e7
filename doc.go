// Package tracediff compares callTracer execution traces produced by two
// independently implemented Ethereum clients. Two traces of the same
// transaction may legitimately differ in representation — null placeholders,
// extra internal fields, numeric encodings — without differing in meaning;
// tracediff separates genuine semantic divergence from that noise.
//
// # Pipeline
//
// The core is a pure normalize → compare → report pipeline over [Value]
// trees:
//
//  1. Normalize: [NormalizeCallFrame] projects each call frame onto the
//     canonical field subset, dropping nulls and empty call lists.
//     Optional transforms such as [NormalizeHex] compose explicitly in
//     front of the comparison via [WithTransforms].
//
//  2. Compare: [Compare] walks both trees in lockstep, collecting a [Diff]
//     for every divergence — missing fields, value mismatches, and type
//     mismatches — with the exact tree path of each. Number-vs-string
//     encodings of the same value are not a divergence.
//
//  3. Report: [Result.Summary] gives a grouped overview, and
//     [Result.DetailedReport] an exhaustive listing. [UnifiedDiff] renders
//     a whole-tree line diff.
//
// The pipeline is synchronous, deterministic, and free of I/O: identical
// inputs always produce the identical ordered difference list.
//
// # Usage
//
// Compare two already-parsed traces:
//
//	left, err := tracediff.Parse(leftJSON)
//	right, err := tracediff.Parse(rightJSON)
//	result := tracediff.Compare(left, right)
//	if !result.IsMatch {
//		fmt.Println(result.Summary())
//	}
//
// # Harness
//
// Around the core, [Engine] runs scenario suites against two live RPC
// endpoints: it fetches both traces per transaction (via the [TraceFetcher]
// interface, implemented by internal/rpc), applies configured transforms
// including user-supplied Risor scripts, compares, and records outcomes to a
// SQLite run store. [CallTree], [GasDiscrepancies], and [CompareErrors]
// support deeper analysis of individual traces.
package tracediff
