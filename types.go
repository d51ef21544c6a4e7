package tracediff

import "github.com/tracekit/tracediff/internal/store"

// Aliases (=) for the run-store types the Engine surfaces, so callers can
// read run history without importing the internal package.

type Store = store.Store
type Run = store.Run
type Comparison = store.Comparison
type DiffRow = store.DiffRow
