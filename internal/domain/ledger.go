package domain

import "time"

// GeneratingMarker is the description value stored while a generation runs.
const GeneratingMarker = "generating"

// GenerationState enumerates ledger row states.
type GenerationState string

const (
	StateGenerating GenerationState = "generating"
	StateDescribed  GenerationState = "described"
	StateNotFound   GenerationState = "not_found"
)

// GenerationRecord is the persisted per-book generation status.
type GenerationRecord struct {
	BookID      int64
	State       GenerationState
	Description string
	ClaimedAt   time.Time
}

// Terminal reports whether no further generation should happen for the row.
func (g GenerationRecord) Terminal() bool {
	return g.State == StateDescribed || g.State == StateNotFound
}

// DescribeResult is what callers of the describe capability receive.
type DescribeResult struct {
	BookID      int64
	Description string
	Cached      bool
	Failed      bool
}
