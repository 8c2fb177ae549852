// Package stats derives summary counters from a store snapshot. The
// store is small and bounded, so recomputing per query is cheaper than
// maintaining counters incrementally.
package stats

import "stackwatch/internal/model"

// Compute folds a snapshot of event records into summary statistics.
// Deterministic for a given snapshot: calling it twice on an unchanged
// store yields identical results. The "unknown" sentinel counts as one
// distinct sender and as a method of its own.
func Compute(records []model.EventRecord) model.Stats {
	st := model.Stats{MethodCounts: make(map[string]int)}
	senders := make(map[string]struct{})

	for _, rec := range records {
		st.Total++
		senders[rec.Sender] = struct{}{}
		if rec.Success {
			st.SuccessCount++
		} else {
			st.FailureCount++
		}
		st.MethodCounts[rec.Method]++
	}

	st.UniqueSenders = len(senders)
	return st
}
