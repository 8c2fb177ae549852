package model

// Stats summarizes the current store contents. It is a projection
// recomputed per query, not a stored entity.
type Stats struct {
	Total         int            `json:"totalInteractions"`
	UniqueSenders int            `json:"uniqueSenders"`
	SuccessCount  int            `json:"successfulTransactions"`
	FailureCount  int            `json:"failedTransactions"`
	MethodCounts  map[string]int `json:"methodBreakdown"`
}
